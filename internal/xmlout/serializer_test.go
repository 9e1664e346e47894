package xmlout

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartoriolabs/acervo-digital/constants"
	"github.com/cartoriolabs/acervo-digital/internal/entity"
)

func registroNascimento() entity.Registro {
	return entity.Registro{
		TipoAto:      constants.Inclusao,
		TipoRegistro: constants.Nascimento,
		Campos: map[string]string{
			"NOME":           "Laura Mendes Ribeiro",
			"MATRICULA":      "123456789012",
			"DATANASCIMENTO": "07/08/2015",
			"LIVRO":          "A-3",
			"OBSERVACOES":    "registro legivel",
		},
		Filiacoes: []entity.Filiacao{{Nome: "Paula Mendes", Sexo: constants.SexoFeminino}},
	}
}

func TestDocumentEnvelopeAndOrder(t *testing.T) {
	s := &Serializer{CNS: "123456"}
	doc, err := s.Document([]entity.Registro{registroNascimento()}, constants.Nascimento, constants.Inclusao)
	require.NoError(t, err)

	out := string(doc)
	assert.Contains(t, out, `<carga versao="1.0" acao="INCLUSAO" sistema="CRC" cns="123456">`)
	assert.Contains(t, out, "<nascimento>")

	// schema order: nome before matricula before dataNascimento before livro
	iNome := strings.Index(out, "<nome>")
	iMatricula := strings.Index(out, "<matricula>")
	iData := strings.Index(out, "<dataNascimento>")
	iLivro := strings.Index(out, "<livro>")
	iFiliacoes := strings.Index(out, "<filiacoes>")
	iObs := strings.Index(out, "<observacoes>")
	for _, idx := range []int{iNome, iMatricula, iData, iLivro, iFiliacoes, iObs} {
		require.GreaterOrEqual(t, idx, 0)
	}
	assert.Less(t, iNome, iMatricula)
	assert.Less(t, iMatricula, iData)
	assert.Less(t, iData, iLivro)
	assert.Less(t, iLivro, iFiliacoes, "repeating blocks come after the ordered fields")
	assert.Less(t, iFiliacoes, iObs, "observacoes closes the record block")

	assert.NotContains(t, out, "<cpf>", "empty fields are omitted")
}

func TestDocumentWithoutCNS(t *testing.T) {
	s := &Serializer{}
	doc, err := s.Document([]entity.Registro{registroNascimento()}, constants.Nascimento, constants.Inclusao)
	require.NoError(t, err)
	assert.NotContains(t, string(doc), "cns=")
}

func TestDocumentAlteracaoFallsBackToSortedOrder(t *testing.T) {
	reg := registroNascimento()
	reg.TipoAto = constants.Alteracao
	s := &Serializer{}
	doc, err := s.Document([]entity.Registro{reg}, constants.Nascimento, constants.Alteracao)
	require.NoError(t, err)

	out := string(doc)
	assert.Contains(t, out, `acao="ALTERACAO"`)
	assert.Contains(t, out, "<nome>Laura Mendes Ribeiro</nome>")
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "carga_nascimento_inclusao_abc.xml",
		FileName(constants.Nascimento, constants.Inclusao, "abc", 0, 1))
	assert.Equal(t, "carga_obito_alteracao_abc_2.xml",
		FileName(constants.Obito, constants.Alteracao, "abc", 1, 3))
}

func TestAcceptable(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want bool
	}{
		{"essential field populated", `<carga><nascimento><nome>Ana</nome></nascimento></carga>`, true},
		{"essential field empty", `<carga><nascimento><nome></nome></nascimento></carga>`, false},
		{"missing envelope", `<nascimento><nome>Ana</nome></nascimento>`, false},
		{"no essential fields", `<carga><nascimento><livro>A-1</livro></nascimento></carga>`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Acceptable(tt.doc, constants.Nascimento))
		})
	}
}
