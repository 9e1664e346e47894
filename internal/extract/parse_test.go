package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartoriolabs/acervo-digital/constants"
)

func TestParseRespostaFencedJSON(t *testing.T) {
	resposta := "```json\n" + `{
		"tipoAto": "INCLUSAO",
		"campos": {
			"NOME": "Ana Beatriz Souza",
			"DATANASCIMENTO": "02/07/1985",
			"MATRICULA": "11122233344455"
		},
		"filiacoes": [{"nome": "Clara Souza", "sexo": "f"}]
	}` + "\n```"

	out := ParseResposta(resposta, constants.Nascimento)
	require.Equal(t, StatusOK, out.Status)
	assert.Equal(t, "Ana Beatriz Souza", out.Registro.Campo("NOME"))
	assert.Equal(t, "02/07/1985", out.Registro.Campo("DATANASCIMENTO"))
	require.Len(t, out.Registro.Filiacoes, 1)
	assert.Equal(t, constants.SexoFeminino, out.Registro.Filiacoes[0].Sexo)
}

func TestParseRespostaSynonymKeys(t *testing.T) {
	resposta := `{"campos": {
		"nome do registrado": "Carlos Eduardo Lima",
		"data de nascimento": "10/10/2000",
		"número da matrícula": "123456",
		"cor preferida": "azul"
	}}`

	out := ParseResposta(resposta, constants.Nascimento)
	require.Equal(t, StatusOK, out.Status)
	assert.Equal(t, "Carlos Eduardo Lima", out.Registro.Campo("NOME"))
	assert.Equal(t, "10/10/2000", out.Registro.Campo("DATANASCIMENTO"))
	assert.Equal(t, "123456", out.Registro.Campo("MATRICULA"))
	assert.Equal(t, "", out.Registro.Campo("CORPREFERIDA"), "keys outside the vocabulary are dropped")
}

func TestParseRespostaFlatObject(t *testing.T) {
	// some model responses skip the campos wrapper entirely
	resposta := `{"NOMEFALECIDO": "Pedro Paulo Ramos", "DATAOBITO": "01/02/2020", "MATRICULA": "987654321"}`

	out := ParseResposta(resposta, constants.Obito)
	require.Equal(t, StatusOK, out.Status)
	assert.Equal(t, "Pedro Paulo Ramos", out.Registro.Campo("NOMEFALECIDO"))
	assert.Equal(t, "01/02/2020", out.Registro.Campo("DATAOBITO"))
}

func TestParseRespostaSurroundingProse(t *testing.T) {
	resposta := `Claro! Segue o registro extraido:
{"campos": {"NOME": "Rita de Cassia", "DATANASCIMENTO": "03/03/1993", "MATRICULA": "555666"}}
Espero ter ajudado.`

	out := ParseResposta(resposta, constants.Nascimento)
	require.Equal(t, StatusOK, out.Status)
	assert.Equal(t, "Rita de Cassia", out.Registro.Campo("NOME"))
}

func TestParseRespostaArrayPicksBestCandidate(t *testing.T) {
	resposta := `[
		{"campos": {"LIVRO": "A-1"}},
		{"campos": {"NOME": "Bruno Alves", "DATANASCIMENTO": "05/05/1995", "MATRICULA": "777888"}}
	]`

	out := ParseResposta(resposta, constants.Nascimento)
	require.Equal(t, StatusOK, out.Status)
	assert.Equal(t, "Bruno Alves", out.Registro.Campo("NOME"))
}

func TestParseRespostaWeakWhenNoEssentials(t *testing.T) {
	resposta := `{"campos": {"LIVRO": "B-7", "FOLHA": "12"}}`

	out := ParseResposta(resposta, constants.Nascimento)
	assert.Equal(t, StatusWeak, out.Status)
	require.NotNil(t, out.Registro)
	assert.Equal(t, "B-7", out.Registro.Campo("LIVRO"))
}

func TestParseRespostaUnparsable(t *testing.T) {
	for _, resposta := range []string{"", "sem json aqui", `{"campos": {}}`, "[]"} {
		out := ParseResposta(resposta, constants.Nascimento)
		assert.Equal(t, StatusUnparsable, out.Status, "resposta: %q", resposta)
		assert.Nil(t, out.Registro)
	}
}

func TestParseRespostaTipoAtoAlteracao(t *testing.T) {
	resposta := `{"tipoAto": "alteracao", "campos": {"NOME": "Joana Prado", "DATANASCIMENTO": "09/09/1999", "MATRICULA": "123"}}`

	out := ParseResposta(resposta, constants.Nascimento)
	require.Equal(t, StatusOK, out.Status)
	assert.Equal(t, constants.Alteracao, out.Registro.TipoAto)
}

func TestStringifyNumbersAndBools(t *testing.T) {
	resposta := `{"campos": {"NOME": "Luis Otavio", "DATANASCIMENTO": "01/01/2001", "MATRICULA": 123456, "GEMEO": true}}`

	out := ParseResposta(resposta, constants.Nascimento)
	require.Equal(t, StatusOK, out.Status)
	assert.Equal(t, "123456", out.Registro.Campo("MATRICULA"))
	assert.Equal(t, "SIM", out.Registro.Campo("GEMEO"))
}
