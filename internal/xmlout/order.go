package xmlout

import (
	"sort"

	"github.com/cartoriolabs/acervo-digital/constants"
	"github.com/cartoriolabs/acervo-digital/internal/entity"
)

// tagPorCampo maps the canonical field vocabulary onto the external
// schema's element names.
var tagPorCampo = map[string]string{
	"NOME":                 "nome",
	"CPF":                  "cpf",
	"MATRICULA":            "matricula",
	"DATAREGISTRO":         "dataRegistro",
	"DNV":                  "dnv",
	"DATANASCIMENTO":       "dataNascimento",
	"HORANASCIMENTO":       "horaNascimento",
	"LOCALNASCIMENTO":      "localNascimento",
	"SEXO":                 "sexo",
	"GEMEO":                "gemeo",
	"NACIONALIDADE":        "nacionalidade",
	"MUNICIPIONASCIMENTO":  "municipioNascimento",
	"UFNASCIMENTO":         "ufNascimento",
	"LIVRO":                "livro",
	"FOLHA":                "folha",
	"TERMO":                "termo",
	"OBSERVACOES":          "observacoes",
	"NOMECONJUGE1":         "nomeConjuge1",
	"NOMECONJUGE2":         "nomeConjuge2",
	"CPFCONJUGE1":          "cpfConjuge1",
	"CPFCONJUGE2":          "cpfConjuge2",
	"DATACASAMENTO":        "dataCasamento",
	"REGIMEBENS":           "regimeBens",
	"NOMEALTERADOCONJUGE1": "nomeAlteradoConjuge1",
	"NOMEALTERADOCONJUGE2": "nomeAlteradoConjuge2",
	"NOMEFALECIDO":         "nomeFalecido",
	"DATAOBITO":            "dataObito",
	"LOCALOBITO":           "localObito",
	"CAUSAMORTE":           "causaMorte",
	"ESTADOCIVIL":          "estadoCivil",
}

type ordemKey struct {
	tipo constants.TipoRegistro
	acao constants.TipoAto
}

// ordemCampos is the strongly-ordered field sequence dictated by the
// external registry system, per registry type and operation kind. The
// sequence is NOT alphabetical; it mirrors the load schema. OBSERVACOES is
// emitted after the repeating blocks, so it is absent here.
var ordemCampos = map[ordemKey][]string{
	{constants.Nascimento, constants.Inclusao}: {
		"NOME", "CPF", "MATRICULA", "DATAREGISTRO", "DNV",
		"DATANASCIMENTO", "HORANASCIMENTO", "LOCALNASCIMENTO", "SEXO",
		"GEMEO", "NACIONALIDADE", "MUNICIPIONASCIMENTO", "UFNASCIMENTO",
		"LIVRO", "FOLHA", "TERMO",
	},
	{constants.Casamento, constants.Inclusao}: {
		"NOMECONJUGE1", "CPFCONJUGE1", "NOMECONJUGE2", "CPFCONJUGE2",
		"MATRICULA", "DATACASAMENTO", "DATAREGISTRO", "REGIMEBENS",
		"NOMEALTERADOCONJUGE1", "NOMEALTERADOCONJUGE2",
		"LIVRO", "FOLHA", "TERMO",
	},
	{constants.Obito, constants.Inclusao}: {
		"NOMEFALECIDO", "CPF", "MATRICULA", "DATAOBITO", "DATAREGISTRO",
		"LOCALOBITO", "CAUSAMORTE", "SEXO", "ESTADOCIVIL",
		"LIVRO", "FOLHA", "TERMO",
	},
}

// camposOrdenados returns the emission sequence for a record. Combinations
// without a fixed order (alterations today) fall back to a generic sorted
// emission covering whatever keys the record carries.
func camposOrdenados(reg *entity.Registro, acao constants.TipoAto) (ordem []string, generica bool) {
	if fixed, ok := ordemCampos[ordemKey{reg.TipoRegistro, acao}]; ok {
		return fixed, false
	}
	keys := make([]string, 0, len(reg.Campos))
	for k := range reg.Campos {
		if k != "OBSERVACOES" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, true
}
