package constants

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// TipoRegistro identifies which civil-registry book a document belongs to.
type TipoRegistro string

const (
	Nascimento TipoRegistro = "NASCIMENTO"
	Casamento  TipoRegistro = "CASAMENTO"
	Obito      TipoRegistro = "OBITO"
)

var allTipos = []TipoRegistro{Nascimento, Casamento, Obito}

// TiposRegistro returns the registry types as plain strings.
func TiposRegistro() []string {
	out := make([]string, len(allTipos))
	for i, t := range allTipos {
		out[i] = string(t)
	}
	return out
}

// ParseTipoRegistro maps free-form input onto a registry type.
func ParseTipoRegistro(input string) (TipoRegistro, bool) {
	switch NormalizeKey(input) {
	case "NASCIMENTO":
		return Nascimento, true
	case "CASAMENTO":
		return Casamento, true
	case "OBITO":
		return Obito, true
	}
	return "", false
}

// TipoEscrita labels how the source record was produced.
type TipoEscrita string

const (
	Manuscrito TipoEscrita = "manuscrito"
	Digitado   TipoEscrita = "digitado"
)

// TipoAto is the load operation kind for an extracted record.
type TipoAto string

const (
	Inclusao  TipoAto = "INCLUSAO"
	Alteracao TipoAto = "ALTERACAO"
)

// Sexo values accepted on affiliation entries.
const (
	SexoMasculino = "MASCULINO"
	SexoFeminino  = "FEMININO"
)

// Vocabulario is the canonical field vocabulary for each registry type. Any
// key surviving synonym normalization must belong to this set.
var Vocabulario = map[TipoRegistro][]string{
	Nascimento: {
		"NOME", "CPF", "MATRICULA", "DATAREGISTRO", "DNV",
		"DATANASCIMENTO", "HORANASCIMENTO", "LOCALNASCIMENTO", "SEXO",
		"GEMEO", "NACIONALIDADE", "MUNICIPIONASCIMENTO", "UFNASCIMENTO",
		"LIVRO", "FOLHA", "TERMO", "OBSERVACOES",
	},
	Casamento: {
		"NOMECONJUGE1", "NOMECONJUGE2", "CPFCONJUGE1", "CPFCONJUGE2",
		"DATACASAMENTO", "DATAREGISTRO", "MATRICULA", "REGIMEBENS",
		"NOMEALTERADOCONJUGE1", "NOMEALTERADOCONJUGE2",
		"LIVRO", "FOLHA", "TERMO", "OBSERVACOES",
	},
	Obito: {
		"NOMEFALECIDO", "CPF", "MATRICULA", "DATAOBITO", "DATAREGISTRO",
		"LOCALOBITO", "CAUSAMORTE", "SEXO", "ESTADOCIVIL",
		"LIVRO", "FOLHA", "TERMO", "OBSERVACOES",
	},
}

// CamposEssenciais lists the fields a usable extraction must populate.
// A result missing all of them is considered weak and triggers the
// secondary-model fallback.
var CamposEssenciais = map[TipoRegistro][]string{
	Nascimento: {"NOME", "DATANASCIMENTO", "MATRICULA"},
	Casamento:  {"NOMECONJUGE1", "NOMECONJUGE2", "DATACASAMENTO"},
	Obito:      {"NOMEFALECIDO", "DATAOBITO", "MATRICULA"},
}

// sinonimos maps common model spellings (already normalized) onto the
// canonical vocabulary. Keys absent here and absent from the vocabulary are
// dropped by the extractor.
var sinonimos = map[TipoRegistro]map[string]string{
	Nascimento: {
		"NOMEREGISTRADO":         "NOME",
		"NOMEDOREGISTRADO":       "NOME",
		"NOMECOMPLETO":           "NOME",
		"REGISTRADO":             "NOME",
		"DATADOREGISTRO":         "DATAREGISTRO",
		"DATADEREGISTRO":         "DATAREGISTRO",
		"DATADENASCIMENTO":       "DATANASCIMENTO",
		"DATADONASCIMENTO":       "DATANASCIMENTO",
		"NASCIMENTO":             "DATANASCIMENTO",
		"HORADENASCIMENTO":       "HORANASCIMENTO",
		"LOCALDENASCIMENTO":      "LOCALNASCIMENTO",
		"LOCALDONASCIMENTO":      "LOCALNASCIMENTO",
		"NUMERODECLARACAO":       "DNV",
		"DECLARACAONASCIDOVIVO":  "DNV",
		"NUMERODNV":              "DNV",
		"NUMERODAMATRICULA":      "MATRICULA",
		"NUMEROMATRICULA":        "MATRICULA",
		"GEMEOS":                 "GEMEO",
		"MUNICIPIODENASCIMENTO":  "MUNICIPIONASCIMENTO",
		"UFDENASCIMENTO":         "UFNASCIMENTO",
		"NUMERODOLIVRO":          "LIVRO",
		"NUMERODAFOLHA":          "FOLHA",
		"NUMERODOTERMO":          "TERMO",
		"OBSERVACAO":             "OBSERVACOES",
		"ANOTACOES":              "OBSERVACOES",
	},
	Casamento: {
		"NOMEDOCONJUGE1":     "NOMECONJUGE1",
		"NOMEDOCONJUGE2":     "NOMECONJUGE2",
		"CONJUGE1":           "NOMECONJUGE1",
		"CONJUGE2":           "NOMECONJUGE2",
		"NOMENOIVO":          "NOMECONJUGE1",
		"NOMENOIVA":          "NOMECONJUGE2",
		"CPFDOCONJUGE1":      "CPFCONJUGE1",
		"CPFDOCONJUGE2":      "CPFCONJUGE2",
		"DATADOCASAMENTO":    "DATACASAMENTO",
		"DATADECASAMENTO":    "DATACASAMENTO",
		"DATADOREGISTRO":     "DATAREGISTRO",
		"REGIMEDEBENS":       "REGIMEBENS",
		"NUMERODAMATRICULA":  "MATRICULA",
		"NUMEROMATRICULA":    "MATRICULA",
		"NUMERODOLIVRO":      "LIVRO",
		"NUMERODAFOLHA":      "FOLHA",
		"NUMERODOTERMO":      "TERMO",
		"OBSERVACAO":         "OBSERVACOES",
	},
	Obito: {
		"NOMEDOFALECIDO":    "NOMEFALECIDO",
		"FALECIDO":          "NOMEFALECIDO",
		"NOME":              "NOMEFALECIDO",
		"DATADOOBITO":       "DATAOBITO",
		"DATADEOBITO":       "DATAOBITO",
		"DATADOFALECIMENTO": "DATAOBITO",
		"DATADOREGISTRO":    "DATAREGISTRO",
		"LOCALDOOBITO":      "LOCALOBITO",
		"CAUSADAMORTE":      "CAUSAMORTE",
		"CAUSAMORTIS":       "CAUSAMORTE",
		"NUMERODAMATRICULA": "MATRICULA",
		"NUMEROMATRICULA":   "MATRICULA",
		"NUMERODOLIVRO":     "LIVRO",
		"NUMERODAFOLHA":     "FOLHA",
		"NUMERODOTERMO":     "TERMO",
		"OBSERVACAO":        "OBSERVACOES",
	},
}

var vocabSets = func() map[TipoRegistro]map[string]struct{} {
	out := make(map[TipoRegistro]map[string]struct{}, len(Vocabulario))
	for tipo, keys := range Vocabulario {
		set := make(map[string]struct{}, len(keys))
		for _, k := range keys {
			set[k] = struct{}{}
		}
		out[tipo] = set
	}
	return out
}()

// CanonicalizeCampo normalizes a model-supplied field key and resolves it
// against the vocabulary for tipo, via the synonym table when needed.
func CanonicalizeCampo(tipo TipoRegistro, key string) (string, bool) {
	norm := NormalizeKey(key)
	if norm == "" {
		return "", false
	}
	if _, ok := vocabSets[tipo][norm]; ok {
		return norm, true
	}
	if canon, ok := sinonimos[tipo][norm]; ok {
		return canon, true
	}
	return "", false
}

// IsCampoCanonico reports whether key already belongs to tipo's vocabulary.
func IsCampoCanonico(tipo TipoRegistro, key string) bool {
	_, ok := vocabSets[tipo][key]
	return ok
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeKey strips diacritics, removes non-alphanumerics and upper-cases,
// so "Data de Nascimento" and "DATA_DE_NASCIMENTO" collapse to the same key.
func NormalizeKey(s string) string {
	if folded, _, err := transform.String(stripMarks, s); err == nil {
		s = folded
	}
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}
