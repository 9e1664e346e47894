package extract

import (
	"regexp"
	"strings"

	"github.com/cartoriolabs/acervo-digital/constants"
	"github.com/cartoriolabs/acervo-digital/internal/entity"
)

var (
	reNome      = regexp.MustCompile(`(?i)nome(?:\s+d[oa]\s+registrad[oa]|\s+complet[oa])?\s*[:\-]\s*([^\n,;]{3,80})`)
	reMatricula = regexp.MustCompile(`(?i)matr[ií]cula\s*(?:n[º°.]?\s*)?[:\-]?\s*([\d.\- ]{6,40})`)
	reMatric32  = regexp.MustCompile(`\b\d{32}\b`)
	reData      = regexp.MustCompile(`\b(\d{2}/\d{2}/\d{4})\b`)
	reDataReg   = regexp.MustCompile(`(?i)registr(?:o|ada?|ado)\D{0,25}(\d{2}/\d{2}/\d{4})`)
	reLivro     = regexp.MustCompile(`(?i)livro\s*(?:n[º°.]?\s*)?[:\-]?\s*([A-Z]?-?\d{1,6})`)
	reFolha     = regexp.MustCompile(`(?i)folha?s?\s*(?:n[º°.]?\s*)?[:\-]?\s*(\d{1,6}[vV]?)`)
	reTermo     = regexp.MustCompile(`(?i)termo\s*(?:n[º°.]?\s*)?[:\-]?\s*(\d{1,8})`)
)

// Heuristica is the deterministic regex extractor used when no model is
// configured or every model attempt failed. It recovers a minimal set of
// fields so the pipeline always produces a record for the file.
func Heuristica(texto string, tipo constants.TipoRegistro) *entity.Registro {
	reg := &entity.Registro{
		TipoAto:      constants.Inclusao,
		TipoRegistro: tipo,
		Campos:       map[string]string{},
	}
	if strings.TrimSpace(texto) == "" {
		return reg
	}

	if m := reNome.FindStringSubmatch(texto); m != nil {
		reg.SetCampo(nomeCampo(tipo), strings.TrimSpace(m[1]))
	}
	if m := reMatric32.FindString(texto); m != "" {
		reg.SetCampo("MATRICULA", m)
	} else if m := reMatricula.FindStringSubmatch(texto); m != nil {
		digits := strings.Map(keepDigit, m[1])
		if len(digits) >= 6 {
			reg.SetCampo("MATRICULA", digits)
		}
	}
	if m := reDataReg.FindStringSubmatch(texto); m != nil {
		reg.SetCampo("DATAREGISTRO", m[1])
	} else if m := reData.FindStringSubmatch(texto); m != nil {
		reg.SetCampo("DATAREGISTRO", m[1])
	}
	if m := reLivro.FindStringSubmatch(texto); m != nil {
		reg.SetCampo("LIVRO", strings.ToUpper(strings.TrimSpace(m[1])))
	}
	if m := reFolha.FindStringSubmatch(texto); m != nil {
		reg.SetCampo("FOLHA", strings.TrimSpace(m[1]))
	}
	if m := reTermo.FindStringSubmatch(texto); m != nil {
		reg.SetCampo("TERMO", strings.TrimSpace(m[1]))
	}
	return reg
}

func nomeCampo(tipo constants.TipoRegistro) string {
	switch tipo {
	case constants.Casamento:
		return "NOMECONJUGE1"
	case constants.Obito:
		return "NOMEFALECIDO"
	default:
		return "NOME"
	}
}

func keepDigit(r rune) rune {
	if r >= '0' && r <= '9' {
		return r
	}
	return -1
}
