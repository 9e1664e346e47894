package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cartoriolabs/acervo-digital/constants"
	"github.com/cartoriolabs/acervo-digital/internal/entity"
)

// rawRegistro is the permissive shape accepted from the model.
type rawRegistro struct {
	TipoAto      string         `json:"tipoAto"`
	TipoRegistro string         `json:"tipoRegistro"`
	Campos       map[string]any `json:"campos"`
	Filiacoes    []rawFiliacao  `json:"filiacoes"`
	Documentos   []rawDocumento `json:"documentos"`
	Beneficios   []rawBeneficio `json:"beneficios"`
}

type rawFiliacao struct {
	Nome           string `json:"nome"`
	Sexo           string `json:"sexo"`
	Naturalidade   string `json:"naturalidade"`
	Municipio      string `json:"municipio"`
	UF             string `json:"uf"`
	DataNascimento string `json:"dataNascimento"`
}

type rawDocumento struct {
	Titular      string `json:"titular"`
	Tipo         string `json:"tipo"`
	Descricao    string `json:"descricao"`
	Numero       string `json:"numero"`
	OrgaoEmissor string `json:"orgaoEmissor"`
}

type rawBeneficio struct {
	Titular string `json:"titular"`
	Tipo    string `json:"tipo"`
	Numero  string `json:"numero"`
}

// ParseResposta turns a raw model response into an Outcome for tipo.
// Code fences are stripped, a direct parse is attempted, then the outermost
// {...} span. An array response is resolved by best candidate score.
func ParseResposta(resposta string, tipo constants.TipoRegistro) Outcome {
	cleaned := StripFences(resposta)
	if cleaned == "" {
		return Outcome{Status: StatusUnparsable}
	}

	if strings.HasPrefix(cleaned, "[") {
		var candidates []json.RawMessage
		if err := json.Unmarshal([]byte(cleaned), &candidates); err == nil {
			best := Outcome{Status: StatusUnparsable}
			for _, c := range candidates {
				if o := parseObjeto(c, tipo); o.Status != StatusUnparsable && o.Score() > best.Score() {
					best = o
				}
			}
			return best
		}
	}

	if o := parseObjeto([]byte(cleaned), tipo); o.Status != StatusUnparsable {
		return o
	}
	if span := outerBraces(cleaned); span != "" && span != cleaned {
		return parseObjeto([]byte(span), tipo)
	}
	return Outcome{Status: StatusUnparsable}
}

func parseObjeto(data []byte, tipo constants.TipoRegistro) Outcome {
	var raw rawRegistro
	if err := json.Unmarshal(data, &raw); err != nil {
		return Outcome{Status: StatusUnparsable}
	}

	campos := raw.Campos
	if len(campos) == 0 {
		// tolerate flat responses where the fields sit at the top level
		var flat map[string]any
		if err := json.Unmarshal(data, &flat); err != nil {
			return Outcome{Status: StatusUnparsable}
		}
		delete(flat, "tipoAto")
		delete(flat, "tipoRegistro")
		delete(flat, "filiacoes")
		delete(flat, "documentos")
		delete(flat, "beneficios")
		campos = flat
	}

	reg := &entity.Registro{
		TipoAto:      constants.Inclusao,
		TipoRegistro: tipo,
	}
	if strings.EqualFold(strings.TrimSpace(raw.TipoAto), string(constants.Alteracao)) {
		reg.TipoAto = constants.Alteracao
	}

	for key, val := range campos {
		canon, ok := constants.CanonicalizeCampo(tipo, key)
		if !ok {
			continue
		}
		if s := stringify(val); s != "" {
			reg.SetCampo(canon, s)
		}
	}
	for _, f := range raw.Filiacoes {
		if strings.TrimSpace(f.Nome) == "" {
			continue
		}
		reg.Filiacoes = append(reg.Filiacoes, entity.Filiacao{
			Nome:           strings.TrimSpace(f.Nome),
			Sexo:           normalizeSexo(f.Sexo),
			Naturalidade:   strings.TrimSpace(f.Naturalidade),
			Municipio:      strings.TrimSpace(f.Municipio),
			UF:             strings.ToUpper(strings.TrimSpace(f.UF)),
			DataNascimento: strings.TrimSpace(f.DataNascimento),
		})
	}
	for _, d := range raw.Documentos {
		if strings.TrimSpace(d.Titular) == "" && strings.TrimSpace(d.Numero) == "" {
			continue
		}
		reg.Documentos = append(reg.Documentos, entity.Documento{
			Titular:      strings.TrimSpace(d.Titular),
			Tipo:         strings.TrimSpace(d.Tipo),
			Descricao:    strings.TrimSpace(d.Descricao),
			Numero:       strings.TrimSpace(d.Numero),
			OrgaoEmissor: strings.TrimSpace(d.OrgaoEmissor),
		})
	}
	for _, b := range raw.Beneficios {
		if strings.TrimSpace(b.Numero) == "" && strings.TrimSpace(b.Tipo) == "" {
			continue
		}
		reg.Beneficios = append(reg.Beneficios, entity.Beneficio{
			Titular: strings.TrimSpace(b.Titular),
			Tipo:    strings.TrimSpace(b.Tipo),
			Numero:  strings.TrimSpace(b.Numero),
		})
	}

	if len(reg.Campos) == 0 && len(reg.Filiacoes) == 0 {
		return Outcome{Status: StatusUnparsable}
	}
	if reg.EssenciaisPreenchidos() == 0 {
		return Outcome{Status: StatusWeak, Registro: reg}
	}
	return Outcome{Status: StatusOK, Registro: reg}
}

// StripFences removes ```json ... ``` style code-fence framing.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if i := strings.Index(s, "\n"); i >= 0 && !strings.HasPrefix(s, "{") && !strings.HasPrefix(s, "[") {
			s = s[i+1:]
		}
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}

// outerBraces returns the outermost {...} span in s, or "".
func outerBraces(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	case bool:
		if t {
			return "SIM"
		}
		return "NAO"
	default:
		return ""
	}
}

func normalizeSexo(s string) string {
	switch constants.NormalizeKey(s) {
	case "MASCULINO", "M":
		return constants.SexoMasculino
	case "FEMININO", "F":
		return constants.SexoFeminino
	}
	return ""
}
