package xmlout

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/cartoriolabs/acervo-digital/constants"
	"github.com/cartoriolabs/acervo-digital/internal/ai"
	"github.com/cartoriolabs/acervo-digital/internal/entity"
	"github.com/cartoriolabs/acervo-digital/internal/prompt"
)

// IASerializer asks a model to produce the whole XML document from a JSON
// projection of the chunk. The deterministic Serializer stays authoritative:
// a response without the expected envelope or without any populated
// essential field is discarded.
type IASerializer struct {
	Det    *Serializer
	Client ai.Client
	Model  string
	Store  prompt.Store
	Log    *slog.Logger
}

// Document tries the model path and falls back to the deterministic one.
func (s *IASerializer) Document(ctx context.Context, chunk []entity.Registro, tipo constants.TipoRegistro, acao constants.TipoAto) ([]byte, error) {
	log := s.Log
	if log == nil {
		log = slog.Default()
	}
	if s.Client == nil {
		return s.Det.Document(chunk, tipo, acao)
	}

	projection, err := json.MarshalIndent(chunk, "", "  ")
	if err != nil {
		return s.Det.Document(chunk, tipo, acao)
	}
	tipoLower := strings.ToLower(string(tipo))
	tmpl := prompt.Resolve(ctx, s.Store, prompt.DefaultXML, "xml_"+tipoLower)
	p := prompt.Render(tmpl, map[string]string{
		"texto": string(projection),
		"tipo":  tipoLower,
	})

	out, err := s.Client.Generate(ctx, ai.Request{Model: s.Model, Prompt: p, Purpose: "xml"})
	if err != nil {
		log.Warn("geracao de XML pelo modelo falhou; usando serializacao padrao", "err", err)
		return s.Det.Document(chunk, tipo, acao)
	}
	cleaned := stripXMLFences(out)
	if !Acceptable(cleaned, tipo) {
		log.Warn("XML do modelo rejeitado; usando serializacao padrao", "tipo", tipo)
		return s.Det.Document(chunk, tipo, acao)
	}
	return []byte(cleaned), nil
}

// Acceptable checks the expected root element and that at least one
// essential field for the registry type carries content.
func Acceptable(doc string, tipo constants.TipoRegistro) bool {
	if !strings.Contains(doc, "<carga") {
		return false
	}
	for _, campo := range constants.CamposEssenciais[tipo] {
		tag, ok := tagPorCampo[campo]
		if !ok {
			continue
		}
		open := "<" + tag + ">"
		idx := strings.Index(doc, open)
		if idx < 0 {
			continue
		}
		rest := doc[idx+len(open):]
		if end := strings.Index(rest, "</"+tag+">"); end > 0 && strings.TrimSpace(rest[:end]) != "" {
			return true
		}
	}
	return false
}

func stripXMLFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```xml")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}
