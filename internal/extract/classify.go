package extract

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/cartoriolabs/acervo-digital/constants"
	"github.com/cartoriolabs/acervo-digital/internal/ai"
	"github.com/cartoriolabs/acervo-digital/internal/prompt"
)

// Classificacao is the structured output of the writing/registry classifier.
type Classificacao struct {
	Tipo         constants.TipoEscrita  `json:"tipo"`
	Confidence   float64                `json:"confidence"`
	TipoRegistro constants.TipoRegistro `json:"tipoRegistro,omitempty"`
}

const classificacaoSchemaJSON = `{
	"type": "object",
	"properties": {
		"tipo": {"type": "string", "enum": ["manuscrito", "digitado"]},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1},
		"tipoRegistro": {"type": "string", "enum": ["NASCIMENTO", "CASAMENTO", "OBITO"]}
	},
	"required": ["tipo"]
}`

var classificacaoSchema = jsonschema.MustCompileString("classificacao.json", classificacaoSchemaJSON)

// Classifier labels a document as typed or handwritten and identifies the
// registry type, via a single structured-output model request with one
// fallback-model retry.
type Classifier struct {
	client        ai.Client
	primaryModel  string
	fallbackModel string
	store         prompt.Store
	log           *slog.Logger
}

func NewClassifier(client ai.Client, primaryModel, fallbackModel string, store prompt.Store, log *slog.Logger) *Classifier {
	if log == nil {
		log = slog.Default()
	}
	return &Classifier{
		client:        client,
		primaryModel:  primaryModel,
		fallbackModel: fallbackModel,
		store:         store,
		log:           log,
	}
}

// Classify issues the request with either a transcript or raw image bytes.
// An absent or unparsable response retries once on the fallback model before
// settling on the typed-document default.
func (c *Classifier) Classify(ctx context.Context, texto string, imagem []byte, imagemMIME string) Classificacao {
	fallback := Classificacao{Tipo: constants.Digitado}
	if c.client == nil {
		return fallback
	}

	tmpl := prompt.Resolve(ctx, c.store, prompt.DefaultTipoEscrita, "tipo_escrita")
	p := prompt.Render(tmpl, map[string]string{"texto": texto})

	for _, model := range []string{c.primaryModel, c.fallbackModel} {
		if model == "" {
			continue
		}
		out, err := c.client.Generate(ctx, ai.Request{
			Model:      model,
			Prompt:     p,
			ImageData:  imagem,
			ImageMIME:  imagemMIME,
			JSONOutput: true,
			Purpose:    "classificacao",
		})
		if err != nil {
			c.log.Warn("classificacao de escrita falhou", "model", model, "err", err)
			continue
		}
		if cls, ok := parseClassificacao(out); ok {
			c.log.Debug("documento classificado",
				"tipo", cls.Tipo, "tipo_registro", cls.TipoRegistro, "confidence", cls.Confidence)
			return cls
		}
		c.log.Warn("resposta de classificacao invalida", "model", model)
	}
	return fallback
}

func parseClassificacao(resposta string) (Classificacao, bool) {
	cleaned := StripFences(resposta)
	if span := outerBraces(cleaned); span != "" {
		cleaned = span
	}
	var doc any
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		return Classificacao{}, false
	}
	if err := classificacaoSchema.Validate(doc); err != nil {
		return Classificacao{}, false
	}
	var cls Classificacao
	if err := json.Unmarshal([]byte(cleaned), &cls); err != nil {
		return Classificacao{}, false
	}
	cls.Tipo = constants.TipoEscrita(strings.ToLower(string(cls.Tipo)))
	return cls, true
}
