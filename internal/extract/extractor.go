package extract

import (
	"context"
	"log/slog"
	"strings"

	"github.com/cartoriolabs/acervo-digital/constants"
	"github.com/cartoriolabs/acervo-digital/internal/ai"
	"github.com/cartoriolabs/acervo-digital/internal/entity"
	"github.com/cartoriolabs/acervo-digital/internal/prompt"
)

// Extractor turns a transcript (or handwritten image) into a normalized
// Registro. The primary model is retried on transient failures; a weak or
// unparsable result escalates once to the fallback model; when everything
// fails the regex heuristic guarantees some record is still produced.
type Extractor struct {
	client         ai.Client
	primaryModel   string
	fallbackModel  string
	retry          ai.RetryPolicy
	store          prompt.Store
	maxPromptChars int
	log            *slog.Logger
}

func NewExtractor(client ai.Client, primaryModel, fallbackModel string, retry ai.RetryPolicy, store prompt.Store, maxPromptChars int, log *slog.Logger) *Extractor {
	if maxPromptChars <= 0 {
		maxPromptChars = 12000
	}
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{
		client:         client,
		primaryModel:   primaryModel,
		fallbackModel:  fallbackModel,
		retry:          retry,
		store:          store,
		maxPromptChars: maxPromptChars,
		log:            log,
	}
}

// Input is one extraction request. Imagem is set for the handwritten-image
// path; Texto for everything else.
type Input struct {
	Texto      string
	Imagem     []byte
	ImagemMIME string
	Tipo       constants.TipoRegistro
	Escrita    constants.TipoEscrita
}

// Extrair runs the full extraction ladder and always returns a record.
func (e *Extractor) Extrair(ctx context.Context, in Input) *entity.Registro {
	if e.client == nil {
		e.log.Warn("modelo nao configurado; usando extracao heuristica", "tipo", in.Tipo)
		return Heuristica(in.Texto, in.Tipo)
	}

	req := e.buildRequest(ctx, in, e.primaryModel)
	primary := e.attempt(ctx, req, in.Tipo)
	if primary.Status == StatusOK {
		return primary.Registro
	}

	e.log.Warn("extracao primaria fraca; acionando modelo secundario",
		"tipo", in.Tipo, "status", primary.Status, "model", e.fallbackModel)
	if e.fallbackModel != "" {
		req.Model = e.fallbackModel
		secondary := e.attempt(ctx, req, in.Tipo)
		if secondary.Score() > primary.Score() {
			primary = secondary
		}
	}
	if primary.Registro != nil {
		return primary.Registro
	}

	e.log.Warn("todos os modelos falharam; usando extracao heuristica", "tipo", in.Tipo)
	return Heuristica(in.Texto, in.Tipo)
}

func (e *Extractor) attempt(ctx context.Context, req ai.Request, tipo constants.TipoRegistro) Outcome {
	out, err := ai.GenerateWithRetry(ctx, e.client, req, e.retry, e.log)
	if err != nil {
		e.log.Warn("chamada de extracao falhou", "model", req.Model, "err", err)
		return Outcome{Status: StatusUnparsable}
	}
	return ParseResposta(out, tipo)
}

func (e *Extractor) buildRequest(ctx context.Context, in Input, model string) ai.Request {
	texto := in.Texto
	if len(texto) > e.maxPromptChars {
		texto = texto[:e.maxPromptChars]
	}

	escrita := string(in.Escrita)
	if escrita == "" {
		escrita = string(constants.Digitado)
	}
	tipoLower := strings.ToLower(string(in.Tipo))

	var fallbackTmpl string
	if len(in.Imagem) > 0 {
		fallbackTmpl = prompt.DefaultLeituraManuscrito
	} else {
		fallbackTmpl = prompt.DefaultLeitura
	}
	tmpl := prompt.Resolve(ctx, e.store, fallbackTmpl,
		"leitura_"+escrita+"_"+tipoLower,
		"leitura_"+escrita,
	)
	p := prompt.Render(tmpl, map[string]string{
		"texto": texto,
		"tipo":  tipoLower,
	})

	return ai.Request{
		Model:      model,
		Prompt:     p,
		ImageData:  in.Imagem,
		ImageMIME:  in.ImagemMIME,
		JSONOutput: true,
		Purpose:    "extracao",
	}
}
