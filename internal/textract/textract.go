// Package textract turns payload bytes into a text transcript, either by
// reading a PDF's embedded text layer or by OCR through the model API.
package textract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/cartoriolabs/acervo-digital/internal/ai"
	"github.com/cartoriolabs/acervo-digital/internal/prompt"
)

// Extractor acquires transcripts. Neither path retries on its own; failures
// degrade to an empty transcript so a single bad file never aborts a job.
type Extractor struct {
	client       ai.Client
	ocrModel     string
	store        prompt.Store
	previewChars int
	log          *slog.Logger
}

func NewExtractor(client ai.Client, ocrModel string, store prompt.Store, previewChars int, log *slog.Logger) *Extractor {
	if previewChars <= 0 {
		previewChars = 300
	}
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{client: client, ocrModel: ocrModel, store: store, previewChars: previewChars, log: log}
}

// PDFText extracts the native text layer of a PDF. Scanned PDFs without an
// embedded layer return "" and a warning string instead of an error.
func (e *Extractor) PDFText(data []byte) (text string, warning string) {
	defer func() {
		if r := recover(); r != nil {
			text, warning = "", fmt.Sprintf("leitura do PDF falhou: %v", r)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Sprintf("leitura do PDF falhou: %v", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Sprintf("extracao de texto do PDF falhou: %v", err)
	}
	var b strings.Builder
	if _, err := io.Copy(&b, plain); err != nil {
		return "", fmt.Sprintf("extracao de texto do PDF falhou: %v", err)
	}
	text = b.String()
	if strings.TrimSpace(text) == "" {
		return "", "PDF sem camada de texto (digitalizacao pura)"
	}
	e.log.Debug("pdf text extracted", "chars", len(text), "preview", Preview(text, e.previewChars))
	return text, ""
}

// OCRImage transcribes an image through the model API with a Portuguese
// language hint. Failures degrade to an empty transcript plus the error.
func (e *Extractor) OCRImage(ctx context.Context, data []byte, mimeType string) (string, error) {
	if e.client == nil {
		return "", fmt.Errorf("ocr indisponivel: modelo nao configurado")
	}
	p := prompt.Resolve(ctx, e.store, prompt.DefaultOCR, "ocr_imagem")
	out, err := e.client.Generate(ctx, ai.Request{
		Model:     e.ocrModel,
		Prompt:    p,
		ImageData: data,
		ImageMIME: mimeType,
		Purpose:   "ocr",
	})
	if err != nil {
		return "", fmt.Errorf("ocr: %w", err)
	}
	e.log.Debug("ocr transcript acquired", "chars", len(out), "preview", Preview(out, e.previewChars))
	return out, nil
}

// Preview returns a single-line bounded prefix of text for diagnostics.
func Preview(text string, max int) string {
	flat := strings.Join(strings.Fields(text), " ")
	if len(flat) > max {
		return flat[:max] + "..."
	}
	return flat
}
