// Package pipeline drives a digitization job: for every input file it
// resolves the real payload, acquires a transcript, classifies the writing,
// extracts a normalized record and filters it, then aggregates the job's
// result set.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cartoriolabs/acervo-digital/constants"
	"github.com/cartoriolabs/acervo-digital/internal/batch"
	"github.com/cartoriolabs/acervo-digital/internal/common"
	"github.com/cartoriolabs/acervo-digital/internal/entity"
	"github.com/cartoriolabs/acervo-digital/internal/envelope"
	"github.com/cartoriolabs/acervo-digital/internal/evidence"
	"github.com/cartoriolabs/acervo-digital/internal/extract"
	"github.com/cartoriolabs/acervo-digital/internal/job"
	"github.com/cartoriolabs/acervo-digital/internal/metrics"
	"github.com/cartoriolabs/acervo-digital/internal/sniff"
	"github.com/cartoriolabs/acervo-digital/internal/textract"
)

// Processor coordinates the per-file stages for a job. Files within one job
// run strictly sequentially; distinct jobs share nothing but the queue.
type Processor struct {
	mgr        *job.Manager
	texts      *textract.Extractor
	classifier *extract.Classifier
	extractor  *extract.Extractor
	filter     *evidence.Filter
	metrics    *metrics.Metrics
	cfg        common.PipelineConfig
	log        *slog.Logger
}

func NewProcessor(
	mgr *job.Manager,
	texts *textract.Extractor,
	classifier *extract.Classifier,
	extractor *extract.Extractor,
	filter *evidence.Filter,
	m *metrics.Metrics,
	cfg common.PipelineConfig,
	log *slog.Logger,
) *Processor {
	if log == nil {
		log = slog.Default()
	}
	return &Processor{
		mgr:        mgr,
		texts:      texts,
		classifier: classifier,
		extractor:  extractor,
		filter:     filter,
		metrics:    m,
		cfg:        cfg,
		log:        log,
	}
}

// Run executes one job end to end. Per-file failures are logged as warnings
// and skipped; only errors outside the per-file scope fail the whole job.
func (p *Processor) Run(ctx context.Context, jobID string) {
	inputs, err := p.mgr.GetInputs(jobID)
	if err != nil {
		p.failJob(jobID, fmt.Sprintf("leitura das entradas do job falhou: %v", err))
		return
	}
	if err := p.mgr.Start(jobID); err != nil {
		p.log.Error("transicao para running falhou", "job_id", jobID, "err", err)
		return
	}
	p.mgr.Append(jobID, constants.LogTitle,
		fmt.Sprintf("Digitalizacao de %s iniciada", strings.ToLower(string(inputs.Params.TipoRegistro))))
	p.mgr.SetProgress(jobID, 5)

	files, err := p.enumerate(inputs)
	if err != nil {
		p.failJob(jobID, err.Error())
		return
	}
	if len(files) == 0 {
		p.mgr.Append(jobID, constants.LogWarning, "nenhum arquivo encontrado para processar")
	}

	// files paired with a signed envelope never run on their own, regardless
	// of enumeration order
	skip := make(map[string]bool)
	for _, f := range files {
		if constants.IsEnvelopeExt(filepath.Ext(f)) {
			if sib, ok := envelope.FindSibling(f, files); ok {
				skip[sib] = true
			}
		}
	}

	var registros []entity.Registro

	for i, path := range files {
		if p.mgr.CancelRequested(jobID) {
			p.mgr.Append(jobID, constants.LogWarning,
				fmt.Sprintf("cancelamento solicitado; %d arquivo(s) restantes ignorados", len(files)-i))
			p.failJob(jobID, "processamento cancelado")
			return
		}
		if skip[path] {
			p.mgr.Append(jobID, constants.LogInfo,
				fmt.Sprintf("%s pareado com um envelope assinado; nao processado isoladamente", filepath.Base(path)))
			continue
		}

		reg, err := p.processFile(ctx, jobID, path, files, inputs.Params)
		if err != nil {
			p.metrics.File("failed")
			p.mgr.Append(jobID, constants.LogWarning,
				fmt.Sprintf("%s: %v", filepath.Base(path), err))
		} else if reg != nil {
			p.metrics.File("ok")
			p.metrics.Record(string(reg.TipoRegistro))
			registros = append(registros, *reg)
			p.mgr.Append(jobID, constants.LogSuccess,
				fmt.Sprintf("%s: registro extraido", filepath.Base(path)))
		}
		p.mgr.SetProgress(jobID, 5+90*(i+1)/len(files))
	}

	ordered := batch.Ordenar(registros, inputs.Params.InclusoesPrimeiro)
	result := &job.Result{
		Params:     inputs.Params,
		Registros:  ordered,
		Total:      len(ordered),
		FinishedAt: time.Now().UTC(),
	}
	if err := p.mgr.SaveResult(jobID, result); err != nil {
		p.failJob(jobID, fmt.Sprintf("gravacao do resultado falhou: %v", err))
		return
	}
	if err := p.mgr.Finish(jobID); err != nil {
		p.log.Error("transicao para done falhou", "job_id", jobID, "err", err)
		return
	}
	p.metrics.Job("done")
	p.mgr.Append(jobID, constants.LogSuccess,
		fmt.Sprintf("processamento concluido: %d registro(s) de %d arquivo(s)", len(ordered), len(files)))
}

func (p *Processor) failJob(jobID, message string) {
	p.metrics.Job("failed")
	if err := p.mgr.Fail(jobID, message); err != nil {
		p.log.Error("transicao para failed falhou", "job_id", jobID, "err", err)
	}
}

// enumerate resolves the job's file list from either the validated folder
// or the uploaded temp files.
func (p *Processor) enumerate(inputs *job.Inputs) ([]string, error) {
	if len(inputs.Arquivos) > 0 {
		out := append([]string(nil), inputs.Arquivos...)
		sort.Strings(out)
		return out, nil
	}
	if inputs.Pasta == "" {
		return nil, errors.New("job sem pasta e sem arquivos")
	}
	entries, err := os.ReadDir(inputs.Pasta)
	if err != nil {
		return nil, fmt.Errorf("leitura da pasta falhou: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if constants.IsContentExt(ext) || constants.IsEnvelopeExt(ext) {
			out = append(out, filepath.Join(inputs.Pasta, e.Name()))
		}
	}
	return out, nil
}

// processFile runs the classification → extraction sequence for one file.
// A nil record with nil error means the file produced nothing usable.
func (p *Processor) processFile(ctx context.Context, jobID, path string, all []string, params job.Params) (*entity.Registro, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("leitura do arquivo falhou: %w", err)
	}

	res := sniff.DetectWithName(data, path)
	sourceFiles := []string{filepath.Base(path)}

	if res.Type == constants.ENVELOPE {
		payload, uerr := envelope.Unwrap(data)
		switch {
		case uerr == nil:
			data = payload
			res = sniff.Detect(data)
			p.mgr.Append(jobID, constants.LogInfo,
				fmt.Sprintf("%s: conteudo embutido recuperado (%s)", filepath.Base(path), res.Type))
		case errors.Is(uerr, envelope.ErrNoEmbeddedContent):
			sibling, ok := envelope.FindSibling(path, all)
			if !ok {
				return nil, errors.New("assinatura destacada sem conteudo embutido e sem arquivo irmao")
			}
			p.mgr.Append(jobID, constants.LogInfo,
				fmt.Sprintf("%s: assinatura destacada pareada com %s", filepath.Base(path), filepath.Base(sibling)))
			data, err = os.ReadFile(sibling)
			if err != nil {
				return nil, fmt.Errorf("leitura do arquivo irmao falhou: %w", err)
			}
			res = sniff.Detect(data)
			sourceFiles = append(sourceFiles, filepath.Base(sibling))
		default:
			return nil, fmt.Errorf("extracao do envelope assinado falhou: %w", uerr)
		}
	}

	var (
		texto   string
		imagem  []byte
		mime    string
		escrita constants.TipoEscrita
	)

	switch res.Type {
	case constants.PDF:
		var warning string
		texto, warning = p.texts.PDFText(data)
		if warning != "" {
			p.mgr.Append(jobID, constants.LogWarning,
				fmt.Sprintf("%s: %s", filepath.Base(path), warning))
		}
		escrita = constants.Digitado
		if texto != "" {
			cls := p.classifier.Classify(ctx, texto, nil, "")
			escrita = cls.Tipo
		}
	case constants.IMAGE:
		mime = sniff.MIMEType(res)
		cls := p.classifier.Classify(ctx, "", data, mime)
		escrita = cls.Tipo
		if escrita == constants.Manuscrito {
			// handwritten books go straight to the image-based extractor
			imagem = data
		} else {
			texto, err = p.texts.OCRImage(ctx, data, mime)
			if err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("tipo de conteudo nao suportado: %s", res.Type)
	}

	if texto == "" && imagem == nil {
		return nil, errors.New("nenhum texto disponivel para extracao")
	}

	reg := p.extractor.Extrair(ctx, extract.Input{
		Texto:      texto,
		Imagem:     imagem,
		ImagemMIME: mime,
		Tipo:       params.TipoRegistro,
		Escrita:    escrita,
	})

	if p.cfg.Strict && texto != "" {
		removed := p.filter.Apply(reg, texto)
		for _, name := range removed {
			p.mgr.Append(jobID, constants.LogWarning,
				fmt.Sprintf("%s: valor sem evidencia removido (%s)", filepath.Base(path), name))
		}
	}

	if len(reg.Campos) == 0 && len(reg.Filiacoes) == 0 {
		return nil, errors.New("nenhum dado extraido do documento")
	}

	if p.cfg.ForceInclusao {
		reg.TipoAto = constants.Inclusao
	}
	reg.Arquivos = sourceFiles
	return reg, nil
}

// ValidatePasta checks a submitted folder against the allow-list, rejecting
// traversal outside the permitted roots.
func ValidatePasta(pasta string, roots []string) (string, error) {
	if strings.TrimSpace(pasta) == "" {
		return "", common.NewAppError("PASTA_INVALIDA", "pasta e obrigatoria", common.ErrInvalidInput)
	}
	abs, err := filepath.Abs(filepath.Clean(pasta))
	if err != nil {
		return "", common.NewAppError("PASTA_INVALIDA", "pasta invalida", common.ErrInvalidInput)
	}
	for _, root := range roots {
		rootAbs, err := filepath.Abs(filepath.Clean(root))
		if err != nil {
			continue
		}
		if abs == rootAbs || strings.HasPrefix(abs, rootAbs+string(filepath.Separator)) {
			return abs, nil
		}
	}
	return "", common.NewAppError("PASTA_NAO_PERMITIDA",
		"pasta fora dos diretorios permitidos", common.ErrInvalidInput)
}
