package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cartoriolabs/acervo-digital/constants"
	"github.com/cartoriolabs/acervo-digital/internal/batch"
	"github.com/cartoriolabs/acervo-digital/internal/common"
	"github.com/cartoriolabs/acervo-digital/internal/job"
	"github.com/cartoriolabs/acervo-digital/internal/xmlout"
)

// CargaOptions override the job's stored parameters at generation time.
type CargaOptions struct {
	MaxPorArquivo     int
	InclusoesPrimeiro *bool
	Acao              constants.TipoAto
	UsarIA            bool
}

// CargaFile is one generated XML document plus its deterministic name.
type CargaFile struct {
	Name    string `json:"name"`
	Content []byte `json:"content"`
}

// Carga turns a finished job's records into the chunked XML load files.
type Carga struct {
	Mgr *job.Manager
	Det *xmlout.Serializer
	IA  *xmlout.IASerializer
	Log *slog.Logger
}

// Generate loads the job result, reorders and chunks it, then serializes
// every chunk. The model-backed path applies only when requested and wired.
func (c *Carga) Generate(ctx context.Context, jobID string, opts CargaOptions) ([]CargaFile, error) {
	st, err := c.Mgr.GetStatus(jobID)
	if err != nil {
		return nil, err
	}
	if st.Status != constants.JobStatusDone {
		return nil, common.NewAppError("JOB_NAO_CONCLUIDO",
			fmt.Sprintf("job em estado %s; carga exige done", st.Status), common.ErrConflict)
	}
	res, err := c.Mgr.GetResult(jobID)
	if err != nil {
		return nil, err
	}
	if res.Total == 0 {
		return nil, common.NewAppError("SEM_REGISTROS",
			"job concluido sem registros extraidos", common.ErrInvalidInput)
	}

	acao := res.Params.Acao
	if opts.Acao != "" {
		acao = opts.Acao
	}
	if acao == "" {
		acao = constants.Inclusao
	}
	maxPorArquivo := res.Params.MaxPorArquivo
	if opts.MaxPorArquivo > 0 {
		maxPorArquivo = opts.MaxPorArquivo
	}
	inclusoesPrimeiro := res.Params.InclusoesPrimeiro
	if opts.InclusoesPrimeiro != nil {
		inclusoesPrimeiro = *opts.InclusoesPrimeiro
	}

	registros := batch.Ordenar(res.Registros, inclusoesPrimeiro)
	chunks := batch.Dividir(registros, maxPorArquivo)
	tipo := res.Params.TipoRegistro

	// the job's CNS wins over the serializer default
	det := *c.Det
	if res.Params.CNS != "" {
		det.CNS = res.Params.CNS
	}
	ia := c.IA
	if ia != nil {
		cp := *ia
		cp.Det = &det
		ia = &cp
	}

	files := make([]CargaFile, 0, len(chunks))
	for i, chunk := range chunks {
		var doc []byte
		if opts.UsarIA && ia != nil {
			doc, err = ia.Document(ctx, chunk, tipo, acao)
		} else {
			doc, err = det.Document(chunk, tipo, acao)
		}
		if err != nil {
			return nil, fmt.Errorf("serializacao do lote %d falhou: %w", i+1, err)
		}
		files = append(files, CargaFile{
			Name:    xmlout.FileName(tipo, acao, jobID, i, len(chunks)),
			Content: doc,
		})
	}
	if c.Log != nil {
		c.Log.Info("carga gerada",
			"job_id", jobID, "arquivos", len(files), "registros", len(registros), "acao", acao)
	}
	return files, nil
}
