package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cartoriolabs/acervo-digital/constants"
	"github.com/cartoriolabs/acervo-digital/internal/common"
	"github.com/cartoriolabs/acervo-digital/internal/job"
	"github.com/cartoriolabs/acervo-digital/internal/pipeline"
)

const maxUploadBytes = 256 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createJobRequest struct {
	Pasta             string `json:"pasta"`
	TipoRegistro      string `json:"tipoRegistro"`
	Acao              string `json:"acao"`
	CNS               string `json:"cns"`
	MaxPorArquivo     int    `json:"maxPorArquivo"`
	InclusoesPrimeiro *bool  `json:"inclusoesPrimeiro"`
}

// handleCreateJob accepts either a JSON body naming a server-side folder or
// a multipart upload carrying the documents themselves.
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var (
		inputs *job.Inputs
		err    error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		inputs, err = s.inputsFromUpload(r)
	} else {
		inputs, err = s.inputsFromJSON(r)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	st, err := s.mgr.Create(inputs)
	if err != nil {
		writeError(w, err)
		return
	}
	s.log.Info("job submetido",
		"job_id", st.ID,
		"tipo", inputs.Params.TipoRegistro,
		"user", UserFrom(r.Context()),
	)
	s.queue.Enqueue(st.ID)
	writeJSON(w, http.StatusAccepted, st)
}

func (s *Server) inputsFromJSON(r *http.Request) (*job.Inputs, error) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, common.NewAppError("CORPO_INVALIDO", "JSON invalido", common.ErrInvalidInput)
	}
	params, err := s.buildParams(req.TipoRegistro, req.Acao, req.CNS, req.MaxPorArquivo, req.InclusoesPrimeiro)
	if err != nil {
		return nil, err
	}
	pasta, err := pipeline.ValidatePasta(req.Pasta, s.cfg.Pipeline.AllowedRoots)
	if err != nil {
		return nil, err
	}
	return &job.Inputs{Pasta: pasta, Params: params}, nil
}

func (s *Server) inputsFromUpload(r *http.Request) (*job.Inputs, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, common.NewAppError("UPLOAD_INVALIDO", "formulario multipart invalido", common.ErrInvalidInput)
	}
	maxPorArquivo, _ := strconv.Atoi(r.FormValue("maxPorArquivo"))
	var inclusoesPrimeiro *bool
	if v := r.FormValue("inclusoesPrimeiro"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, common.NewAppError("PARAMETRO_INVALIDO", "inclusoesPrimeiro invalido", common.ErrInvalidInput)
		}
		inclusoesPrimeiro = &b
	}
	params, err := s.buildParams(r.FormValue("tipoRegistro"), r.FormValue("acao"), r.FormValue("cns"), maxPorArquivo, inclusoesPrimeiro)
	if err != nil {
		return nil, err
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		return nil, common.NewAppError("SEM_ARQUIVOS", "nenhum arquivo enviado", common.ErrInvalidInput)
	}
	dir, err := os.MkdirTemp(filepath.Join(s.cfg.Pipeline.DataDir, "uploads"), "job-*")
	if err != nil {
		if mkErr := os.MkdirAll(filepath.Join(s.cfg.Pipeline.DataDir, "uploads"), 0o755); mkErr == nil {
			dir, err = os.MkdirTemp(filepath.Join(s.cfg.Pipeline.DataDir, "uploads"), "job-*")
		}
		if err != nil {
			return nil, common.WrapError(err, "criacao do diretorio de upload")
		}
	}

	var paths []string
	for _, fh := range files {
		name := filepath.Base(fh.Filename)
		ext := filepath.Ext(name)
		if !constants.IsContentExt(ext) && !constants.IsEnvelopeExt(ext) {
			return nil, common.NewAppError("EXTENSAO_INVALIDA",
				fmt.Sprintf("extensao nao suportada: %s", name), common.ErrInvalidInput)
		}
		dst := filepath.Join(dir, name)
		if err := saveUpload(fh, dst); err != nil {
			return nil, common.WrapError(err, "gravacao do upload")
		}
		paths = append(paths, dst)
	}
	return &job.Inputs{Arquivos: paths, Params: params}, nil
}

func saveUpload(fh *multipart.FileHeader, dst string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, src)
	return err
}

func (s *Server) buildParams(tipo, acao, cns string, maxPorArquivo int, inclusoesPrimeiro *bool) (job.Params, error) {
	tr := constants.TipoRegistro(strings.ToUpper(strings.TrimSpace(tipo)))
	if _, ok := constants.Vocabulario[tr]; !ok {
		return job.Params{}, common.NewAppError("TIPO_INVALIDO",
			"tipoRegistro deve ser NASCIMENTO, CASAMENTO ou OBITO", common.ErrInvalidInput)
	}
	ta := constants.TipoAto(strings.ToUpper(strings.TrimSpace(acao)))
	switch ta {
	case "":
		ta = constants.Inclusao
	case constants.Inclusao, constants.Alteracao:
	default:
		return job.Params{}, common.NewAppError("ACAO_INVALIDA",
			"acao deve ser INCLUSAO ou ALTERACAO", common.ErrInvalidInput)
	}
	if maxPorArquivo < 0 {
		return job.Params{}, common.NewAppError("PARAMETRO_INVALIDO",
			"maxPorArquivo nao pode ser negativo", common.ErrInvalidInput)
	}
	if maxPorArquivo == 0 {
		maxPorArquivo = s.cfg.Pipeline.ChunkSize
	}
	first := s.cfg.Pipeline.InclusoesPrimeiro
	if inclusoesPrimeiro != nil {
		first = *inclusoesPrimeiro
	}
	return job.Params{
		TipoRegistro:      tr,
		Acao:              ta,
		CNS:               strings.TrimSpace(cns),
		MaxPorArquivo:     maxPorArquivo,
		InclusoesPrimeiro: first,
	}, nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.mgr.GetStatus(chi.URLParam(r, "jobID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")
	res, err := s.mgr.GetResult(id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// distinguish "no such job" from "not finished yet"
			if st, stErr := s.mgr.GetStatus(id); stErr == nil && !st.Status.Terminal() {
				writeError(w, common.NewAppError("JOB_EM_ANDAMENTO",
					"resultado disponivel apenas apos a conclusao", common.ErrConflict))
				return
			}
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")
	if err := s.mgr.RequestCancel(id); err != nil {
		writeError(w, err)
		return
	}
	s.log.Info("cancelamento solicitado", "job_id", id, "user", UserFrom(r.Context()))
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "cancel requested"})
}

type processRequest struct {
	MaxPorArquivo     int    `json:"maxPorArquivo"`
	InclusoesPrimeiro *bool  `json:"inclusoesPrimeiro"`
	Acao              string `json:"acao"`
	UsarIA            bool   `json:"usarIA"`
}

type cargaFileResponse struct {
	Nome     string `json:"nome"`
	Conteudo string `json:"conteudo"`
}

// handleProcess generates the XML load for a finished job.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")
	var req processRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, common.NewAppError("CORPO_INVALIDO", "JSON invalido", common.ErrInvalidInput))
			return
		}
	}
	var acao constants.TipoAto
	switch strings.ToUpper(strings.TrimSpace(req.Acao)) {
	case "":
	case string(constants.Inclusao):
		acao = constants.Inclusao
	case string(constants.Alteracao):
		acao = constants.Alteracao
	default:
		writeError(w, common.NewAppError("ACAO_INVALIDA",
			"acao deve ser INCLUSAO ou ALTERACAO", common.ErrInvalidInput))
		return
	}

	files, err := s.carga.Generate(r.Context(), id, pipeline.CargaOptions{
		MaxPorArquivo:     req.MaxPorArquivo,
		InclusoesPrimeiro: req.InclusoesPrimeiro,
		Acao:              acao,
		UsarIA:            req.UsarIA,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]cargaFileResponse, 0, len(files))
	for _, f := range files {
		out = append(out, cargaFileResponse{Nome: f.Name, Conteudo: string(f.Content)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"arquivos": out})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")
	res, err := s.mgr.GetResult(id)
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := s.export.RegistrosXLSX(res.Params.TipoRegistro, res.Registros)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="registros_%s.xlsx"`, id))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := common.HTTPStatus(err)
	code := "INTERNAL"
	message := err.Error()
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		code = appErr.Code
		message = appErr.Message
	}
	writeJSON(w, status, map[string]string{"code": code, "error": message})
}
