// Package job owns the digitization job lifecycle: the three persisted
// documents (inputs, status, result), state transitions and the worker
// queue that runs submissions.
package job

import (
	"time"

	"github.com/cartoriolabs/acervo-digital/constants"
	"github.com/cartoriolabs/acervo-digital/internal/entity"
)

// LogEntry is one human-readable line in the job's status stream.
type LogEntry struct {
	Level   constants.LogLevel `json:"level"`
	Message string             `json:"message"`
	At      time.Time          `json:"at"`
}

// Params are the processing parameters a job was submitted with.
type Params struct {
	TipoRegistro      constants.TipoRegistro `json:"tipoRegistro"`
	Acao              constants.TipoAto      `json:"acao"`
	CNS               string                 `json:"cns,omitempty"` // registry-office identifier
	MaxPorArquivo     int                    `json:"maxPorArquivo"`
	InclusoesPrimeiro bool                   `json:"inclusoesPrimeiro"`
}

// Inputs freezes what a job will process. Either Pasta (a validated
// server-side folder) or Arquivos (uploaded temp files) is set.
type Inputs struct {
	Pasta    string   `json:"pasta,omitempty"`
	Arquivos []string `json:"arquivos,omitempty"`
	Params   Params   `json:"params"`
}

// Status is the mutable job snapshot polled by callers. Every mutation is
// persisted immediately.
type Status struct {
	ID              string              `json:"id"`
	Status          constants.JobStatus `json:"status"`
	Progress        int                 `json:"progress"`
	Messages        []LogEntry          `json:"messages"`
	CancelRequested bool                `json:"cancelRequested,omitempty"`
	Error           string              `json:"error,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

// Result is written once, at job completion.
type Result struct {
	Params     Params            `json:"params"`
	Registros  []entity.Registro `json:"registros"`
	Total      int               `json:"total"`
	FinishedAt time.Time         `json:"finishedAt"`
}
