package job

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cartoriolabs/acervo-digital/constants"
	"github.com/cartoriolabs/acervo-digital/internal/common"
)

// Manager owns job state. Each mutation is persisted before it returns, so
// a concurrent poll observes the latest snapshot. Distinct jobs never share
// a lock; the per-job handle serializes writers within one job.
type Manager struct {
	store *Store
	log   *slog.Logger

	mu      sync.Mutex
	handles map[string]*handle
}

type handle struct {
	mu     sync.Mutex
	status *Status
}

func NewManager(store *Store, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{store: store, log: log, handles: make(map[string]*handle)}
}

// Create registers a new queued job with its frozen inputs.
func (m *Manager) Create(in *Inputs) (*Status, error) {
	id := uuid.New().String()
	now := time.Now().UTC()
	st := &Status{
		ID:        id,
		Status:    constants.JobStatusQueued,
		Progress:  0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.store.SaveInputs(id, in); err != nil {
		return nil, common.WrapError(err, "persist job inputs")
	}
	if err := m.store.SaveStatus(st); err != nil {
		return nil, common.WrapError(err, "persist job status")
	}
	m.mu.Lock()
	m.handles[id] = &handle{status: st}
	m.mu.Unlock()
	m.log.Info("job criado", "job_id", id, "status", st.Status)
	return st, nil
}

func (m *Manager) handleFor(id string) (*handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.handles[id]
	return h, ok
}

// mutate applies fn under the job lock and persists the result.
func (m *Manager) mutate(id string, fn func(*Status)) error {
	h, ok := m.handleFor(id)
	if !ok {
		// job predates this process: reload from disk
		st, err := m.store.LoadStatus(id)
		if err != nil {
			return err
		}
		h = &handle{status: st}
		m.mu.Lock()
		m.handles[id] = h
		m.mu.Unlock()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	fn(h.status)
	h.status.UpdatedAt = time.Now().UTC()
	return m.store.SaveStatus(h.status)
}

// Append adds one log line to the job's status stream.
func (m *Manager) Append(id string, level constants.LogLevel, message string) {
	if err := m.mutate(id, func(st *Status) {
		st.Messages = append(st.Messages, LogEntry{Level: level, Message: message, At: time.Now().UTC()})
	}); err != nil {
		m.log.Error("persistencia de log do job falhou", "job_id", id, "err", err)
	}
}

// SetProgress raises the job's progress. Progress is monotonic within a
// run; a lower value is ignored.
func (m *Manager) SetProgress(id string, progress int) {
	if progress > 100 {
		progress = 100
	}
	if err := m.mutate(id, func(st *Status) {
		if progress > st.Progress {
			st.Progress = progress
		}
	}); err != nil {
		m.log.Error("persistencia de progresso do job falhou", "job_id", id, "err", err)
	}
}

// Start moves a queued job to running.
func (m *Manager) Start(id string) error {
	return m.mutate(id, func(st *Status) {
		st.Status = constants.JobStatusRunning
	})
}

// Finish marks the job done at 100%.
func (m *Manager) Finish(id string) error {
	return m.mutate(id, func(st *Status) {
		st.Status = constants.JobStatusDone
		st.Progress = 100
	})
}

// Fail marks the job failed and records the error message.
func (m *Manager) Fail(id string, message string) error {
	return m.mutate(id, func(st *Status) {
		st.Status = constants.JobStatusFailed
		st.Error = message
		st.Messages = append(st.Messages, LogEntry{Level: constants.LogError, Message: message, At: time.Now().UTC()})
	})
}

// RequestCancel flips the cooperative cancel flag. It only applies to jobs
// that are not already terminal.
func (m *Manager) RequestCancel(id string) error {
	return m.mutate(id, func(st *Status) {
		if !st.Status.Terminal() {
			st.CancelRequested = true
		}
	})
}

// CancelRequested reports the cooperative flag, checked at file boundaries.
func (m *Manager) CancelRequested(id string) bool {
	h, ok := m.handleFor(id)
	if !ok {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status.CancelRequested
}

// GetStatus returns a copy of the job's snapshot.
func (m *Manager) GetStatus(id string) (*Status, error) {
	h, ok := m.handleFor(id)
	if !ok {
		return m.store.LoadStatus(id)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	cp := *h.status
	cp.Messages = append([]LogEntry(nil), h.status.Messages...)
	return &cp, nil
}

// GetInputs loads a job's frozen inputs.
func (m *Manager) GetInputs(id string) (*Inputs, error) {
	return m.store.LoadInputs(id)
}

// SaveResult writes the job's final result document.
func (m *Manager) SaveResult(id string, res *Result) error {
	return m.store.SaveResult(id, res)
}

// GetResult loads the final result; ErrNotFound until the job is done.
func (m *Manager) GetResult(id string) (*Result, error) {
	return m.store.LoadResult(id)
}
