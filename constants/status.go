package constants

// JobStatus is the lifecycle state of a digitization job.
type JobStatus string

// Stable values (stored verbatim in the job status document).
const (
	JobStatusQueued  JobStatus = "QUEUED"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusDone    JobStatus = "DONE"
	JobStatusFailed  JobStatus = "FAILED"
)

// Terminal reports whether no further transitions are allowed from s.
func (s JobStatus) Terminal() bool {
	return s == JobStatusDone || s == JobStatusFailed
}

// LogLevel tags a job log message for the status stream.
type LogLevel string

const (
	LogTitle   LogLevel = "title"
	LogInfo    LogLevel = "info"
	LogSuccess LogLevel = "success"
	LogWarning LogLevel = "warning"
	LogError   LogLevel = "error"
)
