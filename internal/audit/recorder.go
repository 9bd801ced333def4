package audit

import "context"

// Logger is the logging interface used by Recorder.
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// Recorder writes entries on behalf of services that must not fail when
// the trail cannot be written. A nil *Recorder records nothing.
type Recorder struct {
	repo   Repository
	logger Logger
}

// NewRecorder creates a Recorder over repo.
func NewRecorder(repo Repository, logger Logger) *Recorder {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Recorder{repo: repo, logger: logger}
}

// Record writes e, logging instead of returning any failure.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	if r == nil || r.repo == nil {
		return
	}
	if err := r.repo.Create(ctx, &e); err != nil {
		r.logger.Warn("audit write failed", "action", e.Action, "entity_id", e.EntityID, "error", err)
	}
}
