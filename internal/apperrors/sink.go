package apperrors

import (
	"sync"

	"go.uber.org/zap"
)

// maxRecent bounds the recent-errors list used for toast display.
const maxRecent = 5

// Sink collects recently reported errors. It is owned by the application
// controller and handed to services explicitly; reads and writes are
// mutex-guarded because handlers run on separate goroutines.
type Sink struct {
	mu     sync.Mutex
	recent []*AppError
	logger *zap.Logger
}

// NewSink creates an error sink backed by the given logger.
func NewSink(logger *zap.Logger) *Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{logger: logger}
}

// Report records an error in the recent list, evicting the oldest entry once
// the list is full, and logs it.
func (s *Sink) Report(err *AppError) {
	if err == nil {
		return
	}

	s.logger.Error("application error",
		zap.String("error_id", err.ID),
		zap.String("kind", string(err.Kind)),
		zap.String("severity", string(err.Severity)),
		zap.String("code", err.Code),
		zap.Bool("retryable", err.Retryable),
		zap.String("message", err.Message),
	)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.recent = append(s.recent, err)
	if len(s.recent) > maxRecent {
		s.recent = s.recent[len(s.recent)-maxRecent:]
	}
}

// Recent returns a snapshot of the current error list, newest last.
func (s *Sink) Recent() []*AppError {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*AppError, len(s.recent))
	copy(out, s.recent)
	return out
}

// Dismiss removes the error with the given id, if present.
func (s *Sink) Dismiss(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.recent {
		if e.ID == id {
			s.recent = append(s.recent[:i], s.recent[i+1:]...)
			return
		}
	}
}

// Clear drops all recent errors.
func (s *Sink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recent = nil
}
