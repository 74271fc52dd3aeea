package pipeline

import (
	"context"
	"time"

	"github.com/promptforge/promptforge/internal/stage"
)

// StageEvent is the record flushed after each completed stage, so a human
// can see where a multi-minute run stopped.
type StageEvent struct {
	RunID  string
	Seq    int
	Stage  string
	Phase  stage.Phase
	Output string
	At     time.Time
}

// Sink receives stage results as they complete. It is an external
// collaborator; the Runner flushes to it before moving to the next stage.
type Sink interface {
	StageCompleted(ctx context.Context, ev StageEvent) error
}

type nopSink struct{}

func (nopSink) StageCompleted(context.Context, StageEvent) error { return nil }

// NopSink returns a Sink that discards events.
func NopSink() Sink { return nopSink{} }
