package service

import (
	"context"

	"github.com/gatherhub/gatherhub/pkg/queue"

	"github.com/sirupsen/logrus"
)

// TaskPublisher is the slice of the queue the services need. Side effects are
// enqueued through it; a publish failure degrades the effect, never the
// operation that requested it.
type TaskPublisher interface {
	Publish(ctx context.Context, task *queue.Task) error
}

type SideEffectStatus string

const (
	SideEffectSucceeded SideEffectStatus = "succeeded"
	SideEffectSkipped   SideEffectStatus = "skipped"
	SideEffectFailed    SideEffectStatus = "failed"
)

// SideEffectResult reports the outcome of one best-effort side effect of an
// operation. Failed effects carry the error text; the operation itself has
// already committed by the time these are produced.
type SideEffectResult struct {
	Name   string           `json:"name"`
	Status SideEffectStatus `json:"status"`
	Error  string           `json:"error,omitempty"`
}

// enqueue publishes a task and folds the outcome into a SideEffectResult.
// A nil publisher marks the effect skipped.
func enqueue(ctx context.Context, publisher TaskPublisher, name string, task *queue.Task) SideEffectResult {
	if publisher == nil {
		return SideEffectResult{Name: name, Status: SideEffectSkipped}
	}

	if err := publisher.Publish(ctx, task); err != nil {
		logrus.WithFields(logrus.Fields{
			"effect":    name,
			"task_type": string(task.Type),
		}).Warnf("Failed to publish side effect task: %v", err)
		return SideEffectResult{Name: name, Status: SideEffectFailed, Error: err.Error()}
	}

	return SideEffectResult{Name: name, Status: SideEffectSucceeded}
}
