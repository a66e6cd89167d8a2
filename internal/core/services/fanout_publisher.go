package services

import (
	"context"
	"errors"

	"github.com/lorrc/sla-sentinel/internal/core/domain"
	"github.com/lorrc/sla-sentinel/internal/core/ports"
)

// FanoutPublisher delivers each output event to every configured sink
// (message bus, live stream, ...). Sink failures are collected, not
// short-circuited, so one slow collaborator cannot starve the others.
type FanoutPublisher struct {
	sinks []ports.EventPublisher
}

var _ ports.EventPublisher = (*FanoutPublisher)(nil)

// NewFanoutPublisher creates a publisher that fans out to all sinks.
func NewFanoutPublisher(sinks ...ports.EventPublisher) *FanoutPublisher {
	return &FanoutPublisher{sinks: sinks}
}

// Publish sends the event to every sink and joins any errors.
func (p *FanoutPublisher) Publish(ctx context.Context, event domain.OutputEvent) error {
	var errs []error
	for _, sink := range p.sinks {
		if err := sink.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
