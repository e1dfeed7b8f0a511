// Package notify defines the outbound notification contract for scheduling
// outcomes. Implementations live under infra/notify.
package notify

import (
	"context"

	"github.com/4Lajf/grafikonator-6000/core/events"
	"github.com/4Lajf/grafikonator-6000/internal/eventbus"
)

// Publisher pushes scheduling outcomes to an external channel.
type Publisher interface {
	PublishAssignment(ctx context.Context, ev events.AssignmentEvent) error
	PublishAssignmentFailed(ctx context.Context, ev events.AssignmentFailedEvent) error
	PublishBatchCompleted(ctx context.Context, ev events.BatchCompletedEvent) error
	Close() error
}

// NopPublisher discards all notifications.
type NopPublisher struct{}

func (NopPublisher) PublishAssignment(context.Context, events.AssignmentEvent) error { return nil }
func (NopPublisher) PublishAssignmentFailed(context.Context, events.AssignmentFailedEvent) error {
	return nil
}
func (NopPublisher) PublishBatchCompleted(context.Context, events.BatchCompletedEvent) error {
	return nil
}
func (NopPublisher) Close() error { return nil }

// Forward drains the bus into the publisher until the context is cancelled
// or the bus closes. Publish errors are reported through report and do not
// stop the loop.
func Forward(ctx context.Context, bus eventbus.EventBus, pub Publisher, report func(error)) {
	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			var err error
			switch e := ev.(type) {
			case events.AssignmentEvent:
				err = pub.PublishAssignment(ctx, e)
			case events.AssignmentFailedEvent:
				err = pub.PublishAssignmentFailed(ctx, e)
			case events.BatchCompletedEvent:
				err = pub.PublishBatchCompleted(ctx, e)
			}
			if err != nil && report != nil {
				report(err)
			}
		}
	}
}
