package consumers

import (
	"context"
	"fmt"
	"time"

	"github.com/JakeFAU/file2text/internal/progress"
)

// Publisher delivers a payload to a topic and returns the broker's message ID.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Notice event names.
const (
	EventCompleted = "completed"
	EventFailed    = "failed"
)

// Notice is the message a CompletionPublisher emits.
type Notice struct {
	OperationID string         `json:"operation_id"`
	Event       string         `json:"event"`
	Label       string         `json:"label"`
	Current     int            `json:"current"`
	Total       *int           `json:"total,omitempty"`
	Error       string         `json:"error,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	At          time.Time      `json:"at"`
}

// CompletionPublisher announces the end of an operation, and any ERROR update
// along the way, on a message bus. Plain progress is not published.
type CompletionPublisher struct {
	ctx         context.Context
	publisher   Publisher
	topic       string
	operationID string
}

// NewCompletionPublisher binds the consumer to ctx for all publish calls.
func NewCompletionPublisher(
	ctx context.Context,
	publisher Publisher,
	topic string,
	operationID string,
) *CompletionPublisher {
	return &CompletionPublisher{
		ctx:         ctx,
		publisher:   publisher,
		topic:       topic,
		operationID: operationID,
	}
}

// OnProgress implements progress.Consumer.
func (p *CompletionPublisher) OnProgress(u progress.Update) error {
	if u.Type != progress.Errored {
		return nil
	}
	notice := p.notice(EventFailed, u.State)
	if cause, ok := u.State.Metadata().Get("error"); ok {
		notice.Error = fmt.Sprint(cause)
	}
	return p.publish(notice)
}

// OnComplete implements progress.Consumer.
func (p *CompletionPublisher) OnComplete(s progress.State) error {
	return p.publish(p.notice(EventCompleted, s))
}

func (p *CompletionPublisher) notice(event string, s progress.State) Notice {
	return Notice{
		OperationID: p.operationID,
		Event:       event,
		Label:       s.Label(),
		Current:     s.Current(),
		Total:       totalPtr(s.Total()),
		Metadata:    s.Metadata().Map(),
		At:          s.Timestamp().Round(0),
	}
}

func (p *CompletionPublisher) publish(n Notice) error {
	if p.publisher == nil {
		return nil
	}
	if _, err := p.publisher.Publish(p.ctx, p.topic, n); err != nil {
		return fmt.Errorf("publish %s notice: %w", n.Event, err)
	}
	return nil
}

func totalPtr(t progress.Total) *int {
	n, ok := t.Value()
	if !ok {
		return nil
	}
	return &n
}
