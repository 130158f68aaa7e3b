package testsupport

import (
	"context"
	"sync"

	"github.com/jnst/store-backoffice/internal/model"
)

// Publisher is a scripted messaging.Publisher. Each Publish consumes the next
// scripted error; once the script is empty publishes succeed.
type Publisher struct {
	mu        sync.Mutex
	script    []error
	always    error
	published []model.OutboxEvent
	attempts  int
}

// NewPublisher creates a publisher that fails with the given errors in order.
func NewPublisher(script ...error) *Publisher {
	return &Publisher{script: script}
}

// FailAlways makes every publish fail with err; nil returns to the script.
func (p *Publisher) FailAlways(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.always = err
}

// Publish implements messaging.Publisher.
func (p *Publisher) Publish(_ context.Context, event *model.OutboxEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.attempts++

	if p.always != nil {
		return p.always
	}

	if len(p.script) > 0 {
		err := p.script[0]
		p.script = p.script[1:]

		if err != nil {
			return err
		}
	}

	p.published = append(p.published, *event)

	return nil
}

// Close implements messaging.Publisher.
func (*Publisher) Close() error { return nil }

// Published returns the successfully published events.
func (p *Publisher) Published() []model.OutboxEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]model.OutboxEvent, len(p.published))
	copy(out, p.published)

	return out
}

// Attempts returns the number of Publish calls.
func (p *Publisher) Attempts() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.attempts
}
