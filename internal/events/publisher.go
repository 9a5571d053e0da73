// Package events provides in-process publishing of schedule change events.
package events

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mbakke/floorline/internal/models"
)

// EventHandler is a callback invoked when an event matches a subscription.
type EventHandler func(event *models.Event)

// Filter defines criteria for matching events.
type Filter struct {
	// EventTypes filters by event type (nil = all types).
	EventTypes []models.EventType

	// EntityTypes filters by entity type (nil = all entities).
	EntityTypes []models.EntityType

	// EntityID filters to a specific record (empty = all).
	EntityID string
}

// Matches returns true if the event matches the filter criteria.
func (f *Filter) Matches(event *models.Event) bool {
	if event == nil {
		return false
	}
	if len(f.EventTypes) > 0 {
		matched := false
		for _, t := range f.EventTypes {
			if event.Type == t {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if len(f.EntityTypes) > 0 {
		matched := false
		for _, t := range f.EntityTypes {
			if event.EntityType == t {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if f.EntityID != "" && event.EntityID != f.EntityID {
		return false
	}
	return true
}

type subscription struct {
	id      string
	filter  Filter
	handler EventHandler
}

// Repository persists published events; the db.EventRepository satisfies it.
type Repository interface {
	Append(ctx context.Context, event *models.Event) error
}

// Publisher defines event publishing and subscription.
type Publisher interface {
	// Publish sends an event to all matching subscribers.
	Publish(ctx context.Context, event *models.Event)

	// Subscribe registers a handler for events matching the filter.
	Subscribe(id string, filter Filter, handler EventHandler) error

	// Unsubscribe removes a subscription by ID.
	Unsubscribe(id string) error
}

// InMemoryPublisher implements Publisher using in-process pub/sub.
type InMemoryPublisher struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
	repo          Repository
	logger        zerolog.Logger
}

// PublisherOption configures an InMemoryPublisher.
type PublisherOption func(*InMemoryPublisher)

// WithRepository enables persisting every published event to the audit log.
func WithRepository(repo Repository) PublisherOption {
	return func(p *InMemoryPublisher) {
		p.repo = repo
	}
}

// WithLogger sets the publisher logger.
func WithLogger(logger zerolog.Logger) PublisherOption {
	return func(p *InMemoryPublisher) {
		p.logger = logger
	}
}

// NewPublisher creates a new InMemoryPublisher.
func NewPublisher(opts ...PublisherOption) *InMemoryPublisher {
	p := &InMemoryPublisher{
		subscriptions: make(map[string]*subscription),
		logger:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish sends an event to all matching subscribers and, when a repository
// is configured, appends it to the audit log. A failed append is logged but
// never blocks delivery.
func (p *InMemoryPublisher) Publish(ctx context.Context, event *models.Event) {
	if event == nil {
		return
	}
	if p.repo != nil {
		if err := p.repo.Append(ctx, event); err != nil {
			p.logger.Warn().Err(err).Str("type", string(event.Type)).Msg("failed to persist event")
		}
	}

	p.mu.RLock()
	matched := make([]*subscription, 0, len(p.subscriptions))
	for _, sub := range p.subscriptions {
		if sub.filter.Matches(event) {
			matched = append(matched, sub)
		}
	}
	p.mu.RUnlock()

	for _, sub := range matched {
		sub.handler(event)
	}
}

// Subscribe registers a handler. Subscribing twice with the same id replaces
// the previous subscription.
func (p *InMemoryPublisher) Subscribe(id string, filter Filter, handler EventHandler) error {
	if handler == nil {
		return ErrNilHandler
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscriptions[id] = &subscription{id: id, filter: filter, handler: handler}
	return nil
}

// Unsubscribe removes a subscription by ID.
func (p *InMemoryPublisher) Unsubscribe(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.subscriptions, id)
	return nil
}
