package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/previmed/registro/internal/shared/events"
	"github.com/previmed/registro/internal/shared/metrics"
	"github.com/previmed/registro/internal/shared/types"
)

// Subscriber turns domain events into audit entries
type Subscriber struct {
	repo Repository
	bus  events.EventBus
}

func NewSubscriber(repo Repository, bus events.EventBus) *Subscriber {
	return &Subscriber{repo: repo, bus: bus}
}

// Start subscribes to every domain event family the registry emits
func (s *Subscriber) Start(ctx context.Context) error {
	patterns := []string{
		"incident.*",
		"patient.*",
		"subscription.*",
	}

	for _, pattern := range patterns {
		if err := s.bus.Subscribe(ctx, pattern, s.handleEvent); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", pattern, err)
		}
	}
	return nil
}

func (s *Subscriber) handleEvent(ctx context.Context, event events.Event) error {
	entry := s.eventToEntry(event)
	if entry == nil {
		return nil
	}

	if err := s.repo.Append(ctx, entry); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	metrics.RecordAuditEntry()
	return nil
}

// eventToEntry converts a domain event to an unsealed audit entry.
// Sequence, prev_hash and the final hash are assigned by Append.
func (s *Subscriber) eventToEntry(event events.Event) *Entry {
	parts := strings.SplitN(event.Type, ".", 2)
	if len(parts) < 2 {
		return nil
	}
	resourceType := parts[0]

	var resourceID string
	var changes map[string]any
	if data, ok := event.Data.(map[string]any); ok {
		changes = data
		for _, field := range []string{resourceType + "_id", "registration_number", "commerce_order", "id"} {
			if v, ok := data[field]; ok {
				if str, ok := v.(string); ok {
					resourceID = str
					break
				}
			}
		}
	}

	actorType := ActorTypeSystem
	switch event.ActorType {
	case "medical_center":
		actorType = ActorTypeCenter
	case "payment_provider":
		actorType = ActorTypeProvider
	}

	return &Entry{
		ID:           types.NewID(),
		Timestamp:    event.Timestamp.UTC().Truncate(time.Microsecond),
		ActorType:    actorType,
		ActorEmail:   event.ActorEmail,
		Action:       event.Type,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Changes:      changes,
	}
}
