package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"varanasihub.com/site/internal/domain"
)

// AttributeSlug carries the changed profile's slug on each message.
const AttributeSlug = "slug"

// ProfileChanged is emitted by the wizard backend whenever a profile is
// created, edited, approved or removed.
type ProfileChanged struct {
	Slug      string    `json:"slug"`
	Status    string    `json:"status,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// Handler reacts to a profile change.
type Handler func(ctx context.Context, event ProfileChanged) error

// receiver is the subset of *pubsub.Subscription used here.
type receiver interface {
	Receive(ctx context.Context, f func(context.Context, *pubsub.Message)) error
}

// ProfileSubscriber consumes profile-change messages.
type ProfileSubscriber struct {
	sub    receiver
	logger *zap.Logger
}

// NewProfileSubscriber binds to an existing subscription.
func NewProfileSubscriber(sub *pubsub.Subscription, logger *zap.Logger) (*ProfileSubscriber, error) {
	if sub == nil {
		return nil, errors.New("events: subscription is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileSubscriber{sub: sub, logger: logger}, nil
}

// Run blocks, dispatching messages to handle until ctx is cancelled.
// Malformed messages are acked and dropped; handler failures are nacked so
// they are redelivered.
func (s *ProfileSubscriber) Run(ctx context.Context, handle Handler) error {
	err := s.sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		event, ok := decode(msg)
		if !ok {
			s.logger.Warn("events: dropping message without valid slug", zap.String("message_id", msg.ID))
			msg.Ack()
			return
		}
		if err := handle(ctx, event); err != nil {
			s.logger.Error("events: profile change handler failed", zap.String("slug", event.Slug), zap.Error(err))
			msg.Nack()
			return
		}
		msg.Ack()
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func decode(msg *pubsub.Message) (ProfileChanged, bool) {
	var event ProfileChanged
	if len(msg.Data) > 0 {
		_ = json.Unmarshal(msg.Data, &event)
	}
	if attr := strings.TrimSpace(msg.Attributes[AttributeSlug]); attr != "" {
		event.Slug = attr
	}
	slug, err := domain.ParseSlug(event.Slug)
	if err != nil {
		return ProfileChanged{}, false
	}
	event.Slug = slug
	return event, true
}
