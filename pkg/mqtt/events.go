package mqtt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/google/uuid"
)

const requestTimeout = 10 * time.Second

// Publisher is the publishing side of the communicator
type Publisher interface {
	Publish(topic string, payload any) error
}

// Responder registers request handlers
type Responder interface {
	On(requestTopic string, callback RequestHandler)
}

// EventMessage is the payload of a moderation event. ID lets consumers drop
// duplicates.
type EventMessage struct {
	ID string `json:"id"`
	moderation.Event
}

// EventTopic returns <prefix>/moderation/<guildId>/<kind>
func EventTopic(prefix, guildID string, kind moderation.EventKind) string {
	return fmt.Sprintf("%s/moderation/%s/%s", prefix, guildID, kind)
}

// EventPublisher forwards moderation events to the broker
type EventPublisher struct {
	pub    Publisher
	prefix string
}

// NewEventPublisher creates an EventPublisher
func NewEventPublisher(pub Publisher, prefix string) *EventPublisher {
	if prefix == "" {
		prefix = "pancy"
	}
	return &EventPublisher{pub: pub, prefix: prefix}
}

// Publish implements moderation.EventSink. Failures are logged.
func (p *EventPublisher) Publish(_ context.Context, e moderation.Event) {
	if p == nil || p.pub == nil {
		return
	}
	topic := EventTopic(p.prefix, e.GuildID, e.Kind)
	if err := p.pub.Publish(topic, EventMessage{ID: uuid.NewString(), Event: e}); err != nil {
		logger.Warn(fmt.Sprintf("No se pudo publicar %s: %v", topic, err), "MQTT")
	}
}

// SummaryProvider answers moderation state queries
type SummaryProvider interface {
	Summary(ctx context.Context, guildID string) (*moderation.Summary, error)
	ActiveMutes(ctx context.Context, guildID string) ([]moderation.MuteEntry, error)
}

var errMissingGuild = errors.New("guildId es obligatorio")

func guildIDFrom(payload map[string]any) (string, error) {
	id, _ := payload["guildId"].(string)
	if id == "" {
		return "", errMissingGuild
	}
	return id, nil
}

// RegisterHandlers answers guild.moderation and guild.mutes requests
func RegisterHandlers(r Responder, svc SummaryProvider) {
	r.On("guild.moderation", func(payload map[string]any) (any, error) {
		guildID, err := guildIDFrom(payload)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return svc.Summary(ctx, guildID)
	})

	r.On("guild.mutes", func(payload map[string]any) (any, error) {
		guildID, err := guildIDFrom(payload)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return svc.ActiveMutes(ctx, guildID)
	})
}
