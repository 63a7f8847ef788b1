package realtime

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const projectChannelPrefix = "project:"

// Notifier publishes project-scoped events. With Redis configured, events go
// through a `project:<id>` channel so every instance's subscriber feeds its
// local hub; without Redis the local hub is fed directly. Publishing never
// blocks on subscriber delivery.
type Notifier struct {
	hub *Hub
	rdb *redis.Client
}

func NewNotifier(hub *Hub, rdb *redis.Client) *Notifier {
	return &Notifier{hub: hub, rdb: rdb}
}

// PublishProject sends a one-shot event to everyone joined to the project's
// room. Failures are logged, never surfaced: realtime delivery is
// fire-and-forget.
func (n *Notifier) PublishProject(ctx context.Context, projectID uuid.UUID, event string, data interface{}) {
	payload, err := json.Marshal(Event{Event: event, Data: data})
	if err != nil {
		log.Printf("Error marshaling %s event: %v", event, err)
		return
	}

	if n.rdb == nil {
		n.hub.SendRawToProject(projectID, payload)
		return
	}
	if err := n.rdb.Publish(ctx, projectChannelPrefix+projectID.String(), payload).Err(); err != nil {
		log.Printf("Redis publish failed for project %s: %v", projectID, err)
		n.hub.SendRawToProject(projectID, payload)
	}
}

// StartSubscriber subscribes to all project channels and replays incoming
// payloads into the local hub. Returns immediately; the pump runs until ctx
// is canceled.
func (n *Notifier) StartSubscriber(ctx context.Context) {
	if n.rdb == nil {
		return
	}
	sub := n.rdb.PSubscribe(ctx, projectChannelPrefix+"*")
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				projectID, err := uuid.Parse(strings.TrimPrefix(msg.Channel, projectChannelPrefix))
				if err != nil {
					continue
				}
				n.hub.SendRawToProject(projectID, []byte(msg.Payload))
			}
		}
	}()
}
