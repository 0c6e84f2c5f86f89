package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeAssigned      Type = "walk.assigned"
	TypeStatusChanged Type = "walk.status_changed"
	TypeEmergency     Type = "walk.emergency"
	TypeLocation      Type = "walk.location"
	TypePhoto         Type = "walk.photo"
	TypeGeofenceExit  Type = "walk.geofence_exit"
)

// Event is the envelope shared by the websocket feed and the Kafka topic.
type Event struct {
	ID         string          `json:"id"`
	Type       Type            `json:"type"`
	SessionID  string          `json:"session_id"`
	WalkerID   string          `json:"walker_id,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data,omitempty"`
}

func New(typ Type, sessionID, walkerID string, at time.Time, data any) (Event, error) {
	ev := Event{
		ID:         uuid.NewString(),
		Type:       typ,
		SessionID:  sessionID,
		WalkerID:   walkerID,
		OccurredAt: at,
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return Event{}, err
		}
		ev.Data = raw
	}
	return ev, nil
}

// Publisher delivers events to downstream bounded contexts.
type Publisher interface {
	Publish(ctx context.Context, evs ...Event) error
	Close() error
}

type Nop struct{}

func (Nop) Publish(context.Context, ...Event) error { return nil }
func (Nop) Close() error                            { return nil }
