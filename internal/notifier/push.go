package notifier

import (
	"context"
	"encoding/json"

	"reportflow/internal/model"
	"reportflow/internal/workflow"
)

// Broadcaster is the surface the push channel needs from the websocket hub.
type Broadcaster interface {
	BroadcastTo(userIDs []string, message []byte)
}

// PushChannel forwards workflow events to connected websocket clients.
type PushChannel struct {
	hub Broadcaster
}

func NewPushChannel(hub Broadcaster) *PushChannel {
	return &PushChannel{hub: hub}
}

func (c *PushChannel) Name() string { return model.ChannelPush }

func (c *PushChannel) Send(_ context.Context, event workflow.Event, recipients []model.User) error {
	ids := make([]string, 0, len(recipients))
	for _, r := range recipients {
		ids = append(ids, r.ID.String())
	}

	payload, err := json.Marshal(map[string]interface{}{
		"event":     event.Type,
		"report_id": event.ReportID,
		"title":     event.ReportTitle,
		"message":   event.Message,
	})
	if err != nil {
		return err
	}

	c.hub.BroadcastTo(ids, payload)
	return nil
}
