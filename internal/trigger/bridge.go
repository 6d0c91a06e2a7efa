// Package trigger connects the wearable ring to the alert engine over MQTT.
// The ring publishes button presses on a trigger topic and GPS fixes from
// the paired host on a location topic.
package trigger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ogulcanaydogan/SafetyRing/pkg/model"
)

// ErrUnknownPayload is returned for trigger payloads that are neither an
// alert nor a cancel.
var ErrUnknownPayload = errors.New("unknown trigger payload")

// Action is what a trigger payload asks for.
type Action string

const (
	ActionAlert  Action = "alert"
	ActionCancel Action = "cancel"
)

// Command is a decoded trigger payload.
type Command struct {
	Action     Action
	TemplateID string
}

// Alerter is the part of the engine the ring can drive.
type Alerter interface {
	Trigger(ctx context.Context) bool
	TriggerTemplate(ctx context.Context, templateID string) bool
	Cancel(ctx context.Context) bool
}

// LocationSink receives GPS fixes.
type LocationSink interface {
	Update(ctx context.Context, c model.Coordinate)
}

// Subscriber registers topic handlers.
type Subscriber interface {
	Subscribe(topic string, handler MessageHandler) error
}

type jsonCommand struct {
	Alert    bool   `json:"alert"`
	Cancel   bool   `json:"cancel"`
	Template string `json:"template"`
}

// ParsePayload decodes a trigger payload. The ring sends the plain words
// ALERT or CANCEL; hosts may send {"alert":true,"template":"<id>"} or
// {"cancel":true}.
func ParsePayload(payload []byte) (Command, error) {
	trimmed := bytes.TrimSpace(payload)

	switch {
	case bytes.EqualFold(trimmed, []byte("ALERT")):
		return Command{Action: ActionAlert}, nil
	case bytes.EqualFold(trimmed, []byte("CANCEL")):
		return Command{Action: ActionCancel}, nil
	}

	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownPayload, trimmed)
	}

	var jc jsonCommand
	if err := json.Unmarshal(trimmed, &jc); err != nil {
		return Command{}, fmt.Errorf("decode trigger payload: %w", err)
	}
	switch {
	case jc.Cancel:
		return Command{Action: ActionCancel}, nil
	case jc.Alert:
		return Command{Action: ActionAlert, TemplateID: jc.Template}, nil
	}
	return Command{}, fmt.Errorf("%w: %s", ErrUnknownPayload, trimmed)
}

type fix struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// ParseLocation decodes a {"lat":..,"lon":..} payload.
func ParseLocation(payload []byte) (model.Coordinate, error) {
	var f fix
	if err := json.Unmarshal(payload, &f); err != nil {
		return model.Coordinate{}, fmt.Errorf("decode location payload: %w", err)
	}
	if f.Lat == nil || f.Lon == nil {
		return model.Coordinate{}, fmt.Errorf("decode location payload: lat and lon are required")
	}
	if *f.Lat < -90 || *f.Lat > 90 || *f.Lon < -180 || *f.Lon > 180 {
		return model.Coordinate{}, fmt.Errorf("decode location payload: coordinate out of range")
	}
	return model.Coordinate{Lat: *f.Lat, Lon: *f.Lon}, nil
}

// Bridge turns ring messages into engine calls.
type Bridge struct {
	alerter  Alerter
	location LocationSink
	logger   *slog.Logger
}

// NewBridge creates a bridge. location may be nil when fixes are not
// forwarded over MQTT.
func NewBridge(alerter Alerter, location LocationSink, logger *slog.Logger) *Bridge {
	return &Bridge{alerter: alerter, location: location, logger: logger}
}

// Subscribe registers the bridge's handlers on sub.
func (b *Bridge) Subscribe(sub Subscriber, triggerTopic, locationTopic string) error {
	if err := sub.Subscribe(triggerTopic, b.HandleTrigger); err != nil {
		return err
	}
	if b.location == nil || locationTopic == "" {
		return nil
	}
	return sub.Subscribe(locationTopic, b.HandleLocation)
}

// HandleTrigger arms or cancels an alert. A press while an alert is
// already armed is ignored.
func (b *Bridge) HandleTrigger(topic string, payload []byte) error {
	cmd, err := ParsePayload(payload)
	if err != nil {
		return err
	}

	ctx := context.Background()
	switch cmd.Action {
	case ActionCancel:
		if !b.alerter.Cancel(ctx) {
			b.logger.Info("cancel from ring ignored, nothing armed", "topic", topic)
		}
	case ActionAlert:
		var armed bool
		if cmd.TemplateID != "" {
			armed = b.alerter.TriggerTemplate(ctx, cmd.TemplateID)
		} else {
			armed = b.alerter.Trigger(ctx)
		}
		if !armed {
			b.logger.Info("ring press ignored, alert already in progress", "topic", topic)
			return nil
		}
		b.logger.Info("alert triggered from ring", "topic", topic, "template", cmd.TemplateID)
	}
	return nil
}

// HandleLocation forwards a GPS fix. Reverse geocoding runs in the
// background so message delivery is not held up.
func (b *Bridge) HandleLocation(_ string, payload []byte) error {
	if b.location == nil {
		return nil
	}
	c, err := ParseLocation(payload)
	if err != nil {
		return err
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		b.location.Update(ctx, c)
	}()
	return nil
}
