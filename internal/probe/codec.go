package probe

import (
	"Go2InputSpectra/internal/model"
	"encoding/json"
	"fmt"
	"time"
)

// wireEvent is the JSON form of an input notification exchanged with external hook helpers.
//
//	{"type":"mouse_move","x":10.5,"y":3}
//	{"type":"wheel","dx":0,"dy":-1}
//	{"type":"key_press","key":"KeyA"}
type wireEvent struct {
	Type   string   `json:"type"`
	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
	DX     *int64   `json:"dx,omitempty"`
	DY     *int64   `json:"dy,omitempty"`
	Button string   `json:"button,omitempty"`
	Key    string   `json:"key,omitempty"`
	Time   int64    `json:"time_ms,omitempty"`
}

// DecodeEvent parses one JSON notification. Unrecognised types decode to model.KindUnknown.
func DecodeEvent(data []byte) (model.Event, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return model.Event{}, fmt.Errorf("failed to decode event: %w", err)
	}

	ev := model.Event{Kind: model.EventKind(w.Type)}
	if w.Time > 0 {
		ev.Time = time.UnixMilli(w.Time)
	}

	switch ev.Kind {
	case model.KindMouseMove:
		if w.X == nil || w.Y == nil {
			return model.Event{}, fmt.Errorf("mouse_move event requires x and y")
		}
		ev.X, ev.Y = *w.X, *w.Y
	case model.KindWheel:
		if w.DX != nil {
			ev.DeltaX = *w.DX
		}
		if w.DY != nil {
			ev.DeltaY = *w.DY
		}
	case model.KindButtonPress, model.KindButtonRelease:
		ev.Code = w.Button
	case model.KindKeyPress, model.KindKeyRelease:
		ev.Code = w.Key
	default:
		ev.Kind = model.KindUnknown
		ev.Code = w.Type
	}
	return ev, nil
}

// EncodeEvent renders an event in the JSON wire form.
func EncodeEvent(ev model.Event) ([]byte, error) {
	w := wireEvent{Type: string(ev.Kind)}
	if !ev.Time.IsZero() {
		w.Time = ev.Time.UnixMilli()
	}
	switch ev.Kind {
	case model.KindMouseMove:
		w.X, w.Y = &ev.X, &ev.Y
	case model.KindWheel:
		w.DX, w.DY = &ev.DeltaX, &ev.DeltaY
	case model.KindButtonPress, model.KindButtonRelease:
		w.Button = ev.Code
	case model.KindKeyPress, model.KindKeyRelease:
		w.Key = ev.Code
	case model.KindUnknown:
		if ev.Code != "" {
			w.Type = ev.Code
		}
	}
	return json.Marshal(w)
}
