package snapshot

import (
	"Go2InputSpectra/internal/model"
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
)

// errNotObject means the existing content is not a JSON object at all.
var errNotObject = errors.New("snapshot content is not a JSON object")

// Merge folds a delta into a base snapshot. The timestamp is always replaced;
// each counter is left alone when the delta is zero and summed otherwise.
func Merge(base model.Snapshot, delta model.Delta) model.Snapshot {
	out := base
	out.Timestamp = delta.Timestamp.Format(model.TimestampLayout)
	out.MouseDistance = mergeCounter(base.MouseDistance, delta.MouseDistance)
	out.WheelSpins = mergeCounter(base.WheelSpins, delta.WheelSpins)
	out.ButtonPresses = mergeCounter(base.ButtonPresses, delta.ButtonPresses)
	out.KeyPresses = mergeCounter(base.KeyPresses, delta.KeyPresses)
	return out
}

func mergeCounter(base, delta int64) int64 {
	if delta == 0 {
		return base
	}
	return model.SaturatingAdd(base, delta)
}

// Decode parses existing snapshot content. Empty content yields an empty base.
// Missing or non-numeric counter fields default to zero; a timestamp of any JSON type is tolerated.
// It returns errNotObject when data is not a JSON object.
func Decode(data []byte) (model.Snapshot, error) {
	var snap model.Snapshot
	if len(bytes.TrimSpace(data)) == 0 {
		return snap, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return snap, errNotObject
	}

	snap.Timestamp = decodeTimestamp(fields["timestamp"])
	snap.MouseDistance = decodeCounter(fields["mouse_distance"])
	snap.WheelSpins = decodeCounter(fields["wheel_spins"])
	snap.ButtonPresses = decodeCounter(fields["button_presses"])
	snap.KeyPresses = decodeCounter(fields["key_presses"])
	return snap, nil
}

func decodeCounter(raw json.RawMessage) int64 {
	if len(raw) == 0 {
		return 0
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0
	}
	if v, err := n.Int64(); err == nil {
		return v
	}
	// Totals written by other tools may carry a fractional part.
	if f, err := strconv.ParseFloat(n.String(), 64); err == nil {
		return int64(f)
	}
	return 0
}

func decodeTimestamp(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// Encode renders a snapshot as a single JSON line in the stable field order.
func Encode(snap model.Snapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
