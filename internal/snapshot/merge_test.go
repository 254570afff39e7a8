package snapshot

import (
	"Go2InputSpectra/internal/model"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 1, 10, 30, 0, 0, time.Local)

func TestMerge_EmptyBaseTakesDelta(t *testing.T) {
	delta := model.Delta{
		Timestamp: t0,
		Counters:  model.Counters{MouseDistance: 5, WheelSpins: 2, ButtonPresses: 3, KeyPresses: 4},
	}

	got := Merge(model.Snapshot{}, delta)

	assert.Equal(t, model.Snapshot{
		Timestamp:     "2025-06-01 10:30:00",
		MouseDistance: 5,
		WheelSpins:    2,
		ButtonPresses: 3,
		KeyPresses:    4,
	}, got)
}

func TestMerge_SumsAndReplacesTimestamp(t *testing.T) {
	base := model.Snapshot{Timestamp: "1970-01-01 00:00:00", WheelSpins: 1}
	delta := model.Delta{Timestamp: t0, Counters: model.Counters{WheelSpins: 2}}

	got := Merge(base, delta)

	assert.Equal(t, model.Snapshot{Timestamp: "2025-06-01 10:30:00", WheelSpins: 3}, got)
}

func TestMerge_ZeroDeltaLeavesField(t *testing.T) {
	base := model.Snapshot{KeyPresses: 7, MouseDistance: 11}
	got := Merge(base, model.Delta{Timestamp: t0})

	assert.Equal(t, int64(7), got.KeyPresses)
	assert.Equal(t, int64(11), got.MouseDistance)
}

func TestMerge_SaturatesInsteadOfWrapping(t *testing.T) {
	base := model.Snapshot{MouseDistance: math.MaxInt64 - 1}
	got := Merge(base, model.Delta{Timestamp: t0, Counters: model.Counters{MouseDistance: 10}})
	assert.Equal(t, int64(math.MaxInt64), got.MouseDistance)
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    model.Snapshot
		wantErr bool
	}{
		{name: "empty", input: "", want: model.Snapshot{}},
		{name: "whitespace", input: " \n", want: model.Snapshot{}},
		{
			name:  "full record",
			input: `{"timestamp":"2025-06-01 10:30:00","mouse_distance":5,"wheel_spins":2,"button_presses":3,"key_presses":4}`,
			want:  model.Snapshot{Timestamp: "2025-06-01 10:30:00", MouseDistance: 5, WheelSpins: 2, ButtonPresses: 3, KeyPresses: 4},
		},
		{
			name:  "epoch timestamp and partial fields",
			input: `{"timestamp":0,"wheel_spins":1}`,
			want:  model.Snapshot{Timestamp: "0", WheelSpins: 1},
		},
		{
			name:  "non-numeric counters default to zero",
			input: `{"mouse_distance":"far","wheel_spins":null,"button_presses":2.9,"key_presses":"6"}`,
			want:  model.Snapshot{ButtonPresses: 2, KeyPresses: 6},
		},
		{name: "not json", input: "garbage", wantErr: true},
		{name: "json array", input: "[1,2]", wantErr: true},
		{name: "json null", input: "null", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.input))
			if tt.wantErr {
				require.ErrorIs(t, err, errNotObject)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncode_StableFieldOrder(t *testing.T) {
	out, err := Encode(model.Snapshot{Timestamp: "2025-06-01 10:30:00", MouseDistance: 1, WheelSpins: 2, ButtonPresses: 3, KeyPresses: 4})
	require.NoError(t, err)
	assert.Equal(t,
		`{"timestamp":"2025-06-01 10:30:00","mouse_distance":1,"wheel_spins":2,"button_presses":3,"key_presses":4}`+"\n",
		string(out))
}
