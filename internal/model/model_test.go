package model

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSaturatingAdd(t *testing.T) {
	tests := []struct {
		a, b, want int64
	}{
		{a: 2, b: 3, want: 5},
		{a: math.MaxInt64, b: 1, want: math.MaxInt64},
		{a: math.MaxInt64 - 1, b: math.MaxInt64, want: math.MaxInt64},
		{a: math.MinInt64, b: -1, want: math.MinInt64},
		{a: 5, b: -7, want: -2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SaturatingAdd(tt.a, tt.b), "%d + %d", tt.a, tt.b)
	}
}

func TestDeltaAdd_LaterTimestampWins(t *testing.T) {
	early := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	late := early.Add(time.Second)

	got := Delta{Timestamp: late, Counters: Counters{KeyPresses: math.MaxInt64}}.
		Add(Delta{Timestamp: early, Counters: Counters{KeyPresses: 1, WheelSpins: 2}})

	assert.Equal(t, late, got.Timestamp)
	assert.Equal(t, Counters{KeyPresses: math.MaxInt64, WheelSpins: 2}, got.Counters)
}
