package cli

import (
	"testing"
	"time"

	"github.com/topomesh/meshify/pkg/pipeline"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{850 * time.Microsecond, "850µs"},
		{12345 * time.Microsecond, "12.3ms"},
		{1520 * time.Millisecond, "1.52s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatTimings(t *testing.T) {
	st := pipeline.Stats{
		Durations: map[string]time.Duration{
			"render":   30 * time.Millisecond,
			"generate": time.Millisecond,
			"analyze":  2 * time.Millisecond,
		},
	}
	// Stage order, not map order.
	want := "generate 1ms · analyze 2ms · render 30ms"
	if got := formatTimings(st); got != want {
		t.Errorf("formatTimings() = %q, want %q", got, want)
	}

	if got := formatTimings(pipeline.Stats{}); got != "" {
		t.Errorf("formatTimings(empty) = %q, want empty", got)
	}
}
