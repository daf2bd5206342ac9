package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name string
		in   time.Duration
		want string
	}{
		{name: "zero", in: 0, want: "—"},
		{name: "negative", in: -time.Second, want: "—"},
		{name: "sub-millisecond", in: 500 * time.Microsecond, want: "500µs"},
		{name: "sub-second truncated to millis", in: 1234567 * time.Nanosecond, want: "1ms"},
		{name: "seconds truncated", in: 90*time.Second + 300*time.Millisecond, want: "1m30s"},
		{name: "hours", in: 26 * time.Hour, want: "26h0m0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, FormatDuration(tt.in))
		})
	}
}
