package supervisor

import (
	"testing"
	"time"
)

func TestRestartBackoff(t *testing.T) {
	cases := []struct {
		exitCount int
		want      time.Duration
	}{
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 32 * time.Second},
		{6, 60 * time.Second}, // 64s would exceed cap
		{10, 60 * time.Second},
	}
	for _, c := range cases {
		if got := restartBackoff(c.exitCount); got != c.want {
			t.Fatalf("restartBackoff(%d) = %v, want %v", c.exitCount, got, c.want)
		}
	}
}
