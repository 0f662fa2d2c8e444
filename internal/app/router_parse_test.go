package app

import (
	"testing"
	"time"

	"github.com/fairyhunter13/ai-interview-coach/internal/config"
)

func TestParseOrigins(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", []string{"*"}},
		{"*", []string{"*"}},
		{"https://a.com, https://b.com", []string{"https://a.com", "https://b.com"}},
		{"  ,  ", []string{"*"}},
	}
	for _, c := range cases {
		got := ParseOrigins(c.in)
		if len(got) != len(c.want) {
			t.Fatalf("len mismatch for %q: %v vs %v", c.in, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("mismatch idx %d: %v vs %v", i, got, c.want)
			}
		}
	}
}

func TestRequestTimeout(t *testing.T) {
	if got := requestTimeout(config.Config{}); got != 75*time.Second {
		t.Fatalf("default: %v", got)
	}
	if got := requestTimeout(config.Config{RequestTimeout: time.Second}); got != time.Second {
		t.Fatalf("explicit: %v", got)
	}
}
