package uuid

import (
	"regexp"
	"testing"
	"time"
)

var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-7[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

func TestNewV7_Format(t *testing.T) {
	t.Parallel()

	u := NewV7()
	s := u.String()
	if !uuidPattern.MatchString(s) {
		t.Errorf("NewV7().String() = %q, does not match UUID v7 format", s)
	}
}

func TestNewV7_Unique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool, 1000)
	for i := 0; i < 1000; i++ {
		s := NewV7().String()
		if seen[s] {
			t.Fatalf("duplicate UUID generated: %s", s)
		}
		seen[s] = true
	}
}

func TestNewV7_TimestampOrdered(t *testing.T) {
	t.Parallel()

	first := NewV7()
	time.Sleep(2 * time.Millisecond)
	second := NewV7()

	// The first 6 bytes encode ms timestamps, so later UUIDs sort lexically after.
	if second.String() <= first.String() {
		t.Errorf("expected %s > %s (timestamp ordering)", second.String(), first.String())
	}
}
