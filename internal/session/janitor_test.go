package session

import (
	"testing"
	"time"
)

func TestNewJanitorValidSchedule(t *testing.T) {
	j, err := NewJanitor(NewManager(NewMemoryStore()), "@every 30m", time.Hour)
	if err != nil {
		t.Fatalf("NewJanitor failed: %v", err)
	}
	j.Start()
	j.Stop()
}

func TestNewJanitorInvalidSchedule(t *testing.T) {
	if _, err := NewJanitor(NewManager(NewMemoryStore()), "not a cron expr", time.Hour); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}
