package device

import (
	"errors"
	"testing"
	"time"
)

func at(t time.Time) *time.Time { return &t }

func TestDeriveStatusInUse(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		end  time.Time
		want Status
	}{
		{"ends tomorrow", now.Add(24 * time.Hour), StatusInUse},
		{"ends next second", now.Add(time.Second), StatusInUse},
		{"ends exactly now", now, StatusPending},
		{"ended a second ago", now.Add(-time.Second), StatusPending},
		{"sub-second ahead rounds to now", now.Add(500 * time.Millisecond), StatusPending},
		{"ended last week", now.Add(-7 * 24 * time.Hour), StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Device{AssetTag: "LAB-1", Status: StatusInUse, ReservationEnd: at(tt.end)}
			got, err := DeriveStatus(d, now)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestDeriveStatusPassThrough(t *testing.T) {
	instants := []time.Time{
		time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		time.Date(2100, 12, 31, 23, 59, 59, 0, time.UTC),
	}

	for _, status := range []Status{StatusAvailable, StatusOffline, StatusArchived} {
		for _, now := range instants {
			// A stale reservation end must not influence stable states.
			d := &Device{Status: status, ReservationEnd: at(now.Add(-time.Hour))}
			got, err := DeriveStatus(d, now)
			if err != nil {
				t.Fatalf("expected no error for %s, got %v", status, err)
			}
			if got != status {
				t.Fatalf("expected %s to pass through, got %s", status, got)
			}
		}
	}
}

func TestDeriveStatusRejectsUnknown(t *testing.T) {
	for _, raw := range []Status{"pending", "", "broken", "IN_USE"} {
		got, err := DeriveStatus(&Device{AssetTag: "LAB-9", Status: raw}, time.Now())
		if !errors.Is(err, ErrUnknownStatus) {
			t.Fatalf("expected ErrUnknownStatus for %q, got %v", raw, err)
		}
		if got != "" {
			t.Fatalf("expected no status for %q, got %s", raw, got)
		}
		if !IsCorrupt(err) {
			t.Fatalf("expected %q to be reported as corrupt", raw)
		}
	}
}

func TestDeriveStatusInUseWithoutEnd(t *testing.T) {
	_, err := DeriveStatus(&Device{Status: StatusInUse}, time.Now())
	if !errors.Is(err, ErrIncompleteReservation) {
		t.Fatalf("expected ErrIncompleteReservation, got %v", err)
	}
}

func TestDeriveStatusDefaultsToWallClock(t *testing.T) {
	future := &Device{Status: StatusInUse, ReservationEnd: at(time.Now().Add(time.Hour))}
	if got, _ := DeriveStatus(future, time.Time{}); got != StatusInUse {
		t.Fatalf("expected in_use, got %s", got)
	}
	past := &Device{Status: StatusInUse, ReservationEnd: at(time.Now().Add(-time.Hour))}
	if got, _ := DeriveStatus(past, time.Time{}); got != StatusPending {
		t.Fatalf("expected pending, got %s", got)
	}
}

func TestIsStorable(t *testing.T) {
	if StatusPending.IsStorable() {
		t.Fatalf("pending must never be stored")
	}
	for _, s := range StorableStatuses {
		if !s.IsStorable() {
			t.Fatalf("expected %s to be storable", s)
		}
	}
}
