package events

import (
	"testing"
	"time"

	"github.com/planwell/calsync/internal/provider"
)

func TestUTCToLocal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain timestamp", "2025-01-01T02:00:00", "2025-01-01T10:00:00"},
		{"fractional seconds stripped", "2025-01-01T02:00:00.0000000", "2025-01-01T10:00:00"},
		{"zulu suffix", "2025-01-01T02:00:00Z", "2025-01-01T10:00:00"},
		{"crosses midnight", "2025-01-01T16:30:00", "2025-01-02T00:30:00"},
		{"crosses month boundary", "2025-01-31T20:00:00", "2025-02-01T04:00:00"},
		{"unparseable returned unchanged", "not-a-time", "not-a-time"},
		{"empty unchanged", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := utcToLocal(tt.in); got != tt.want {
				t.Errorf("utcToLocal(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSafeLocalTimeFallsBackToNow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if got := safeLocalTime("", now); got != "2025-06-01T20:00:00" {
		t.Errorf("safeLocalTime(\"\") = %q, want %q", got, "2025-06-01T20:00:00")
	}
}

func TestNormalizeEvent(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	e := provider.Event{
		ID:          "AAMk123",
		Subject:     "Standup",
		BodyPreview: "Daily sync",
		Start:       &provider.DateTimeZone{DateTime: "2025-06-01T01:00:00.0000000", TimeZone: "UTC"},
		End:         &provider.DateTimeZone{DateTime: "2025-06-01T01:30:00.0000000", TimeZone: "UTC"},
		Location:    &provider.Location{DisplayName: "Room 4"},
		Organizer: &provider.Recipient{
			EmailAddress: provider.EmailAddress{Name: "Ana", Address: "ana@example.com"},
		},
		Attendees: []provider.Attendee{
			{EmailAddress: provider.EmailAddress{Name: "Bo", Address: "bo@example.com"},
				Type:   "optional",
				Status: &provider.ResponseStatus{Response: "accepted"}},
			{EmailAddress: provider.EmailAddress{Address: "cy@example.com"}},
			{EmailAddress: provider.EmailAddress{Name: "no-email"}},
		},
		CreatedDateTime:      "2025-05-30T10:00:00Z",
		LastModifiedDateTime: "2025-05-31T10:00:00Z",
	}

	got := normalizeEvent(e, "cal-1", now)

	if got.ID != "outlook-AAMk123" {
		t.Errorf("expected prefixed id, got %q", got.ID)
	}
	if got.ExternalID != "AAMk123" {
		t.Errorf("expected external id preserved, got %q", got.ExternalID)
	}
	if got.CalendarID != "cal-1" {
		t.Errorf("expected calendar id, got %q", got.CalendarID)
	}
	if got.StartTime != "2025-06-01T09:00:00" || got.EndTime != "2025-06-01T09:30:00" {
		t.Errorf("expected converted times, got %q / %q", got.StartTime, got.EndTime)
	}
	if got.Location != "Room 4" {
		t.Errorf("expected location, got %q", got.Location)
	}
	if got.Organizer == nil || got.Organizer.Name != "Ana" || got.Organizer.Email != "ana@example.com" {
		t.Errorf("unexpected organizer %+v", got.Organizer)
	}
	if got.Source != "remote" || got.SyncStatus != "synced" {
		t.Errorf("unexpected source/syncStatus %q/%q", got.Source, got.SyncStatus)
	}

	if len(got.Attendees) != 2 {
		t.Fatalf("expected attendee without email to be dropped, got %d", len(got.Attendees))
	}
	if got.Attendees[0].Type != "optional" || got.Attendees[0].Status != "accepted" {
		t.Errorf("unexpected first attendee %+v", got.Attendees[0])
	}
	second := got.Attendees[1]
	if second.Name != "cy@example.com" || second.Type != "required" || second.Status != "none" {
		t.Errorf("expected defaults for bare attendee, got %+v", second)
	}

	if got.CreatedAt != "2025-05-30T18:00:00" || got.UpdatedAt != "2025-05-31T18:00:00" {
		t.Errorf("unexpected created/updated %q/%q", got.CreatedAt, got.UpdatedAt)
	}
}

func TestNormalizeEventFallbacks(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	got := normalizeEvent(provider.Event{ID: "x"}, "", now)
	if got.Title != "Untitled Event" {
		t.Errorf("expected title fallback, got %q", got.Title)
	}
	if got.Organizer != nil {
		t.Errorf("expected nil organizer, got %+v", got.Organizer)
	}
	if got.CreatedAt == "" || got.UpdatedAt == "" {
		t.Error("expected created/updated stamps to be filled in")
	}

	withSubject := normalizeEvent(provider.Event{ID: "y", Subject: "Review"}, "", now)
	if withSubject.Description != "Review" {
		t.Errorf("expected description to fall back to subject, got %q", withSubject.Description)
	}

	addrOnly := normalizeEvent(provider.Event{
		ID:        "z",
		Organizer: &provider.Recipient{EmailAddress: provider.EmailAddress{Address: "d@example.com"}},
	}, "", now)
	if addrOnly.Organizer == nil || addrOnly.Organizer.Name != "d@example.com" {
		t.Errorf("expected organizer name to fall back to address, got %+v", addrOnly.Organizer)
	}
}
