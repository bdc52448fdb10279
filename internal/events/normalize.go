package events

import (
	"strings"
	"time"

	"github.com/planwell/calsync/internal/provider"
)

// localNaiveLayout is the timestamp format used everywhere downstream:
// wall-clock time in the product's fixed zone, no offset suffix.
const localNaiveLayout = "2006-01-02T15:04:05"

// localOffset is the fixed UTC+8 product timezone. The conversion is done
// by field arithmetic on the parsed instant so results do not depend on
// the host machine's timezone database or TZ setting.
const localOffset = 8 * time.Hour

// payloadTimeZone is the zone name sent alongside outgoing timestamps.
const payloadTimeZone = "Asia/Shanghai"

// Person is a flattened organizer record.
type Person struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Participant is a flattened attendee record.
type Participant struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Type   string `json:"type"`
	Status string `json:"status"`
}

// NormalizedEvent is the pipeline's output shape. StartTime and EndTime
// are always local-naive timestrings, never raw provider UTC.
type NormalizedEvent struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	StartTime   string        `json:"startTime"`
	EndTime     string        `json:"endTime"`
	Location    string        `json:"location,omitempty"`
	Organizer   *Person       `json:"organizer,omitempty"`
	Attendees   []Participant `json:"attendees,omitempty"`
	IsAllDay    bool          `json:"isAllDay"`
	CreatedAt   string        `json:"createdAt"`
	UpdatedAt   string        `json:"updatedAt"`
	ExternalID  string        `json:"externalId"`
	CalendarID  string        `json:"calendarId,omitempty"`
	Source      string        `json:"source"`
	SyncStatus  string        `json:"syncStatus"`
}

// utcToLocal converts a provider UTC timestamp to the fixed local zone.
// Fractional seconds are stripped before parsing. An unparseable input is
// returned unchanged rather than lost.
func utcToLocal(s string) string {
	if s == "" {
		return s
	}
	cleaned := strings.TrimSuffix(s, "Z")
	if i := strings.IndexByte(cleaned, '.'); i >= 0 {
		cleaned = cleaned[:i]
	}
	t, err := time.Parse(localNaiveLayout, cleaned)
	if err != nil {
		return s
	}
	return t.Add(localOffset).Format(localNaiveLayout)
}

// safeLocalTime is utcToLocal with a fallback to the given instant for
// empty inputs, so created/updated stamps are never blank.
func safeLocalTime(s string, now time.Time) string {
	if s == "" {
		return now.UTC().Add(localOffset).Format(localNaiveLayout)
	}
	return utcToLocal(s)
}

// parseLocal parses a local-naive timestring produced by utcToLocal.
func parseLocal(s string) (time.Time, error) {
	return time.Parse(localNaiveLayout, s)
}

// normalizeEvent reshapes a provider event into the pipeline's output
// form: prefixed id, timezone-converted timestamps, flattened organizer
// and attendee records.
func normalizeEvent(e provider.Event, calendarID string, now time.Time) NormalizedEvent {
	out := NormalizedEvent{
		ID:         "outlook-" + e.ID,
		ExternalID: e.ID,
		CalendarID: calendarID,
		Title:      e.Subject,
		IsAllDay:   e.IsAllDay,
		CreatedAt:  safeLocalTime(e.CreatedDateTime, now),
		UpdatedAt:  safeLocalTime(e.LastModifiedDateTime, now),
		Source:     "remote",
		SyncStatus: "synced",
	}
	if out.Title == "" {
		out.Title = "Untitled Event"
	}

	out.Description = e.BodyPreview
	if out.Description == "" {
		out.Description = e.Subject
	}

	if e.Start != nil {
		out.StartTime = utcToLocal(e.Start.DateTime)
	}
	if e.End != nil {
		out.EndTime = utcToLocal(e.End.DateTime)
	}
	if e.Location != nil {
		out.Location = e.Location.DisplayName
	}

	if e.Organizer != nil {
		name := e.Organizer.EmailAddress.Name
		if name == "" {
			name = e.Organizer.EmailAddress.Address
		}
		if name != "" || e.Organizer.EmailAddress.Address != "" {
			out.Organizer = &Person{Name: name, Email: e.Organizer.EmailAddress.Address}
		}
	}

	for _, a := range e.Attendees {
		if a.EmailAddress.Address == "" {
			continue
		}
		p := Participant{
			Name:   a.EmailAddress.Name,
			Email:  a.EmailAddress.Address,
			Type:   a.Type,
			Status: "none",
		}
		if p.Name == "" {
			p.Name = a.EmailAddress.Address
		}
		if p.Type == "" {
			p.Type = "required"
		}
		if a.Status != nil && a.Status.Response != "" {
			p.Status = a.Status.Response
		}
		out.Attendees = append(out.Attendees, p)
	}

	return out
}
