package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/planwell/calsync/internal/logging"
	"github.com/planwell/calsync/internal/provider"
)

// EventInput carries the caller-provided event fields for create and
// update. Location and IsAllDay are pointers so an update can distinguish
// "not provided" from an explicit empty or false value.
type EventInput struct {
	Title       string
	Description string
	StartTime   string
	EndTime     string
	Location    *string
	IsAllDay    *bool
}

// simulatedPrefix marks ids synthesized locally while the session runs in
// simulation mode. Mutations against such ids never touch the network.
const simulatedPrefix = "simulated-"

// remoteID strips the local id prefix so mutations address the provider's
// own identifier.
func remoteID(id string) string {
	return strings.TrimPrefix(id, "outlook-")
}

// CreateEvent creates an event in the given calendar (the account default
// when calendarID is empty) and returns the normalized id. Both times must
// be present and parse before anything is sent. In simulation mode a local
// id is synthesized instead of calling the remote.
func (s *Service) CreateEvent(ctx context.Context, calendarID string, in EventInput) (string, error) {
	if err := validateTimes(in.StartTime, in.EndTime); err != nil {
		return "", err
	}

	if s.session.Simulated() {
		id := simulatedPrefix + uuid.NewString()
		s.logger.Info("event created locally",
			logging.Operation("create"),
			logging.EventID(id),
			logging.Mode("simulated"))
		return id, nil
	}

	endpoint := "/me/events"
	if calendarID != "" {
		endpoint = fmt.Sprintf("/me/calendars/%s/events", url.PathEscape(calendarID))
	}

	payload := buildPayload(in, true)
	raw, err := s.client.Call(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return "", fmt.Errorf("failed to create event: %w", err)
	}

	var created provider.Event
	if err := json.Unmarshal(raw, &created); err != nil {
		return "", fmt.Errorf("failed to decode created event: %w", err)
	}

	s.logger.Info("event created",
		logging.Operation("create"),
		logging.CalendarID(calendarID),
		logging.EventID(created.ID))
	return "outlook-" + created.ID, nil
}

// UpdateEvent patches an event. Time fields are all-or-nothing: providing
// only one of start and end, or an unparseable value, fails before any
// network traffic. Optional fields are sent only when explicitly provided
// so remote values are never overwritten with defaults.
func (s *Service) UpdateEvent(ctx context.Context, eventID string, in EventInput) error {
	hasStart := in.StartTime != ""
	hasEnd := in.EndTime != ""
	if hasStart != hasEnd {
		missing := "startTime"
		if hasStart {
			missing = "endTime"
		}
		return &provider.TimeFormatError{Field: missing}
	}
	if hasStart {
		if err := validateTimes(in.StartTime, in.EndTime); err != nil {
			return err
		}
	}

	if strings.HasPrefix(eventID, simulatedPrefix) || s.session.Simulated() {
		s.logger.Info("event updated locally",
			logging.Operation("update"),
			logging.EventID(eventID),
			logging.Mode("simulated"))
		return nil
	}

	endpoint := fmt.Sprintf("/me/events/%s", url.PathEscape(remoteID(eventID)))
	payload := buildPayload(in, false)
	if _, err := s.client.Call(ctx, http.MethodPatch, endpoint, payload); err != nil {
		var nf *provider.NotFoundError
		if errors.As(err, &nf) {
			return err
		}
		return fmt.Errorf("failed to update event: %w", err)
	}

	s.logger.Info("event updated", logging.Operation("update"), logging.EventID(eventID))
	return nil
}

// DeleteEvent deletes an event. A remote 404 is success: the desired end
// state, event absent, already holds.
func (s *Service) DeleteEvent(ctx context.Context, eventID string) error {
	if strings.HasPrefix(eventID, simulatedPrefix) || s.session.Simulated() {
		s.logger.Info("event deleted locally",
			logging.Operation("delete"),
			logging.EventID(eventID),
			logging.Mode("simulated"))
		return nil
	}

	endpoint := fmt.Sprintf("/me/events/%s", url.PathEscape(remoteID(eventID)))
	if _, err := s.client.Call(ctx, http.MethodDelete, endpoint, nil); err != nil {
		var nf *provider.NotFoundError
		if errors.As(err, &nf) {
			s.logger.Info("event already gone",
				logging.Operation("delete"),
				logging.EventID(eventID))
			return nil
		}
		return fmt.Errorf("failed to delete event: %w", err)
	}

	s.logger.Info("event deleted", logging.Operation("delete"), logging.EventID(eventID))
	return nil
}

// SyncEventToCalendar creates the event in the given calendar, falling
// back to the persisted default selection when calendarID is empty.
func (s *Service) SyncEventToCalendar(ctx context.Context, calendarID string, in EventInput) (string, error) {
	if calendarID == "" {
		if s.selector == nil {
			return "", errors.New("no target calendar selected")
		}
		id, ok := s.selector.SelectedCalendarID()
		if !ok {
			return "", errors.New("no target calendar selected")
		}
		calendarID = id
	}
	return s.CreateEvent(ctx, calendarID, in)
}

// validateTimes requires both timestamps present and parseable in the
// local-naive layout.
func validateTimes(start, end string) error {
	if start == "" {
		return &provider.TimeFormatError{Field: "startTime"}
	}
	if end == "" {
		return &provider.TimeFormatError{Field: "endTime"}
	}
	if _, err := parseLocal(start); err != nil {
		return &provider.TimeFormatError{Field: "startTime", Value: start, Err: err}
	}
	if _, err := parseLocal(end); err != nil {
		return &provider.TimeFormatError{Field: "endTime", Value: end, Err: err}
	}
	return nil
}

// buildPayload maps the input onto the provider's event shape. For
// updates, fields the caller did not provide are left out entirely.
func buildPayload(in EventInput, create bool) *provider.EventPayload {
	p := &provider.EventPayload{}

	if create || in.Title != "" {
		p.Subject = in.Title
	}
	if create || in.Description != "" {
		p.Body = &provider.ItemBody{ContentType: "text", Content: in.Description}
	}
	if in.StartTime != "" {
		p.Start = &provider.DateTimeZone{DateTime: in.StartTime, TimeZone: payloadTimeZone}
		p.End = &provider.DateTimeZone{DateTime: in.EndTime, TimeZone: payloadTimeZone}
	}
	if in.Location != nil {
		p.Location = &provider.Location{DisplayName: *in.Location}
	} else if create {
		p.Location = &provider.Location{}
	}
	if in.IsAllDay != nil {
		p.IsAllDay = in.IsAllDay
	}
	return p
}
