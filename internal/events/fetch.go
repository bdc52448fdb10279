package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/planwell/calsync/internal/logging"
	"github.com/planwell/calsync/internal/provider"
)

const (
	// maxEventPages caps pagination. Hitting the cap is a logged
	// truncation, not an error; partial results are still returned.
	maxEventPages = 10

	// pageSize is the per-page $top value.
	pageSize = 1000
)

// eventSelectFields is the $select projection requested from the provider.
const eventSelectFields = "id,subject,bodyPreview,start,end,location,organizer,attendees,isAllDay,createdDateTime,lastModifiedDateTime"

// Session is the slice of the auth manager the pipeline needs: whether
// results are fabricated locally, and the ability to degrade into that
// state when the remote is unreachable.
type Session interface {
	Simulated() bool
	EnterSimulation()
}

// CalendarSelector resolves the calendar chosen as the default sync
// target.
type CalendarSelector interface {
	SelectedCalendarID() (string, bool)
}

// Service is the event fetch pipeline and mutation gateway.
type Service struct {
	client      *provider.Client
	session     Session
	selector    CalendarSelector
	logger      *slog.Logger
	ongoingDays int
	now         func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithOngoingDays sets how many past days the derived fetch window keeps.
func WithOngoingDays(days int) Option {
	return func(s *Service) { s.ongoingDays = days }
}

// WithCalendarSelector supplies the default-calendar lookup used by
// SyncEventToCalendar.
func WithCalendarSelector(sel CalendarSelector) Option {
	return func(s *Service) { s.selector = sel }
}

func NewService(client *provider.Client, session Session, opts ...Option) *Service {
	s := &Service{
		client:      client,
		session:     session,
		ongoingDays: 1,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = logging.WithComponent(s.logger, "events")
	return s
}

// FetchEvents lists events from the given calendar (the account default
// when calendarID is empty) and normalizes them. A zero start and end
// derive a window from the ongoing-days setting; that derived window is
// fetched deliberately wide and re-filtered locally, because the remote
// date filter operates in UTC while the product's day boundaries are
// local. Remote failure degrades the session to simulation and returns an
// empty slice; callers inspect the session mode to tell "offline" from
// "no events".
func (s *Service) FetchEvents(ctx context.Context, calendarID string, start, end time.Time) ([]NormalizedEvent, error) {
	if s.session.Simulated() {
		s.logger.Info("fetch skipped in simulation mode", logging.Operation("fetch"))
		return nil, nil
	}

	derived := start.IsZero() && end.IsZero()
	if derived {
		start, end = s.deriveWindow()
	}

	remote, err := s.fetchPages(ctx, calendarID, start, end)
	if err != nil {
		s.logger.Error("fetch failed, degrading to simulation",
			logging.Operation("fetch"),
			logging.CalendarID(calendarID),
			logging.Err(err))
		s.session.EnterSimulation()
		return []NormalizedEvent{}, nil
	}

	now := s.now()
	events := make([]NormalizedEvent, 0, len(remote))
	for _, e := range remote {
		events = append(events, normalizeEvent(e, calendarID, now))
	}

	if derived {
		events = s.refilter(events)
	}

	s.logger.Info("events fetched",
		logging.Operation("fetch"),
		logging.CalendarID(calendarID),
		logging.Count(len(events)))
	return events, nil
}

// deriveWindow builds the wide fetch window from the ongoing-days setting:
// one extra day of slack on the past side, two days ahead.
func (s *Service) deriveWindow() (time.Time, time.Time) {
	local := s.now().UTC().Add(localOffset)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)

	start := dayStart.AddDate(0, 0, -(s.ongoingDays + 1))
	end := dayStart.AddDate(0, 0, 2).Add(24*time.Hour - time.Millisecond)

	// Back to UTC instants for the provider-side filter.
	return start.Add(-localOffset), end.Add(-localOffset)
}

// refilter applies the strict local-day window on converted start times.
// Events without a start are dropped.
func (s *Service) refilter(events []NormalizedEvent) []NormalizedEvent {
	local := s.now().UTC().Add(localOffset)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	lower := dayStart.AddDate(0, 0, -s.ongoingDays)
	upper := dayStart.AddDate(0, 0, 2).Add(24*time.Hour - time.Millisecond)

	kept := events[:0]
	for _, e := range events {
		if e.StartTime == "" {
			continue
		}
		st, err := parseLocal(e.StartTime)
		if err != nil {
			continue
		}
		if st.Before(lower) || st.After(upper) {
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

func (s *Service) fetchPages(ctx context.Context, calendarID string, start, end time.Time) ([]provider.Event, error) {
	endpoint := "/me/events"
	if calendarID != "" {
		endpoint = fmt.Sprintf("/me/calendars/%s/events", url.PathEscape(calendarID))
	}

	q := url.Values{}
	q.Set("$select", eventSelectFields)
	q.Set("$orderby", "start/dateTime desc")
	q.Set("$top", fmt.Sprint(pageSize))
	q.Set("$filter", fmt.Sprintf("start/dateTime ge '%s' and start/dateTime lt '%s'",
		start.UTC().Format(localNaiveLayout), end.UTC().Format(localNaiveLayout)))

	var all []provider.Event
	raw, err := s.client.Call(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	for page := 1; ; page++ {
		if err != nil {
			return nil, err
		}

		var p provider.EventsPage
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("failed to decode events page: %w", err)
		}
		all = append(all, p.Value...)

		if p.NextLink == "" {
			break
		}
		if page >= maxEventPages {
			s.logger.Warn("pagination ceiling hit, returning partial results",
				logging.Operation("fetch"),
				logging.Pages(page),
				logging.Count(len(all)))
			break
		}
		raw, err = s.client.CallURL(ctx, http.MethodGet, p.NextLink, nil)
	}
	return all, nil
}
