package catalog

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
	"github.com/planwell/calsync/internal/store"
)

// SyncMeta records the outcome of the last catalog synchronization.
type SyncMeta struct {
	LastSyncTime        string `json:"lastSyncTime"`
	CalendarGroupsCount int    `json:"calendarGroupsCount"`
	CalendarsCount      int    `json:"calendarsCount"`
	IsOfflineMode       bool   `json:"isOfflineMode"`
}

// Service maintains a local cache of the account's calendar groups and
// calendars, refreshed wholesale from the remote provider.
type Service struct {
	client *provider.Client
	store  *store.Store
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(client *provider.Client, st *store.Store, opts ...Option) *Service {
	s := &Service{
		client: client,
		store:  st,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = logging.WithComponent(s.logger, "catalog")
	return s
}

// CachedGroups returns the locally cached calendar groups. A missing or
// unreadable cache yields an empty slice.
func (s *Service) CachedGroups() []provider.CalendarGroup {
	var groups []provider.CalendarGroup
	if _, err := s.store.GetJSON(store.KeyCalendarGroups, &groups); err != nil {
		s.logger.Error("failed to read cached groups", logging.Err(err))
		return nil
	}
	return groups
}

// CachedCalendars returns the locally cached calendars. A missing or
// unreadable cache yields an empty slice.
func (s *Service) CachedCalendars() []provider.Calendar {
	var calendars []provider.Calendar
	if _, err := s.store.GetJSON(store.KeyCalendars, &calendars); err != nil {
		s.logger.Error("failed to read cached calendars", logging.Err(err))
		return nil
	}
	return calendars
}

// Meta returns the last recorded sync metadata, or nil when the catalog
// has never been synchronized.
func (s *Service) Meta() *SyncMeta {
	var meta SyncMeta
	ok, err := s.store.GetJSON(store.KeySyncMeta, &meta)
	if err != nil {
		s.logger.Error("failed to read sync meta", logging.Err(err))
		return nil
	}
	if !ok {
		return nil
	}
	return &meta
}

// GetAll returns the catalog, serving from cache when it is populated.
// force bypasses the cache and always refreshes from the remote provider.
func (s *Service) GetAll(ctx context.Context, force bool) ([]provider.CalendarGroup, []provider.Calendar, error) {
	if !force {
		groups := s.CachedGroups()
		calendars := s.CachedCalendars()
		if len(groups) > 0 || len(calendars) > 0 {
			return groups, calendars, nil
		}
	}

	if err := s.SyncFromRemote(ctx); err != nil {
		return nil, nil, err
	}
	return s.CachedGroups(), s.CachedCalendars(), nil
}

// SyncFromRemote replaces the cached catalog with a fresh listing of every
// group and every calendar. The replacement is wholesale so calendars
// deleted remotely disappear from the cache. On failure the existing cache
// is kept and its metadata is flagged offline.
func (s *Service) SyncFromRemote(ctx context.Context) error {
	groups, err := s.ListGroups(ctx)
	if err != nil {
		s.markOffline()
		return fmt.Errorf("failed to sync calendar groups: %w", err)
	}

	// The account-level listing covers every calendar, including ones
	// outside any listed group.
	calendars, err := s.ListCalendars(ctx)
	if err != nil {
		s.markOffline()
		return fmt.Errorf("failed to sync calendars: %w", err)
	}

	if err := s.store.PutJSON(store.KeyCalendarGroups, groups); err != nil {
		return fmt.Errorf("failed to cache groups: %w", err)
	}
	if err := s.store.PutJSON(store.KeyCalendars, calendars); err != nil {
		return fmt.Errorf("failed to cache calendars: %w", err)
	}

	meta := SyncMeta{
		LastSyncTime:        s.now().UTC().Format(time.RFC3339),
		CalendarGroupsCount: len(groups),
		CalendarsCount:      len(calendars),
		IsOfflineMode:       false,
	}
	if err := s.store.PutJSON(store.KeySyncMeta, &meta); err != nil {
		return fmt.Errorf("failed to record sync meta: %w", err)
	}

	s.logger.Info("catalog synchronized",
		logging.Operation("sync"),
		logging.Count(len(calendars)))
	return nil
}

// markOffline flags the existing metadata so readers know the cache may be
// stale. The cached catalog itself is left untouched.
func (s *Service) markOffline() {
	meta := s.Meta()
	if meta == nil {
		meta = &SyncMeta{}
	}
	meta.IsOfflineMode = true
	if err := s.store.PutJSON(store.KeySyncMeta, meta); err != nil {
		s.logger.Error("failed to flag offline mode", logging.Err(err))
	}
}

// ClearCache removes the cached catalog and its metadata.
func (s *Service) ClearCache() error {
	for _, key := range []string{store.KeyCalendarGroups, store.KeyCalendars, store.KeySyncMeta} {
		if err := s.store.Delete(key); err != nil {
			return fmt.Errorf("failed to clear catalog cache: %w", err)
		}
	}
	return nil
}

// SelectedCalendarID returns the calendar chosen as the sync target.
func (s *Service) SelectedCalendarID() (string, bool) {
	raw, ok, err := s.store.Get(store.KeySelectedCalendar)
	if err != nil {
		s.logger.Error("failed to read selected calendar", logging.Err(err))
		return "", false
	}
	if !ok || len(raw) == 0 {
		return "", false
	}
	return string(raw), true
}

// SetSelectedCalendarID persists the calendar chosen as the sync target.
func (s *Service) SetSelectedCalendarID(id string) error {
	if err := s.store.Put(store.KeySelectedCalendar, []byte(id)); err != nil {
		return fmt.Errorf("failed to persist selected calendar: %w", err)
	}
	return nil
}

// ListGroups fetches every calendar group from the remote provider.
func (s *Service) ListGroups(ctx context.Context) ([]provider.CalendarGroup, error) {
	raw, err := s.client.Call(ctx, http.MethodGet, "/me/calendarGroups", nil)
	if err != nil {
		return nil, err
	}
	var page provider.CalendarGroupsPage
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("failed to decode calendar groups: %w", err)
	}
	return page.Value, nil
}

// ListCalendarsInGroup fetches the calendars of a single group.
func (s *Service) ListCalendarsInGroup(ctx context.Context, groupID string) ([]provider.Calendar, error) {
	endpoint := fmt.Sprintf("/me/calendarGroups/%s/calendars", url.PathEscape(groupID))
	raw, err := s.client.Call(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	var page provider.CalendarsPage
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("failed to decode calendars: %w", err)
	}
	return page.Value, nil
}

// ListCalendars fetches the account's calendars outside any grouping.
func (s *Service) ListCalendars(ctx context.Context) ([]provider.Calendar, error) {
	raw, err := s.client.Call(ctx, http.MethodGet, "/me/calendars", nil)
	if err != nil {
		return nil, err
	}
	var page provider.CalendarsPage
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("failed to decode calendars: %w", err)
	}
	return page.Value, nil
}

// CreateGroup creates a calendar group with the given name.
func (s *Service) CreateGroup(ctx context.Context, name string) (*provider.CalendarGroup, error) {
	body := map[string]string{"name": name}
	raw, err := s.client.Call(ctx, http.MethodPost, "/me/calendarGroups", body)
	if err != nil {
		return nil, err
	}
	var group provider.CalendarGroup
	if err := json.Unmarshal(raw, &group); err != nil {
		return nil, fmt.Errorf("failed to decode created group: %w", err)
	}
	return &group, nil
}

// CreateCalendarInGroup creates a calendar inside the given group.
func (s *Service) CreateCalendarInGroup(ctx context.Context, groupID, name, color string) (*provider.Calendar, error) {
	body := map[string]string{"name": name}
	if color != "" {
		body["color"] = color
	}
	endpoint := fmt.Sprintf("/me/calendarGroups/%s/calendars", url.PathEscape(groupID))
	raw, err := s.client.Call(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, err
	}
	var cal provider.Calendar
	if err := json.Unmarshal(raw, &cal); err != nil {
		return nil, fmt.Errorf("failed to decode created calendar: %w", err)
	}
	return &cal, nil
}

// DeleteGroup deletes a calendar group.
func (s *Service) DeleteGroup(ctx context.Context, groupID string) error {
	endpoint := fmt.Sprintf("/me/calendarGroups/%s", url.PathEscape(groupID))
	if _, err := s.client.Call(ctx, http.MethodDelete, endpoint, nil); err != nil {
		return err
	}
	return nil
}
