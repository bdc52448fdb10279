package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/planwell/calsync/internal/provider"
	"github.com/planwell/calsync/internal/store"
)

type staticTokens struct{}

func (staticTokens) AccessToken(ctx context.Context) (string, error) { return "tok", nil }
func (staticTokens) AcquireTokenSilently(ctx context.Context) error  { return nil }
func (staticTokens) HandleAuthenticationFailure()                    {}

type catalogServer struct {
	groups         string
	calendars      string
	groupCalendars map[string]string
	requests       atomic.Int32
	failing        atomic.Bool
	mu             sync.Mutex
	paths          []string
}

func (cs *catalogServer) record(path string) bool {
	cs.requests.Add(1)
	cs.mu.Lock()
	cs.paths = append(cs.paths, path)
	cs.mu.Unlock()
	return cs.failing.Load()
}

func (cs *catalogServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/me/calendarGroups", func(w http.ResponseWriter, r *http.Request) {
		if cs.record(r.URL.Path) {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(cs.groups))
	})
	mux.HandleFunc("/me/calendars", func(w http.ResponseWriter, r *http.Request) {
		if cs.record(r.URL.Path) {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(cs.calendars))
	})
	mux.HandleFunc("/me/calendarGroups/", func(w http.ResponseWriter, r *http.Request) {
		if cs.record(r.URL.Path) {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		for id, body := range cs.groupCalendars {
			if r.URL.Path == "/me/calendarGroups/"+id+"/calendars" {
				w.Write([]byte(body))
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	})
	return mux
}

func newTestService(t *testing.T, cs *catalogServer) (*Service, *store.Store) {
	t.Helper()
	srv := httptest.NewServer(cs.handler())
	t.Cleanup(srv.Close)

	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	client := provider.NewClient(srv.URL, staticTokens{})
	return NewService(client, st), st
}

func defaultServer() *catalogServer {
	return &catalogServer{
		groups:    `{"value":[{"id":"g1","name":"My Calendars"}]}`,
		calendars: `{"value":[{"id":"c1","name":"Work"},{"id":"c2","name":"Home"}]}`,
		groupCalendars: map[string]string{
			"g1": `{"value":[{"id":"c1","name":"Work"}]}`,
		},
	}
}

func TestGetAllSyncsWhenCacheEmpty(t *testing.T) {
	cs := defaultServer()
	svc, _ := newTestService(t, cs)

	groups, calendars, err := svc.GetAll(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups) != 1 || len(calendars) != 2 {
		t.Errorf("expected 1 group and 2 calendars, got %d and %d", len(groups), len(calendars))
	}

	meta := svc.Meta()
	if meta == nil {
		t.Fatal("expected sync meta to be recorded")
	}
	if meta.IsOfflineMode {
		t.Error("successful sync must not be flagged offline")
	}
	if meta.CalendarGroupsCount != 1 || meta.CalendarsCount != 2 {
		t.Errorf("unexpected counts in meta: %+v", meta)
	}
	if meta.LastSyncTime == "" {
		t.Error("expected last sync time to be set")
	}
}

func TestGetAllServesFromCache(t *testing.T) {
	cs := defaultServer()
	svc, _ := newTestService(t, cs)

	if _, _, err := svc.GetAll(context.Background(), false); err != nil {
		t.Fatalf("initial sync failed: %v", err)
	}
	before := cs.requests.Load()

	groups, calendars, err := svc.GetAll(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups) != 1 || len(calendars) != 2 {
		t.Errorf("expected cached catalog, got %d groups and %d calendars", len(groups), len(calendars))
	}
	if got := cs.requests.Load(); got != before {
		t.Errorf("expected no new requests, got %d more", got-before)
	}
}

func TestForceSyncReplacesCatalogWholesale(t *testing.T) {
	cs := defaultServer()
	svc, _ := newTestService(t, cs)

	if _, _, err := svc.GetAll(context.Background(), false); err != nil {
		t.Fatalf("initial sync failed: %v", err)
	}

	// The remote drops one calendar; a forced refresh must not keep it.
	cs.calendars = `{"value":[{"id":"c1","name":"Work"}]}`

	_, calendars, err := svc.GetAll(context.Background(), true)
	if err != nil {
		t.Fatalf("forced sync failed: %v", err)
	}
	if len(calendars) != 1 {
		t.Fatalf("expected stale calendar to be dropped, got %d calendars", len(calendars))
	}
	if calendars[0].ID != "c1" {
		t.Errorf("expected remaining calendar c1, got %s", calendars[0].ID)
	}
}

func TestSyncIncludesUngroupedCalendars(t *testing.T) {
	// c2 appears only in the account-level listing, not in any group.
	cs := defaultServer()
	svc, _ := newTestService(t, cs)

	if err := svc.SyncFromRemote(context.Background()); err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	calendars := svc.CachedCalendars()
	if len(calendars) != 2 {
		t.Fatalf("expected both calendars cached, got %d", len(calendars))
	}
	found := false
	for _, c := range calendars {
		if c.ID == "c2" {
			found = true
		}
	}
	if !found {
		t.Error("expected ungrouped calendar c2 in the cache")
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()
	for _, p := range cs.paths {
		if strings.HasSuffix(p, "/calendars") && strings.Contains(p, "calendarGroups/") {
			t.Errorf("sync must not list calendars per group, saw %s", p)
		}
	}
}

func TestSyncFailureKeepsCacheAndFlagsOffline(t *testing.T) {
	cs := defaultServer()
	svc, _ := newTestService(t, cs)

	if _, _, err := svc.GetAll(context.Background(), false); err != nil {
		t.Fatalf("initial sync failed: %v", err)
	}

	cs.failing.Store(true)
	if err := svc.SyncFromRemote(context.Background()); err == nil {
		t.Fatal("expected sync to fail")
	}

	if got := len(svc.CachedCalendars()); got != 2 {
		t.Errorf("expected cached catalog to survive, got %d calendars", got)
	}
	meta := svc.Meta()
	if meta == nil || !meta.IsOfflineMode {
		t.Errorf("expected offline flag after failed sync, got %+v", meta)
	}
}

func TestListCalendarsInGroup(t *testing.T) {
	cs := defaultServer()
	svc, _ := newTestService(t, cs)

	calendars, err := svc.ListCalendarsInGroup(context.Background(), "g1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(calendars) != 1 || calendars[0].ID != "c1" {
		t.Errorf("expected the group's single calendar, got %+v", calendars)
	}
}

func TestClearCache(t *testing.T) {
	cs := defaultServer()
	svc, _ := newTestService(t, cs)

	if _, _, err := svc.GetAll(context.Background(), false); err != nil {
		t.Fatalf("initial sync failed: %v", err)
	}
	if err := svc.ClearCache(); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	if got := svc.CachedGroups(); len(got) != 0 {
		t.Errorf("expected empty groups after clear, got %d", len(got))
	}
	if got := svc.CachedCalendars(); len(got) != 0 {
		t.Errorf("expected empty calendars after clear, got %d", len(got))
	}
	if svc.Meta() != nil {
		t.Error("expected meta to be cleared")
	}
}

func TestSelectedCalendarRoundTrip(t *testing.T) {
	svc, _ := newTestService(t, defaultServer())

	if _, ok := svc.SelectedCalendarID(); ok {
		t.Error("expected no selection initially")
	}

	if err := svc.SetSelectedCalendarID("c2"); err != nil {
		t.Fatalf("failed to persist selection: %v", err)
	}

	id, ok := svc.SelectedCalendarID()
	if !ok || id != "c2" {
		t.Errorf("expected selection c2, got %q (%v)", id, ok)
	}
}
