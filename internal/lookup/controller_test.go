package lookup

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/cntry/internal/config"
	"github.com/pders01/cntry/internal/country"
	"github.com/pders01/cntry/internal/debounce"
	"github.com/pders01/cntry/internal/restcountries"
	"github.com/pders01/cntry/internal/storage"
)

// surface records container, notifier and field calls in order.
type surface struct {
	mu      sync.Mutex
	events  []string
	notices []Notice
}

func (s *surface) Clear() { s.add("clear") }

func (s *surface) Insert(markup string) { s.add("insert:" + markup) }

func (s *surface) Reset() { s.add("reset") }

func (s *surface) Notify(n Notice) {
	s.mu.Lock()
	s.notices = append(s.notices, n)
	s.mu.Unlock()
	s.add("notify:" + n.Text)
}

func (s *surface) add(e string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *surface) Events() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.events...)
}

func (s *surface) Notices() []Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Notice(nil), s.notices...)
}

type fakeFetcher struct {
	mu      sync.Mutex
	calls   []string
	results map[string][]country.Country
	errs    map[string]error
	gates   map[string]chan struct{}
	started chan string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		results: make(map[string][]country.Country),
		errs:    make(map[string]error),
		gates:   make(map[string]chan struct{}),
	}
}

func (f *fakeFetcher) FetchCountries(ctx context.Context, term string) ([]country.Country, error) {
	f.mu.Lock()
	f.calls = append(f.calls, term)
	gate := f.gates[term]
	started := f.started
	f.mu.Unlock()

	if started != nil {
		started <- term
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, &restcountries.TransportError{Err: ctx.Err()}
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.results[term], f.errs[term]
}

func (f *fakeFetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeRenderer struct {
	mu    sync.Mutex
	cards []country.CardView
	lists []country.ListView
	err   error
}

func (r *fakeRenderer) Card(card country.CardView) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cards = append(r.cards, card)
	if r.err != nil {
		return "", r.err
	}
	return "card:" + card.Name, nil
}

func (r *fakeRenderer) List(list country.ListView) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists = append(r.lists, list)
	if r.err != nil {
		return "", r.err
	}
	return "list:" + strings.Join(list.Countries, ","), nil
}

type fakeRecorder struct {
	mu      sync.Mutex
	results []Result
	err     error
}

func (r *fakeRecorder) Record(_ context.Context, res Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
	return r.err
}

type harness struct {
	ctrl     *Controller
	fetcher  *fakeFetcher
	renderer *fakeRenderer
	surface  *surface
	recorder *fakeRecorder
}

func newHarness(t *testing.T, mutate ...func(*config.LookupConfig)) *harness {
	t.Helper()
	cfg := config.TestConfig().Lookup
	for _, m := range mutate {
		m(&cfg)
	}
	h := &harness{
		fetcher:  newFakeFetcher(),
		renderer: &fakeRenderer{},
		surface:  &surface{},
		recorder: &fakeRecorder{},
	}
	h.ctrl = NewController(cfg, Collaborators{
		Fetcher:   h.fetcher,
		Renderer:  h.renderer,
		Container: h.surface,
		Notifier:  h.surface,
		Field:     h.surface,
		Recorder:  h.recorder,
	})
	return h
}

func spain() country.Country {
	return country.Country{
		Name:       "Spain",
		Capital:    "Madrid",
		Population: 46754778,
		Languages:  []country.Language{{Name: "Spanish"}},
		Flag:       "🇪🇸",
	}
}

func named(names ...string) []country.Country {
	out := make([]country.Country, 0, len(names))
	for _, n := range names {
		out = append(out, country.Country{Name: n})
	}
	return out
}

func numbered(n int) []country.Country {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("Country %d", i)
	}
	return named(names...)
}

func TestRun_SingleRendersCard(t *testing.T) {
	h := newHarness(t)
	h.fetcher.results["Spain"] = []country.Country{spain()}

	res := h.ctrl.Run(context.Background(), "Spain")

	assert.Equal(t, country.KindSingle, res.Kind)
	assert.Equal(t, 1, res.Count)
	assert.NoError(t, res.Err)
	assert.Equal(t, []string{"clear", "insert:card:Spain", "reset"}, h.surface.Events())

	require.Len(t, h.renderer.cards, 1)
	assert.Equal(t, country.CardView{
		Name:       "Spain",
		Capital:    "Madrid",
		Population: 46754778,
		Languages:  []string{"Spanish"},
		Flag:       "🇪🇸",
	}, h.renderer.cards[0])
	assert.Empty(t, h.renderer.lists)
	assert.Empty(t, h.surface.Notices())
}

func TestRun_MultipleRendersListInServiceOrder(t *testing.T) {
	h := newHarness(t)
	names := []string{"United States of America", "United Kingdom", "Tanzania, United Republic of", "United Arab Emirates"}
	h.fetcher.results["United"] = named(names...)

	res := h.ctrl.Run(context.Background(), "United")

	assert.Equal(t, country.KindMultiple, res.Kind)
	assert.Equal(t, 4, res.Count)
	assert.Equal(t, []string{"clear", "insert:list:" + strings.Join(names, ","), "reset"}, h.surface.Events())

	require.Len(t, h.renderer.lists, 1)
	assert.Equal(t, names, h.renderer.lists[0].Countries)
	assert.Equal(t, "United", h.renderer.lists[0].Term)
}

func TestRun_TooManyNotifies(t *testing.T) {
	h := newHarness(t)
	h.fetcher.results["a"] = numbered(15)

	res := h.ctrl.Run(context.Background(), "a")

	assert.Equal(t, country.KindTooMany, res.Kind)
	assert.Equal(t, 15, res.Count)

	want := "There are too many countries in the list (15). Please, make a more specific request"
	assert.Equal(t, []string{"clear", "notify:" + want, "reset"}, h.surface.Events())

	notices := h.surface.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, 1000*time.Millisecond, notices[0].Delay)
	assert.Equal(t, 40, notices[0].Width)
	assert.Equal(t, LevelWarning, notices[0].Level)
	assert.Empty(t, h.renderer.cards)
	assert.Empty(t, h.renderer.lists)
}

func TestRun_BoundaryCounts(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want country.Kind
	}{
		{"two", 2, country.KindMultiple},
		{"ten", 10, country.KindMultiple},
		{"eleven", 11, country.KindTooMany},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.fetcher.results["x"] = numbered(tt.n)

			res := h.ctrl.Run(context.Background(), "x")
			assert.Equal(t, tt.want, res.Kind)
			assert.Equal(t, tt.n, res.Count)
		})
	}
}

func TestRun_MaxResultsFromConfig(t *testing.T) {
	h := newHarness(t, func(c *config.LookupConfig) { c.MaxResults = 3 })
	h.fetcher.results["x"] = numbered(4)

	res := h.ctrl.Run(context.Background(), "x")
	assert.Equal(t, country.KindTooMany, res.Kind)
}

func TestRun_RequestFailedNotifies(t *testing.T) {
	h := newHarness(t)
	h.fetcher.errs["Xyzzy"] = &restcountries.RequestError{StatusCode: 404, Status: "Not Found"}

	res := h.ctrl.Run(context.Background(), "Xyzzy")

	assert.Equal(t, country.KindFailed, res.Kind)
	assert.True(t, errors.Is(res.Err, restcountries.ErrRequestFailed))

	want := "Sorry, there were some problems - Not Found."
	assert.Equal(t, []string{"clear", "notify:" + want, "reset"}, h.surface.Events())

	notices := h.surface.Notices()
	require.Len(t, notices, 1)
	assert.Contains(t, notices[0].Text, "Not Found")
	assert.Equal(t, 4000*time.Millisecond, notices[0].Delay)
	assert.Equal(t, LevelError, notices[0].Level)
}

func TestRun_FailuresUseGenericTemplate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "transport",
			err:  &restcountries.TransportError{Err: errors.New("dial tcp: connection refused")},
			want: "Sorry, there were some problems - dial tcp: connection refused.",
		},
		{
			name: "malformed",
			err:  &restcountries.MalformedResponseError{Reason: "expected a JSON array"},
			want: "Sorry, there were some problems - malformed response: expected a JSON array.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.fetcher.errs["Peru"] = tt.err

			res := h.ctrl.Run(context.Background(), "Peru")
			assert.Equal(t, country.KindFailed, res.Kind)
			assert.Equal(t, []string{"clear", "notify:" + tt.want, "reset"}, h.surface.Events())
		})
	}
}

func TestRun_BlankInputSkipsFetch(t *testing.T) {
	inputs := []string{"", " ", "   ", "\t\n", "   "}

	for _, in := range inputs {
		t.Run(fmt.Sprintf("%q", in), func(t *testing.T) {
			h := newHarness(t)

			res := h.ctrl.Run(context.Background(), in)

			assert.Equal(t, country.KindInvalid, res.Kind)
			assert.Empty(t, h.fetcher.Calls())
			assert.Equal(t, []string{"clear", "notify:You made a wrong request.", "reset"}, h.surface.Events())

			notices := h.surface.Notices()
			require.Len(t, notices, 1)
			assert.Equal(t, 4000*time.Millisecond, notices[0].Delay)
			assert.Empty(t, h.recorder.results)
		})
	}
}

func TestRun_TrimsTermOnly(t *testing.T) {
	h := newHarness(t)
	h.fetcher.results["Costa \t Rica"] = named("Costa Rica")

	res := h.ctrl.Run(context.Background(), "  Costa \t Rica\n")

	assert.Equal(t, "Costa \t Rica", res.Term)
	assert.Equal(t, []string{"Costa \t Rica"}, h.fetcher.Calls(), "inner whitespace is sent verbatim")
}

func TestRun_EmptyResultSetNotifiesNoMatches(t *testing.T) {
	h := newHarness(t)
	h.fetcher.results["Atlantis"] = []country.Country{}

	res := h.ctrl.Run(context.Background(), "Atlantis")

	assert.Equal(t, country.KindMultiple, res.Kind)
	assert.Equal(t, 0, res.Count)
	assert.Equal(t, []string{"clear", `notify:No countries matched "Atlantis".`, "reset"}, h.surface.Events())
	assert.Empty(t, h.renderer.lists)
}

func TestRun_RenderErrorNotifies(t *testing.T) {
	h := newHarness(t)
	h.renderer.err = errors.New("template broke")
	h.fetcher.results["Spain"] = []country.Country{spain()}

	res := h.ctrl.Run(context.Background(), "Spain")

	assert.Equal(t, country.KindFailed, res.Kind)
	assert.EqualError(t, res.Err, "template broke")
	assert.Equal(t, []string{"clear", "notify:Sorry, there were some problems - template broke.", "reset"}, h.surface.Events())
}

func TestRun_ResetsFieldExactlyOnce(t *testing.T) {
	setups := map[string]func(*fakeFetcher){
		"single":   func(f *fakeFetcher) { f.results["t"] = []country.Country{spain()} },
		"multiple": func(f *fakeFetcher) { f.results["t"] = named("A", "B") },
		"too many": func(f *fakeFetcher) { f.results["t"] = numbered(20) },
		"failed":   func(f *fakeFetcher) { f.errs["t"] = errors.New("boom") },
		"empty":    func(f *fakeFetcher) { f.results["t"] = nil },
	}

	for name, setup := range setups {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			setup(h.fetcher)

			h.ctrl.Run(context.Background(), "t")

			events := h.surface.Events()
			resets := 0
			for _, e := range events {
				if e == "reset" {
					resets++
				}
			}
			assert.Equal(t, 1, resets)
			assert.Equal(t, "reset", events[len(events)-1])
		})
	}
}

func TestRun_RecordsFinishedCycles(t *testing.T) {
	h := newHarness(t)
	h.fetcher.results["Spain"] = []country.Country{spain()}
	h.fetcher.errs["Xyzzy"] = &restcountries.RequestError{StatusCode: 404, Status: "Not Found"}

	h.ctrl.Run(context.Background(), "Spain")
	h.ctrl.Run(context.Background(), "Xyzzy")
	h.ctrl.Run(context.Background(), "  ")

	require.Len(t, h.recorder.results, 2)
	assert.Equal(t, "Spain", h.recorder.results[0].Term)
	assert.Equal(t, country.KindSingle, h.recorder.results[0].Kind)
	assert.Equal(t, country.KindFailed, h.recorder.results[1].Kind)
	assert.Equal(t, uint64(2), h.recorder.results[1].Seq)
}

func TestRun_RecorderErrorDoesNotEscape(t *testing.T) {
	h := newHarness(t)
	h.recorder.err = errors.New("disk full")
	h.fetcher.results["Spain"] = []country.Country{spain()}

	res := h.ctrl.Run(context.Background(), "Spain")
	assert.NoError(t, res.Err)
	assert.Equal(t, []string{"clear", "insert:card:Spain", "reset"}, h.surface.Events())
}

func TestRun_DiscardsStaleCycle(t *testing.T) {
	h := newHarness(t)
	h.fetcher.results["Spa"] = named("Spain", "Spanish Town")
	h.fetcher.results["Spain"] = []country.Country{spain()}
	h.fetcher.gates["Spa"] = make(chan struct{})
	h.fetcher.started = make(chan string, 2)

	done := make(chan Result, 1)
	go func() { done <- h.ctrl.Run(context.Background(), "Spa") }()
	require.Equal(t, "Spa", <-h.fetcher.started)

	second := h.ctrl.Run(context.Background(), "Spain")
	assert.Equal(t, "Spain", <-h.fetcher.started)
	assert.False(t, second.Stale)

	close(h.fetcher.gates["Spa"])
	first := <-done

	assert.True(t, first.Stale)
	assert.Less(t, first.Seq, second.Seq)
	assert.Equal(t, []string{"clear", "insert:card:Spain", "reset"}, h.surface.Events())
	require.Len(t, h.recorder.results, 1)
	assert.Equal(t, "Spain", h.recorder.results[0].Term)
}

func TestRun_LastWriterWinsWithoutDiscard(t *testing.T) {
	h := newHarness(t, func(c *config.LookupConfig) { c.DiscardStale = false })
	h.fetcher.results["Spa"] = named("Spain", "Spanish Town")
	h.fetcher.results["Spain"] = []country.Country{spain()}
	h.fetcher.gates["Spa"] = make(chan struct{})
	h.fetcher.started = make(chan string, 2)

	done := make(chan Result, 1)
	go func() { done <- h.ctrl.Run(context.Background(), "Spa") }()
	require.Equal(t, "Spa", <-h.fetcher.started)

	h.ctrl.Run(context.Background(), "Spain")
	<-h.fetcher.started

	close(h.fetcher.gates["Spa"])
	first := <-done

	assert.False(t, first.Stale)
	assert.Equal(t, []string{
		"clear", "insert:card:Spain", "reset",
		"clear", "insert:list:Spain,Spanish Town", "reset",
	}, h.surface.Events())
}

func TestHandle_UsesBaseContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := newHarness(t)
	h.fetcher.gates["Spain"] = make(chan struct{})
	h.ctrl = NewController(config.TestConfig().Lookup, Collaborators{
		Fetcher:   h.fetcher,
		Renderer:  h.renderer,
		Container: h.surface,
		Notifier:  h.surface,
		Field:     h.surface,
	}, WithBaseContext(ctx))

	h.ctrl.Handle("Spain")

	events := h.surface.Events()
	require.Len(t, events, 3)
	assert.Contains(t, events[1], "context canceled")
}

func TestClose_WaitsForRunningCycle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := newHarness(t)
	h.fetcher.gates["Spain"] = make(chan struct{})
	h.fetcher.started = make(chan string, 1)
	h.ctrl = NewController(config.TestConfig().Lookup, Collaborators{
		Fetcher:   h.fetcher,
		Renderer:  h.renderer,
		Container: h.surface,
		Notifier:  h.surface,
		Field:     h.surface,
		Recorder:  h.recorder,
	}, WithBaseContext(ctx))

	go h.ctrl.Handle("Spain")
	require.Equal(t, "Spain", <-h.fetcher.started)

	closed := make(chan struct{})
	go func() {
		h.ctrl.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("Close returned while a cycle was still fetching")
	case <-time.After(20 * time.Millisecond):
	}

	cancel()
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Close did not return after the cycle finished")
	}

	events := h.surface.Events()
	require.NotEmpty(t, events)
	assert.Equal(t, "reset", events[len(events)-1], "the cycle finished before Close returned")

	h.recorder.mu.Lock()
	defer h.recorder.mu.Unlock()
	assert.Empty(t, h.recorder.results, "cancelled cycles are not recorded")
}

func TestRun_AfterCloseDoesNothing(t *testing.T) {
	h := newHarness(t)
	h.fetcher.results["Spain"] = []country.Country{spain()}
	h.ctrl.Close()
	h.ctrl.Close()

	res := h.ctrl.Run(context.Background(), " Spain ")

	assert.ErrorIs(t, res.Err, ErrClosed)
	assert.True(t, res.Stale)
	assert.Equal(t, "Spain", res.Term)
	assert.Empty(t, h.fetcher.Calls())
	assert.Empty(t, h.surface.Events())
	assert.Empty(t, h.recorder.results)
}

func TestHandle_DebouncedBurstRunsOneCycle(t *testing.T) {
	h := newHarness(t)
	h.fetcher.results["Spain"] = []country.Country{spain()}

	d := debounce.New(20*time.Millisecond, h.ctrl.Handle)
	for _, in := range []string{"S", "Sp", "Spa", "Spai", "Spain"} {
		d.Call(in)
	}

	assert.Eventually(t, func() bool {
		events := h.surface.Events()
		return len(events) > 0 && events[len(events)-1] == "reset"
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{"Spain"}, h.fetcher.Calls())
	assert.Equal(t, uint64(1), h.ctrl.Seq())
}

func TestNewController_Defaults(t *testing.T) {
	ctrl := NewController(config.LookupConfig{}, Collaborators{})

	assert.Equal(t, country.TooManyThreshold, ctrl.maxResults)
	assert.Equal(t, 4*time.Second, ctrl.errorDelay)
	assert.Equal(t, 1*time.Second, ctrl.tooManyDelay)
	assert.Equal(t, 40, ctrl.noticeWidth)
	assert.False(t, ctrl.discardStale)
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "info", LevelInfo.String())
	assert.Equal(t, "warning", LevelWarning.String())
	assert.Equal(t, "error", LevelError.String())
	assert.Equal(t, "level(9)", Level(9).String())
}

type fakeIndex struct {
	indexed []*storage.HistoryEntry
	deleted []string
}

func (f *fakeIndex) Index(e *storage.HistoryEntry) error {
	f.indexed = append(f.indexed, e)
	return nil
}

func (f *fakeIndex) Delete(ids ...string) error {
	f.deleted = append(f.deleted, ids...)
	return nil
}

func TestHistoryRecorder(t *testing.T) {
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "history.db"), storage.WithMaxHistory(1))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	idx := &fakeIndex{}
	rec := NewHistoryRecorder(store, idx)

	require.NoError(t, rec.Record(context.Background(), Result{Term: "Spain", Kind: country.KindSingle, Count: 1}))
	require.NoError(t, rec.Record(context.Background(), Result{
		Term: "Xyzzy",
		Kind: country.KindFailed,
		Err:  &restcountries.RequestError{StatusCode: 404, Status: "Not Found"},
	}))

	recent, err := store.RecentLookups(0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "Xyzzy", recent[0].Term)
	assert.Equal(t, "failed", recent[0].Kind)
	assert.Equal(t, "Not Found", recent[0].Error)

	require.Len(t, idx.indexed, 2)
	require.Len(t, idx.deleted, 1)
	assert.Equal(t, idx.indexed[0].ID, idx.deleted[0])
}

func TestHistoryRecorder_WithoutIndex(t *testing.T) {
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	rec := NewHistoryRecorder(store, nil)
	require.NoError(t, rec.Record(context.Background(), Result{Term: "Peru", Kind: country.KindSingle, Count: 1}))

	n, err := store.HistoryCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestEntryFor(t *testing.T) {
	entry := EntryFor(Result{Term: "United", Kind: country.KindMultiple, Count: 4})
	assert.Equal(t, "United", entry.Term)
	assert.Equal(t, "multiple", entry.Kind)
	assert.Equal(t, 4, entry.Count)
	assert.Empty(t, entry.Error)
}
