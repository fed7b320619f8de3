package catalog

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"dlhd-resolver/pkg/fetch"
	"dlhd-resolver/pkg/fetch/fetchtest"
	"dlhd-resolver/pkg/logging"
	"dlhd-resolver/pkg/types"
)

const (
	primary = "https://dlhd.dad"
	legacy  = "https://daddylivestream.com"
)

const channelsHTML = `<html><body>
<a class="card" href="/watch.php?id=51"><div>ABC USA</div></a>
<a class="card" href="/watch.php?id=44"><div>ESPN</div></a>
<a class="card" href="/watch.php"><div>Broken</div></a>
</body></html>`

const legacyChannelsHTML = `<html><body>
<a href="/">1</a><a href="/">2</a><a href="/">3</a><a href="/">4</a>
<a href="/">5</a><a href="/">6</a><a href="/">7</a><a href="/">8</a>
<a href="/stream/stream-51.php">ABC USA</a>
<a href="/stream/stream-51.php">ABC USA (dup)</a>
<a href="/stream/stream-44.php">ESPN</a>
</body></html>`

const scheduleHTML = `<html><body>
<div class="schedule__day">
  <div class="schedule__dayTitle">Saturday 18th Oct 2026 - Schedule Time UK GMT</div>
  <div class="schedule__category is-expanded">
    <div class="card__meta">Soccer</div>
    <div class="schedule__event">
      <span class="schedule__time">15:00</span>
      <span class="schedule__eventTitle">England Premier League : Arsenal vs Chelsea</span>
      <div class="schedule__channels">
        <a href="/watch.php?id=35">Sky Sports Football</a>
        <a href="/watch.php?id=130">Sky Sports Main Event</a>
        <a href="/watch.php">No id</a>
      </div>
    </div>
  </div>
  <div class="schedule__category">
    <div class="card__meta">Collapsed</div>
    <div class="schedule__event"><span class="schedule__eventTitle">Hidden</span></div>
  </div>
</div>
<div class="schedule__day">
  <div class="schedule__dayTitle">Sunday 19th Oct 2026 - Schedule Time UK GMT</div>
  <div class="schedule__category is-expanded">
    <div class="card__meta">Basketball</div>
    <div class="schedule__event">
      <span class="schedule__time">20:30</span>
      <span class="schedule__eventTitle">NBA : Lakers vs Celtics</span>
      <div class="schedule__channels"><a href="https://dlhd.dad/watch.php?id=44">ESPN</a></div>
    </div>
  </div>
</div>
<div class="schedule__day"><div class="schedule__dayTitle">Empty day</div></div>
</body></html>`

func newCatalog(router *fetchtest.Router) *Catalog {
	log := logging.New("error", false, io.Discard)
	return New(fetch.New(router, time.Second, log), Options{
		PrimaryURL:   primary,
		LegacyURL:    legacy,
		UserAgent:    "UA/1.0",
		FetchTimeout: time.Second,
		TTL:          time.Minute,
	}, log)
}

func sitePages(byPath map[string]string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := byPath[r.URL.Path]
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Write([]byte(body))
	}
}

func TestCatalog_Channels(t *testing.T) {
	router := fetchtest.NewRouter()
	router.HandleFunc(primary, sitePages(map[string]string{channelsPath: channelsHTML}))
	c := newCatalog(router)

	got, err := c.Channels(context.Background())
	if err != nil {
		t.Fatalf("Channels() error = %v", err)
	}
	want := []types.Channel{
		{Name: "ABC USA", ID: "51", Reference: "/stream/stream-51.php"},
		{Name: "ESPN", ID: "44", Reference: "/stream/stream-44.php"},
	}
	if len(got) != len(want) {
		t.Fatalf("Channels() = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("channel[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}

	if _, err := c.Channels(context.Background()); err != nil {
		t.Fatalf("second Channels() error = %v", err)
	}
	if n := router.Count(primary + channelsPath); n != 1 {
		t.Errorf("channel page fetched %d times, want 1 (cached)", n)
	}

	c.Refresh()
	if _, err := c.Channels(context.Background()); err != nil {
		t.Fatalf("Channels() after Refresh error = %v", err)
	}
	if n := router.Count(primary + channelsPath); n != 2 {
		t.Errorf("channel page fetched %d times after Refresh, want 2", n)
	}
}

func TestCatalog_ChannelsLegacyFallback(t *testing.T) {
	router := fetchtest.NewRouter()
	router.HandleFunc(primary, sitePages(nil))
	router.HandleFunc(legacy, sitePages(map[string]string{channelsPath: legacyChannelsHTML}))

	got, err := newCatalog(router).Channels(context.Background())
	if err != nil {
		t.Fatalf("Channels() error = %v", err)
	}
	want := []types.Channel{
		{Name: "ABC USA", ID: "51", Reference: "/stream/stream-51.php"},
		{Name: "ESPN", ID: "44", Reference: "/stream/stream-44.php"},
	}
	if len(got) != len(want) {
		t.Fatalf("Channels() = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("channel[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestCatalog_ChannelsUnavailable(t *testing.T) {
	router := fetchtest.NewRouter()
	router.HandleFunc(primary, sitePages(nil))

	if _, err := newCatalog(router).Channels(context.Background()); err == nil {
		t.Fatal("Channels() error = nil, want error when both layouts fail")
	}
}

func TestCatalog_Schedule(t *testing.T) {
	router := fetchtest.NewRouter()
	router.HandleFunc(primary, sitePages(map[string]string{schedulePath: scheduleHTML}))

	events, err := newCatalog(router).Schedule(context.Background())
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Schedule() returned %d events, want 2: %+v", len(events), events)
	}

	first := events[0]
	if first.Title != "England Premier League : Arsenal vs Chelsea" {
		t.Errorf("Title = %q", first.Title)
	}
	if first.Date != "Saturday 18th Oct 2026" {
		t.Errorf("Date = %q", first.Date)
	}
	if first.Category != "Soccer" || first.Time != "15:00" {
		t.Errorf("Category/Time = %q/%q", first.Category, first.Time)
	}
	if len(first.Channels) != 3 {
		t.Fatalf("Channels = %+v, want 3", first.Channels)
	}
	if first.Channels[1] != (types.EventChannel{Name: "Sky Sports Main Event", ID: "130"}) {
		t.Errorf("Channels[1] = %+v", first.Channels[1])
	}
	if events[1].Channels[0].ID != "44" {
		t.Errorf("absolute channel href id = %q, want 44", events[1].Channels[0].ID)
	}
}

func TestMatchLinks(t *testing.T) {
	router := fetchtest.NewRouter()
	router.HandleFunc(primary, sitePages(map[string]string{schedulePath: scheduleHTML}))
	c := newCatalog(router)

	tests := []struct {
		name  string
		title string
		want  []types.StreamPair
	}{
		{
			name:  "exact title ignoring case",
			title: "england premier league : arsenal vs chelsea",
			want: []types.StreamPair{
				{Label: "Sky Sports Football", Reference: "/stream/stream-35.php"},
				{Label: "Sky Sports Main Event", Reference: "/stream/stream-130.php"},
			},
		},
		{
			name:  "substring",
			title: "Lakers",
			want:  []types.StreamPair{{Label: "ESPN", Reference: "/stream/stream-44.php"}},
		},
		{name: "no match", title: "Cricket", want: nil},
		{name: "blank", title: " ", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.MatchLinks(context.Background(), tt.title)
			if err != nil {
				t.Fatalf("MatchLinks() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("MatchLinks() = %+v, want %+v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("pair[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestKeywords(t *testing.T) {
	got := Keywords("The  Lakers vs the CELTICS at home")
	want := []string{"lakers", "vs", "celtics", "home"}
	if len(got) != len(want) {
		t.Fatalf("Keywords() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Keywords()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCatalog_Search(t *testing.T) {
	router := fetchtest.NewRouter()
	router.HandleFunc(primary, sitePages(map[string]string{
		schedulePath: scheduleHTML,
		channelsPath: channelsHTML,
	}))
	c := newCatalog(router)

	res, err := c.Search(context.Background(), "the espn lakers")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(res.Events) != 1 || res.Events[0].Title != "NBA : Lakers vs Celtics" {
		t.Errorf("Events = %+v", res.Events)
	}
	if len(res.Channels) != 1 || res.Channels[0].Name != "ESPN" {
		t.Errorf("Channels = %+v", res.Channels)
	}

	empty, err := c.Search(context.Background(), "the of and")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(empty.Events) != 0 || len(empty.Channels) != 0 {
		t.Errorf("stopword-only Search() = %+v, want empty", empty)
	}
}
