package resolver

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"dlhd-resolver/pkg/extractors"
	"dlhd-resolver/pkg/fetch"
	"dlhd-resolver/pkg/fetch/fetchtest"
	"dlhd-resolver/pkg/logging"
	"dlhd-resolver/pkg/registry"
	"dlhd-resolver/pkg/types"
)

const (
	primary = "https://dlhd.dad"
	legacy  = "https://daddylivestream.com"
	testUA  = "UA/1.0"
	ref     = "/stream/stream-51.php"
)

func testLogger() *logging.Logger {
	return logging.New("error", false, io.Discard)
}

// pages serves body by path and 404s everything else.
func pages(byPath map[string]string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := byPath[r.URL.Path]
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Write([]byte(body))
	}
}

func iframe(src string) string {
	return `<html><body><iframe src="` + src + `" width="100%"></iframe></body></html>`
}

func newResolver(router *fetchtest.Router) *Resolver {
	log := testLogger()
	fetcher := fetch.New(router, time.Second, log)

	reg := registry.NewExtractorRegistry()
	reg.Register(extractors.NewTokenBundleExtractor(fetcher, "https://auth.example", log))
	reg.Register(extractors.NewAtobExtractor(fetcher, log))
	reg.Register(extractors.NewBlogspotExtractor(log))
	reg.Register(extractors.NewPlayVarExtractor(log))

	return New(fetcher, reg, Options{
		PrimaryURL:     primary,
		LegacyURL:      legacy,
		UserAgent:      testUA,
		FetchTimeout:   time.Second,
		WrapperTimeout: time.Second,
	}, log)
}

func TestResolve_BlankReference(t *testing.T) {
	r := newResolver(fetchtest.NewRouter())
	if _, err := r.Resolve(context.Background(), "  "); !errors.Is(err, types.ErrBlankReference) {
		t.Fatalf("Resolve() error = %v, want ErrBlankReference", err)
	}
}

func TestResolve_LoveCDNShortCircuit(t *testing.T) {
	router := fetchtest.NewRouter()
	router.HandleFunc(primary, pages(map[string]string{
		"/stream/stream-51.php": iframe("https://wikisport.example/embed/51"),
	}))
	router.Page("https://wikisport.example", iframe("https://x.lovecdn.ru/abc/embed.html"))

	res, err := newResolver(router).Resolve(context.Background(), ref)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !res.Resolved() {
		t.Fatalf("Resolve() unresolved, attempts: %+v", res.Attempts)
	}

	want := "https://x.lovecdn.ru/abc/index.fmp4.m3u8|Referer=https://x.lovecdn.ru/abc/embed.html&Connection=Keep-Alive&User-Agent=UA/1.0"
	if got := res.Link.Encode(); got != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}
	if res.Link.Strategy != LoveCDNName {
		t.Errorf("Strategy = %q, want %q", res.Link.Strategy, LoveCDNName)
	}
	if n := router.Count("https://x.lovecdn.ru/abc/embed.html"); n != 0 {
		t.Errorf("lovecdn player fetched %d times, want 0", n)
	}

	reqs := router.Requests()
	if len(reqs) != 2 {
		t.Fatalf("got %d requests, want 2: %v", len(reqs), router.URLs())
	}
	if got := reqs[1].Header.Get("Referer"); got != primary+ref {
		t.Errorf("wrapper Referer = %q, want candidate URL", got)
	}
}

func TestResolve_WikisportHopToPlayer(t *testing.T) {
	router := fetchtest.NewRouter()
	router.HandleFunc(primary, pages(map[string]string{
		"/stream/stream-51.php": iframe("https://wikisport.example/embed/51"),
	}))
	router.Page("https://wikisport.example", iframe("https://player.example/p.php"))
	router.Page("https://player.example", `<script>var PlayS = 'https://cdn.example/live.m3u8';</script>`)

	res, err := newResolver(router).Resolve(context.Background(), ref)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !res.Resolved() {
		t.Fatalf("Resolve() unresolved, attempts: %+v", res.Attempts)
	}
	if res.Link.PlaylistURL != "https://cdn.example/live.m3u8" {
		t.Errorf("PlaylistURL = %q", res.Link.PlaylistURL)
	}
	if referer, _ := res.Link.Headers.Get("Referer"); referer != "https://player.example/" {
		t.Errorf("Referer = %q, want second hop root", referer)
	}
}

func TestResolve_AtobBeatsPlayVar(t *testing.T) {
	initScript := `var initUrl = "https://init.example/get";`
	embedBody := `<script>
		eval(atob('` + base64.StdEncoding.EncodeToString([]byte(initScript)) + `'));
		var PlayS = 'https://wrong.example/playvar.m3u8';
	</script>`

	router := fetchtest.NewRouter()
	router.HandleFunc(primary, pages(map[string]string{
		"/stream/stream-51.php": iframe("https://player.example/embed.php?id=51"),
	}))
	router.Page("https://player.example", embedBody)
	router.Page("https://init.example", base64.StdEncoding.EncodeToString([]byte("https://cdn.example/atob.m3u8")))

	res, err := newResolver(router).Resolve(context.Background(), ref)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !res.Resolved() {
		t.Fatalf("Resolve() unresolved, attempts: %+v", res.Attempts)
	}
	if res.Link.Strategy != extractors.AtobName {
		t.Errorf("Strategy = %q, want %q", res.Link.Strategy, extractors.AtobName)
	}
	if res.Link.PlaylistURL != "https://cdn.example/atob.m3u8" {
		t.Errorf("PlaylistURL = %q", res.Link.PlaylistURL)
	}
}

func TestResolve_EmbedFetchUsesCandidateReferer(t *testing.T) {
	router := fetchtest.NewRouter()
	router.HandleFunc(primary, pages(map[string]string{
		"/stream/stream-51.php": iframe("/embed/p.php"),
		"/embed/p.php":          `<script>var PlayS = 'https://cdn.example/x.m3u8';</script>`,
	}))

	res, err := newResolver(router).Resolve(context.Background(), ref)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !res.Resolved() {
		t.Fatalf("Resolve() unresolved, attempts: %+v", res.Attempts)
	}

	reqs := router.Requests()
	if len(reqs) != 2 {
		t.Fatalf("got %d requests, want 2: %v", len(reqs), router.URLs())
	}
	if got := reqs[1].URL.String(); got != primary+"/embed/p.php" {
		t.Errorf("embed URL = %q, want relative src resolved", got)
	}
	if got := reqs[1].Header.Get("Referer"); got != primary+ref {
		t.Errorf("embed Referer = %q, want %q", got, primary+ref)
	}
	if got := reqs[0].Header.Get("Referer"); got != primary+"/" {
		t.Errorf("first Referer = %q, want default %q", got, primary+"/")
	}
}

func TestResolve_FallsBackToLaterCandidate(t *testing.T) {
	router := fetchtest.NewRouter()
	router.HandleFunc(primary, pages(map[string]string{
		"/cast/stream-51.php": iframe("https://player.example/p.php"),
	}))
	router.Page("https://player.example", `<script>var PlayS = 'https://cdn.example/x.m3u8';</script>`)

	res, err := newResolver(router).Resolve(context.Background(), ref)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !res.Resolved() {
		t.Fatalf("Resolve() unresolved, attempts: %+v", res.Attempts)
	}
	if len(res.Attempts) != 2 {
		t.Fatalf("got %d attempts, want 2", len(res.Attempts))
	}
	if res.Attempts[0].Outcome != types.OutcomeNotFound {
		t.Errorf("first attempt outcome = %q, want %q", res.Attempts[0].Outcome, types.OutcomeNotFound)
	}
	if res.Attempts[1].Candidate != primary+"/cast/stream-51.php" {
		t.Errorf("winning candidate = %q", res.Attempts[1].Candidate)
	}
	if res.Attempts[1].Strategy != extractors.PlayVarName {
		t.Errorf("winning strategy = %q", res.Attempts[1].Strategy)
	}
}

func TestResolve_TokenBundleFailureEndsCandidate(t *testing.T) {
	router := fetchtest.NewRouter()
	router.HandleFunc(primary, pages(map[string]string{
		"/stream/stream-51.php": iframe("https://broken.example/p.php"),
		"/cast/stream-51.php":   iframe("https://player.example/p.php"),
	}))
	// CHANNEL_KEY without a bundle is fatal; the PlayS below must not be used.
	router.Page("https://broken.example", `<script>
		const CHANNEL_KEY = "premium51";
		var PlayS = 'https://wrong.example/x.m3u8';
	</script>`)
	router.Page("https://player.example", `<script>var PlayS = 'https://cdn.example/x.m3u8';</script>`)

	res, err := newResolver(router).Resolve(context.Background(), ref)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !res.Resolved() {
		t.Fatalf("Resolve() unresolved, attempts: %+v", res.Attempts)
	}
	if res.Link.PlaylistURL != "https://cdn.example/x.m3u8" {
		t.Errorf("PlaylistURL = %q, want later candidate's link", res.Link.PlaylistURL)
	}
	if res.Attempts[0].Outcome != types.OutcomeDecode {
		t.Errorf("first attempt outcome = %q, want %q", res.Attempts[0].Outcome, types.OutcomeDecode)
	}
}

func TestResolve_ExhaustedIsUnresolved(t *testing.T) {
	router := fetchtest.NewRouter()
	router.Page(primary, "<html><body>offline</body></html>")
	router.Page(legacy, "<html><body>offline</body></html>")

	res, err := newResolver(router).Resolve(context.Background(), ref)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.Resolved() {
		t.Fatalf("Resolve() = %q, want unresolved", res.Link.Encode())
	}
	if len(res.Attempts) != 12 {
		t.Fatalf("got %d attempts, want 12", len(res.Attempts))
	}

	urls := router.URLs()
	if len(urls) != 12 {
		t.Fatalf("got %d fetches, want 12: %v", len(urls), urls)
	}
	for i, a := range res.Attempts {
		if urls[i] != a.Candidate {
			t.Errorf("fetch[%d] = %q, want %q", i, urls[i], a.Candidate)
		}
		if router.Count(a.Candidate) != 1 {
			t.Errorf("candidate %q fetched %d times, want 1", a.Candidate, router.Count(a.Candidate))
		}
	}
}

func TestResolve_NoStrategyMatches(t *testing.T) {
	router := fetchtest.NewRouter()
	router.HandleFunc(primary, pages(map[string]string{
		"/stream/stream-51.php": iframe("https://player.example/p.php"),
	}))
	router.Page("https://player.example", "<html>plain player</html>")

	res, err := newResolver(router).Resolve(context.Background(), ref)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.Resolved() {
		t.Fatal("Resolve() resolved, want unresolved")
	}
	if res.Attempts[0].Outcome != types.OutcomeNoMatch {
		t.Errorf("outcome = %q, want %q", res.Attempts[0].Outcome, types.OutcomeNoMatch)
	}
}

func TestResolve_CanceledContextStops(t *testing.T) {
	router := fetchtest.NewRouter()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := newResolver(router).Resolve(ctx, ref)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.Resolved() || len(res.Attempts) != 0 {
		t.Errorf("Resolve() on canceled ctx = %+v, want no attempts", res)
	}
}
