package edgar

import (
	"compress/gzip"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/custodia-labs/edgar-core/internal/core/domain"
	"github.com/custodia-labs/edgar-core/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/edgar-core/internal/runtime"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, srv *httptest.Server, mutate func(*Config)) *Client {
	t.Helper()
	cfg := Config{
		UserAgent:   "edgar-core test test@custodia.dev",
		WWWBaseURL:  srv.URL,
		DataBaseURL: srv.URL,
		RetryDelay:  time.Millisecond,
		MaxRetries:  1,
		Logger:      testLogger(),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	c, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestNewClient_RequiresUserAgent(t *testing.T) {
	if _, err := NewClient(Config{}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
}

func TestResolveTicker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files/company_tickers.json" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("User-Agent") != "edgar-core test test@custodia.dev" {
			t.Errorf("missing identification header, got %q", r.Header.Get("User-Agent"))
		}
		io.WriteString(w, `{
			"0": {"cik_str": 320193, "ticker": "AAPL", "title": "Apple Inc."},
			"1": {"cik_str": 789019, "ticker": "MSFT", "title": "Microsoft Corp"}
		}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, nil)

	got, err := c.ResolveTicker(context.Background(), "aapl")
	if err != nil {
		t.Fatalf("ResolveTicker: %v", err)
	}
	if got != "0000320193" {
		t.Errorf("entity id = %q, want 0000320193", got)
	}

	if _, err := c.ResolveTicker(context.Background(), "NOPE"); !errors.Is(err, domain.ErrUnknownTicker) {
		t.Errorf("unknown ticker: want ErrUnknownTicker, got %v", err)
	}
}

const submissionsBody = `{
	"cik": 320193,
	"name": "Apple Inc.",
	"tickers": ["AAPL"],
	"filings": {
		"recent": {
			"accessionNumber": ["0000320193-24-000002", "0000320193-24-000001"],
			"filingDate": ["2024-02-02", "2024-01-01"],
			"reportDate": ["2023-12-30", "2023-09-30"],
			"acceptanceDateTime": ["2024-02-02T16:30:00.000Z", "2024-01-01T09:00:00.000Z"],
			"form": ["10-Q", "10-K"],
			"primaryDocument": ["q1.htm", "annual.htm"]
		},
		"files": [{"name": "CIK0000320193-submissions-001.json"}]
	}
}`

const submissionsPageBody = `{
	"accessionNumber": ["0000320193-23-000009"],
	"filingDate": ["2023-06-06"],
	"reportDate": ["2023-04-01"],
	"acceptanceDateTime": ["2023-06-06T12:00:00.000Z"],
	"form": ["10-Q"],
	"primaryDocument": ["q2.htm"]
}`

func submissionsServer(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/submissions/CIK0000320193.json":
			io.WriteString(w, submissionsBody)
		case "/submissions/CIK0000320193-submissions-001.json":
			io.WriteString(w, submissionsPageBody)
		default:
			t.Errorf("unexpected request path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}))
}

func TestListFilings(t *testing.T) {
	srv := submissionsServer(t)
	defer srv.Close()

	c := newTestClient(t, srv, nil)
	filings, err := c.ListFilings(context.Background(), "0000320193")
	if err != nil {
		t.Fatalf("ListFilings: %v", err)
	}
	if len(filings) != 3 {
		t.Fatalf("got %d filings, want 3", len(filings))
	}

	// Newest acceptance first, paginated file merged in.
	wantOrder := []string{"0000320193-24-000002", "0000320193-24-000001", "0000320193-23-000009"}
	for i, want := range wantOrder {
		if filings[i].AccessionNumber != want {
			t.Errorf("filings[%d] = %s, want %s", i, filings[i].AccessionNumber, want)
		}
	}

	f := filings[0]
	if f.EntityID != "0000320193" || f.Ticker != "AAPL" || f.CompanyName != "Apple Inc." {
		t.Errorf("descriptor identity fields wrong: %+v", f)
	}
	if f.FormType != "10-Q" {
		t.Errorf("form type = %s", f.FormType)
	}
	if f.FilingDate.Format("2006-01-02") != "2024-02-02" {
		t.Errorf("filing date = %v", f.FilingDate)
	}
	wantURL := srv.URL + "/Archives/edgar/data/320193/000032019324000002/0000320193-24-000002.txt"
	if f.SourceURL != wantURL {
		t.Errorf("source url = %s, want %s", f.SourceURL, wantURL)
	}
}

func TestListFilings_FormFilter(t *testing.T) {
	srv := submissionsServer(t)
	defer srv.Close()

	c := newTestClient(t, srv, func(cfg *Config) {
		cfg.FormTypes = []string{"10-k"}
	})
	filings, err := c.ListFilings(context.Background(), "0000320193")
	if err != nil {
		t.Fatalf("ListFilings: %v", err)
	}
	if len(filings) != 1 || filings[0].FormType != "10-K" {
		t.Fatalf("got %+v, want the single 10-K", filings)
	}
}

func TestFetchArchive_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, "archive body")
	}))
	defer srv.Close()

	cache := mocks.NewMockArchiveCache()
	c := newTestClient(t, srv, func(cfg *Config) {
		cfg.MaxRetries = 5
		cfg.Cache = cache
	})

	filing := domain.FilingDescriptor{
		AccessionNumber: "0000000000-24-000001",
		SourceURL:       srv.URL + "/archive.txt",
	}
	body, err := c.FetchArchive(context.Background(), filing)
	if err != nil {
		t.Fatalf("FetchArchive: %v", err)
	}
	if body != "archive body" {
		t.Errorf("body = %q", body)
	}
	if calls.Load() != 3 {
		t.Errorf("got %d attempts, want 3", calls.Load())
	}
	if cached, ok := cache.Get(filing.SourceURL); !ok || cached != "archive body" {
		t.Errorf("archive not written to cache")
	}
}

// The upstream service compresses responses whenever the request advertises
// gzip. The transport must be left to negotiate that itself so the body is
// transparently decompressed; a hand-set Accept-Encoding header would hand
// raw gzip bytes to the archive parser.
func TestFetchArchive_DecompressesGzipResponses(t *testing.T) {
	const archive = "COMPANY CONFORMED NAME: Test Corp\n<DOCUMENT>\nplain text body\n</DOCUMENT>\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			io.WriteString(w, archive)
			return
		}
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		io.WriteString(gz, archive)
		gz.Close()
	}))
	defer srv.Close()

	c := newTestClient(t, srv, nil)
	body, err := c.FetchArchive(context.Background(), domain.FilingDescriptor{
		AccessionNumber: "0000000000-24-000001",
		SourceURL:       srv.URL + "/archive.txt",
	})
	if err != nil {
		t.Fatalf("FetchArchive: %v", err)
	}
	if body != archive {
		t.Errorf("body = %q, want plain archive text", body)
	}
	if strings.HasPrefix(body, "\x1f\x8b") {
		t.Error("body is raw gzip bytes")
	}
}

func TestFetchArchive_GivesUpAtCeiling(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, func(cfg *Config) {
		cfg.MaxRetries = 2
	})
	_, err := c.FetchArchive(context.Background(), domain.FilingDescriptor{SourceURL: srv.URL + "/a.txt"})
	if err == nil {
		t.Fatal("want error after retry ceiling")
	}
}

func TestFetchArchive_UnboundedRetryStopsOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, func(cfg *Config) {
		cfg.MaxRetries = 0
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.FetchArchive(ctx, domain.FilingDescriptor{SourceURL: srv.URL + "/a.txt"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want context deadline error, got %v", err)
	}
}

func TestClient_CountsOutboundRequests(t *testing.T) {
	srv := submissionsServer(t)
	defer srv.Close()

	rates := runtime.NewRateCounter(0)
	c := newTestClient(t, srv, func(cfg *Config) { cfg.Rates = rates })
	if _, err := c.ListFilings(context.Background(), "0000320193"); err != nil {
		t.Fatalf("ListFilings: %v", err)
	}

	// Primary listing plus one paginated file.
	if rates.Total() != 2 {
		t.Errorf("Total = %d, want 2", rates.Total())
	}
}

func TestFetchArchive_CacheHitSkipsDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected network request on cache hit")
	}))
	defer srv.Close()

	cache := mocks.NewMockArchiveCache()
	if _, err := cache.Put(srv.URL+"/a.txt", "cached body"); err != nil {
		t.Fatalf("seeding cache: %v", err)
	}

	c := newTestClient(t, srv, func(cfg *Config) { cfg.Cache = cache })
	body, err := c.FetchArchive(context.Background(), domain.FilingDescriptor{SourceURL: srv.URL + "/a.txt"})
	if err != nil {
		t.Fatalf("FetchArchive: %v", err)
	}
	if body != "cached body" {
		t.Errorf("body = %q, want cached body", body)
	}
}
