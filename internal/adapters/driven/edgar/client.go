// Package edgar implements the catalog port against the SEC EDGAR full-text
// filing service: ticker resolution, submissions listing and raw archive
// download with a local disk cache.
package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/edgar-core/internal/core/domain"
	"github.com/custodia-labs/edgar-core/internal/core/ports/driven"
	"github.com/custodia-labs/edgar-core/internal/runtime"
)

const (
	defaultWWWBaseURL  = "https://www.sec.gov"
	defaultDataBaseURL = "https://data.sec.gov"

	tickerLookupPath = "/files/company_tickers.json"
	submissionsPath  = "/submissions/"

	defaultTimeout    = 30 * time.Second
	defaultRetryDelay = 2 * time.Second
)

// Config holds the EDGAR client configuration.
type Config struct {
	// UserAgent is mandatory. The upstream service rejects anonymous
	// clients, so a contact string ("name email") must be supplied.
	UserAgent string

	// WWWBaseURL serves the ticker table and raw archives.
	WWWBaseURL string
	// DataBaseURL serves the structured submissions listings.
	DataBaseURL string

	// FormTypes restricts listings to these form types. Empty means all.
	FormTypes []string

	// RetryDelay is the fixed pause between download attempts.
	RetryDelay time.Duration
	// MaxRetries caps download attempts. Zero retries until the context
	// is cancelled.
	MaxRetries int

	HTTPClient *http.Client
	Cache      driven.ArchiveCache
	// Rates, when set, counts every outbound request.
	Rates  *runtime.RateCounter
	Logger *slog.Logger
}

// Client talks to the EDGAR endpoints.
type Client struct {
	cfg    Config
	http   *http.Client
	cache  driven.ArchiveCache
	forms  map[string]bool
	logger *slog.Logger
}

var _ driven.CatalogClient = (*Client)(nil)

// NewClient validates the configuration and builds a Client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("edgar: user agent is required: %w", domain.ErrInvalidInput)
	}
	if cfg.WWWBaseURL == "" {
		cfg.WWWBaseURL = defaultWWWBaseURL
	}
	if cfg.DataBaseURL == "" {
		cfg.DataBaseURL = defaultDataBaseURL
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	forms := make(map[string]bool, len(cfg.FormTypes))
	for _, f := range cfg.FormTypes {
		forms[strings.ToUpper(strings.TrimSpace(f))] = true
	}

	return &Client{
		cfg:    cfg,
		http:   httpClient,
		cache:  cfg.Cache,
		forms:  forms,
		logger: logger.With("adapter", "edgar"),
	}, nil
}

// tickerEntry is one row of the upstream ticker lookup table.
type tickerEntry struct {
	CIK    int    `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// ResolveTicker maps a ticker symbol to its zero-padded ten digit CIK.
func (c *Client) ResolveTicker(ctx context.Context, ticker string) (string, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return "", fmt.Errorf("empty ticker: %w", domain.ErrInvalidInput)
	}

	var table map[string]tickerEntry
	if err := c.getJSON(ctx, c.cfg.WWWBaseURL+tickerLookupPath, &table); err != nil {
		return "", fmt.Errorf("fetching ticker table: %w", err)
	}
	for _, entry := range table {
		if strings.ToUpper(entry.Ticker) == ticker {
			return fmt.Sprintf("%010d", entry.CIK), nil
		}
	}
	return "", fmt.Errorf("ticker %q: %w", ticker, domain.ErrUnknownTicker)
}

// submissions mirrors the structure of the entity submissions endpoint. The
// filing columns come back as parallel arrays.
type submissions struct {
	CIK     json.Number `json:"cik"`
	Name    string      `json:"name"`
	Tickers []string    `json:"tickers"`
	Filings struct {
		Recent filingColumns `json:"recent"`
		Files  []struct {
			Name string `json:"name"`
		} `json:"files"`
	} `json:"filings"`
}

type filingColumns struct {
	AccessionNumber    []string `json:"accessionNumber"`
	FilingDate         []string `json:"filingDate"`
	ReportDate         []string `json:"reportDate"`
	AcceptanceDateTime []string `json:"acceptanceDateTime"`
	Form               []string `json:"form"`
	PrimaryDocument    []string `json:"primaryDocument"`
}

// ListFilings fetches the primary submissions listing for an entity and
// every paginated continuation file it references, filters by form type and
// returns the descriptors newest first.
func (c *Client) ListFilings(ctx context.Context, entityID string) ([]domain.FilingDescriptor, error) {
	var subs submissions
	url := c.cfg.DataBaseURL + submissionsPath + "CIK" + entityID + ".json"
	if err := c.getJSON(ctx, url, &subs); err != nil {
		return nil, fmt.Errorf("fetching submissions for %s: %w", entityID, err)
	}

	ticker := ""
	if len(subs.Tickers) > 0 {
		ticker = subs.Tickers[0]
	}

	filings := c.columnsToFilings(entityID, ticker, subs.Name, subs.Filings.Recent)

	for _, page := range subs.Filings.Files {
		var cols filingColumns
		pageURL := c.cfg.DataBaseURL + submissionsPath + page.Name
		if err := c.getJSON(ctx, pageURL, &cols); err != nil {
			return nil, fmt.Errorf("fetching submissions page %s: %w", page.Name, err)
		}
		filings = append(filings, c.columnsToFilings(entityID, ticker, subs.Name, cols)...)
	}

	sort.Slice(filings, func(i, j int) bool {
		if !filings[i].AcceptanceTime.Equal(filings[j].AcceptanceTime) {
			return filings[i].AcceptanceTime.After(filings[j].AcceptanceTime)
		}
		return filings[i].SourceURL > filings[j].SourceURL
	})

	c.logger.Debug("listed filings", "entity", entityID, "count", len(filings))
	return filings, nil
}

// columnsToFilings converts the parallel-array listing format into
// descriptors, dropping rows whose form type is filtered out. Short columns
// are tolerated: a row missing a value gets the zero value.
func (c *Client) columnsToFilings(entityID, ticker, name string, cols filingColumns) []domain.FilingDescriptor {
	column := func(col []string, i int) string {
		if i < len(col) {
			return col[i]
		}
		return ""
	}

	var out []domain.FilingDescriptor
	for i := range cols.AccessionNumber {
		form := column(cols.Form, i)
		if len(c.forms) > 0 && !c.forms[strings.ToUpper(form)] {
			continue
		}
		accession := cols.AccessionNumber[i]
		if accession == "" {
			continue
		}
		f := domain.FilingDescriptor{
			EntityID:        entityID,
			Ticker:          ticker,
			CompanyName:     name,
			AccessionNumber: accession,
			FormType:        form,
			SourceURL:       c.archiveURL(entityID, accession),
		}
		f.FilingDate = parseDate(column(cols.FilingDate, i))
		f.ReportDate = parseDate(column(cols.ReportDate, i))
		f.AcceptanceTime = parseTimestamp(column(cols.AcceptanceDateTime, i))
		out = append(out, f)
	}
	return out
}

// archiveURL builds the canonical download URL for a filing's full raw
// archive.
func (c *Client) archiveURL(entityID, accession string) string {
	cik := strings.TrimLeft(entityID, "0")
	flat := strings.ReplaceAll(accession, "-", "")
	return fmt.Sprintf("%s/Archives/edgar/data/%s/%s/%s.txt", c.cfg.WWWBaseURL, cik, flat, accession)
}

// FetchArchive returns the raw archive text for a filing, from the cache
// when present and otherwise downloaded with fixed-delay retries. A
// successful download is written to the cache before returning.
func (c *Client) FetchArchive(ctx context.Context, filing domain.FilingDescriptor) (string, error) {
	if c.cache != nil {
		if body, ok := c.cache.Get(filing.SourceURL); ok {
			c.logger.Debug("archive cache hit", "accession", filing.AccessionNumber)
			return body, nil
		}
	}

	body, err := c.downloadWithRetry(ctx, filing.SourceURL)
	if err != nil {
		return "", fmt.Errorf("downloading archive %s: %w", filing.AccessionNumber, err)
	}

	if c.cache != nil {
		if _, err := c.cache.Put(filing.SourceURL, body); err != nil {
			return "", fmt.Errorf("caching archive %s: %w", filing.AccessionNumber, err)
		}
	}
	return body, nil
}

// downloadWithRetry fetches a URL, pausing RetryDelay between attempts.
// With MaxRetries zero it keeps trying until the context is cancelled.
func (c *Client) downloadWithRetry(ctx context.Context, url string) (string, error) {
	var lastErr error
	for attempt := 1; ; attempt++ {
		body, err := c.get(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if c.cfg.MaxRetries > 0 && attempt >= c.cfg.MaxRetries {
			return "", fmt.Errorf("giving up after %d attempts: %w", attempt, lastErr)
		}
		c.logger.Warn("download failed, retrying",
			"url", url,
			"attempt", attempt,
			"delay", c.cfg.RetryDelay,
			"error", err)

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("download cancelled: %w", ctx.Err())
		case <-time.After(c.cfg.RetryDelay):
		}
	}
}

// get performs a single GET with the mandatory identification header.
func (c *Client) get(ctx context.Context, url string) (string, error) {
	if c.cfg.Rates != nil {
		c.cfg.Rates.Incr()
		c.logger.Debug("outbound request", "url", url, "rps", c.cfg.Rates.Rate())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	// Gzip negotiation is left to the transport: setting Accept-Encoding
	// manually would suppress its transparent decompression and hand raw
	// gzip bytes to the parser.

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%s: %w", url, domain.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}
	return string(data), nil
}

func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	body, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return fmt.Errorf("decoding %s: %w", url, err)
	}
	return nil
}

func parseDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
