package scrape

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"
)

// HTMLFetcher renders a URL through a real browser. Used as a fallback
// when the site refuses the plain HTTP client.
type HTMLFetcher interface {
	FetchHTML(ctx context.Context, url string) (string, error)
}

// Options parameterise the scrape client.
type Options struct {
	BaseURL          string
	Timeout          time.Duration
	UserAgent        string
	MaxAnnouncements int
	Fallback         HTMLFetcher
}

// Client fetches screener.in company pages and parses them into snapshots.
type Client struct {
	opts    Options
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewClient constructs a scrape client.
func NewClient(opts Options, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://www.screener.in"
	}
	if opts.MaxAnnouncements <= 0 {
		opts.MaxAnnouncements = 5
	}
	return &Client{
		opts:    opts,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "scrape_client").Logger(),
	}
}

// BaseURL returns the site base the client resolves relative links against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// companyURL builds the company page URL. Consolidated figures are the
// default view; the plain URL is the 404 fallback.
func (c *Client) companyURL(code string, consolidated bool) string {
	if consolidated {
		return fmt.Sprintf("%s/company/%s/consolidated/", c.baseURL, code)
	}
	return fmt.Sprintf("%s/company/%s/", c.baseURL, code)
}

// Fetch downloads and parses the company page for a screener code. The
// whole page is fetched once and every section parsed from that single
// document, so the returned snapshot is internally consistent.
func (c *Client) Fetch(ctx context.Context, code string) (*Snapshot, error) {
	urlStr := c.companyURL(code, true)
	html, err := c.fetchHTML(ctx, urlStr)
	if IsNotFound(err) {
		// Some companies only publish standalone figures.
		urlStr = c.companyURL(code, false)
		html, err = c.fetchHTML(ctx, urlStr)
	}
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse HTML for %s: %w", code, err)
	}

	snap := &Snapshot{
		SiteID:     code,
		SourceURL:  urlStr,
		Statements: make(map[StatementKind]Statement, len(Kinds)),
		FetchedAt:  time.Now().UTC(),
	}
	for _, kind := range Kinds {
		snap.Statements[kind] = parseStatement(doc, kind)
	}
	snap.Metrics = parseMetrics(doc, snap.Statement(KindProfitLoss))
	snap.Announcements = parseAnnouncements(doc, c.baseURL, c.opts.MaxAnnouncements)

	c.logger.Debug().
		Str("code", code).
		Str("url", urlStr).
		Int("announcements", len(snap.Announcements)).
		Msg("fetched company page")
	return snap, nil
}

// fetchHTML performs one GET and returns the decoded page body. On a
// blocked response it retries once through the browser fallback when one
// is configured.
func (c *Client) fetchHTML(ctx context.Context, urlStr string) (string, error) {
	html, err := c.get(ctx, urlStr)
	if IsBlocked(err) && c.opts.Fallback != nil {
		c.logger.Warn().Str("url", urlStr).Msg("plain fetch blocked, retrying via browser")
		rendered, ferr := c.opts.Fallback.FetchHTML(ctx, urlStr)
		if ferr != nil {
			return "", err
		}
		html = rendered
		err = nil
	}
	if err != nil {
		return "", err
	}
	// The site serves a styled error page with a 200 for some dead codes.
	if strings.Contains(strings.ToLower(html), "not found") {
		return "", &FetchError{Kind: ErrKindNotFound, URL: urlStr}
	}
	return html, nil
}

func (c *Client) get(ctx context.Context, urlStr string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return "", &FetchError{Kind: ErrKindNetwork, URL: urlStr, Cause: err}
	}

	ua := c.opts.UserAgent
	if ua == "" {
		ua = "Mozilla/5.0 (X11; Linux x86_64; rv:135.0) Gecko/20100101 Firefox/135.0"
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br, zstd")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", classifyTransportError(urlStr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", classifyStatus(urlStr, resp.StatusCode)
	}

	body, err := decodeBody(resp)
	if err != nil {
		return "", &FetchError{Kind: ErrKindNetwork, URL: urlStr, Cause: err}
	}
	return string(body), nil
}

// decodeBody decompresses the response body per its Content-Encoding.
func decodeBody(resp *http.Response) ([]byte, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gzipReader.Close()
		return io.ReadAll(gzipReader)
	case "deflate":
		flateReader := flate.NewReader(resp.Body)
		defer flateReader.Close()
		return io.ReadAll(flateReader)
	case "br":
		return io.ReadAll(brotli.NewReader(resp.Body))
	case "zstd":
		zstdReader, err := zstd.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer zstdReader.Close()
		return io.ReadAll(zstdReader)
	default:
		return io.ReadAll(resp.Body)
	}
}
