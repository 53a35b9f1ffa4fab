package fundamentals

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	Version = "0.1.0"

	// SecEmailEnvVar is the environment variable name for the SEC contact email.
	SecEmailEnvVar = "SEC_EMAIL"

	secDataBaseURL = "https://data.sec.gov"
	secWWWBaseURL  = "https://www.sec.gov"
)

// GetSecEmail retrieves the contact email from the environment. The SEC
// requires a real contact address in the User-Agent header.
func GetSecEmail() (string, error) {
	email := os.Getenv(SecEmailEnvVar)
	if email == "" {
		return "", fmt.Errorf("SEC email required: set %s environment variable or use --email flag", SecEmailEnvVar)
	}

	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	if !emailRegex.MatchString(email) {
		return "", fmt.Errorf("invalid email format: %s", email)
	}
	if strings.HasSuffix(email, "example.com") {
		return "", fmt.Errorf("use a real email address, not example.com: %s", email)
	}
	return email, nil
}

// BuildUserAgent creates a proper SEC User-Agent string.
func BuildUserAgent(email string) string {
	return fmt.Sprintf("go-fundamentals/%s (%s)", Version, email)
}

// Client fetches company facts and filing metadata from SEC EDGAR. It rate
// limits to the SEC's 10 requests/second guidance, retries transient
// failures, and optionally caches JSON responses on disk. The core pipeline
// never touches the network; this client is the only I/O surface.
type Client struct {
	userAgent   string
	httpClient  *http.Client
	limiter     *rate.Limiter
	cacheDir    string // empty disables caching
	maxRetries  int
	dataBaseURL string
	wwwBaseURL  string
	log         zerolog.Logger
}

// ClientOption customizes the client.
type ClientOption func(*Client)

// NewClient creates an EDGAR client. Email is required by the SEC and is
// embedded in the User-Agent header of every request.
func NewClient(email string, options ...ClientOption) *Client {
	c := &Client{
		userAgent:   BuildUserAgent(email),
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		limiter:     rate.NewLimiter(rate.Limit(10), 10),
		maxRetries:  3,
		dataBaseURL: secDataBaseURL,
		wwwBaseURL:  secWWWBaseURL,
		log:         zerolog.Nop(),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithCacheDir enables the local JSON response cache under dir.
func WithCacheDir(dir string) ClientOption {
	return func(c *Client) { c.cacheDir = dir }
}

// WithLogger attaches a logger for fetch and cache diagnostics.
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) { c.log = log }
}

// WithBaseURLs overrides the SEC endpoints, mainly for tests and mirrors.
func WithBaseURLs(dataURL, wwwURL string) ClientOption {
	return func(c *Client) {
		c.dataBaseURL = dataURL
		c.wwwBaseURL = wwwURL
	}
}

// PadCIK left-pads a CIK to the 10 digits SEC URLs expect.
func PadCIK(cik string) string {
	return fmt.Sprintf("%010s", strings.TrimSpace(cik))
}

// cachePath maps a cache key to a file path under the cache directory.
func (c *Client) cachePath(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(c.cacheDir, hex.EncodeToString(sum[:12])+".json")
}

// getJSON fetches a URL and decodes the JSON response into v, consulting the
// disk cache first when caching is enabled.
func (c *Client) getJSON(ctx context.Context, url, cacheKey string, v any) error {
	if c.cacheDir != "" {
		if data, err := os.ReadFile(c.cachePath(cacheKey)); err == nil {
			c.log.Debug().Str("key", cacheKey).Msg("cache hit")
			return json.Unmarshal(data, v)
		}
	}

	body, err := c.fetch(ctx, url)
	if err != nil {
		return err
	}

	if c.cacheDir != "" {
		if err := os.MkdirAll(c.cacheDir, 0o755); err == nil {
			// Cache writes are best effort.
			if err := os.WriteFile(c.cachePath(cacheKey), body, 0o644); err != nil {
				c.log.Warn().Err(err).Str("key", cacheKey).Msg("cache write failed")
			}
		}
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON from %s: %w", url, err)
	}
	return nil
}

// fetch performs a rate-limited GET with retry and backoff.
func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		c.log.Debug().Str("url", url).Int("attempt", attempt).Msg("fetching")
		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			c.backoff(ctx, attempt)
			continue
		}

		switch resp.StatusCode {
		case http.StatusOK:
			body, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				lastErr = fmt.Errorf("failed to read response: %w", err)
				c.backoff(ctx, attempt)
				continue
			}
			return body, nil

		case http.StatusTooManyRequests:
			resp.Body.Close()
			lastErr = fmt.Errorf("SEC returned status 429")
			c.backoff(ctx, attempt)
			continue

		case http.StatusForbidden:
			resp.Body.Close()
			return nil, fmt.Errorf("SEC returned 403: check the User-Agent email and slow down requests")

		default:
			lastErr = fmt.Errorf("SEC returned status %d", resp.StatusCode)
			resp.Body.Close()
			c.backoff(ctx, attempt)
		}
	}

	return nil, fmt.Errorf("SEC request failed after %d attempts: %s: %w", c.maxRetries, url, lastErr)
}

// backoff sleeps with a linear per-attempt delay, respecting ctx.
func (c *Client) backoff(ctx context.Context, attempt int) {
	select {
	case <-ctx.Done():
	case <-time.After(time.Duration(attempt) * 600 * time.Millisecond):
	}
}

// tickerEntry is one row of the SEC company_tickers.json mapping.
type tickerEntry struct {
	CIK    json.Number `json:"cik_str"`
	Ticker string      `json:"ticker"`
	Title  string      `json:"title"`
}

// CIKForTicker resolves a ticker symbol to a 10-digit CIK using the SEC's
// company ticker mapping.
func (c *Client) CIKForTicker(ctx context.Context, ticker string) (string, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	var mapping map[string]tickerEntry
	url := c.wwwBaseURL + "/files/company_tickers.json"
	if err := c.getJSON(ctx, url, "company_tickers", &mapping); err != nil {
		return "", fmt.Errorf("failed to fetch ticker mapping: %w", err)
	}

	for _, entry := range mapping {
		if strings.ToUpper(entry.Ticker) == ticker {
			return PadCIK(entry.CIK.String()), nil
		}
	}
	return "", fmt.Errorf("ticker not found in SEC mapping: %s", ticker)
}

// Submissions is the subset of the SEC submissions document the pipeline
// consumes: enough to identify the company behind a CIK.
type Submissions struct {
	CIK           string   `json:"cik"`
	Name          string   `json:"name"`
	Tickers       []string `json:"tickers"`
	Exchanges     []string `json:"exchanges"`
	SIC           string   `json:"sic"`
	SICDesc       string   `json:"sicDescription"`
	FiscalYearEnd string   `json:"fiscalYearEnd"`
}

// Submissions fetches the submissions document for a CIK.
func (c *Client) Submissions(ctx context.Context, cik string) (*Submissions, error) {
	cik = PadCIK(cik)
	url := fmt.Sprintf("%s/submissions/CIK%s.json", c.dataBaseURL, cik)

	var subs Submissions
	if err := c.getJSON(ctx, url, "submissions_"+cik, &subs); err != nil {
		return nil, fmt.Errorf("failed to fetch submissions: %w", err)
	}
	return &subs, nil
}

// CompanyFacts fetches the full XBRL company facts document for a CIK.
func (c *Client) CompanyFacts(ctx context.Context, cik string) (*CompanyFacts, error) {
	cik = PadCIK(cik)
	url := fmt.Sprintf("%s/api/xbrl/companyfacts/CIK%s.json", c.dataBaseURL, cik)

	var cf CompanyFacts
	if err := c.getJSON(ctx, url, "companyfacts_"+cik, &cf); err != nil {
		return nil, fmt.Errorf("failed to fetch company facts: %w", err)
	}
	return &cf, nil
}
