package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/quantmind-br/reqscan/internal/domain"
	"github.com/quantmind-br/reqscan/internal/utils"
)

// MaxManifestSize is the default cap on the body read from a remote manifest
const MaxManifestSize = 4 << 20

// HTTPLoader fetches manifests over HTTP(S), retrying transient failures
type HTTPLoader struct {
	client    *http.Client
	retrier   *Retrier
	userAgent string
	maxSize   int64
	logger    *utils.Logger
}

// HTTPLoaderOptions contains options for creating an HTTPLoader
type HTTPLoaderOptions struct {
	Timeout    time.Duration
	MaxRetries int
	UserAgent  string
	MaxSize    int64
	Client     *http.Client
	Retrier    *Retrier
	Logger     *utils.Logger
}

// DefaultHTTPLoaderOptions returns default HTTP loader options
func DefaultHTTPLoaderOptions() HTTPLoaderOptions {
	return HTTPLoaderOptions{
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		UserAgent:  "reqscan",
		MaxSize:    MaxManifestSize,
	}
}

// NewHTTPLoader creates a new HTTPLoader
func NewHTTPLoader(opts HTTPLoaderOptions) *HTTPLoader {
	defaults := DefaultHTTPLoaderOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = defaults.Timeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaults.UserAgent
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = defaults.MaxSize
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	retrier := opts.Retrier
	if retrier == nil {
		retrier = NewRetrier(RetrierOptions{MaxRetries: opts.MaxRetries})
	}

	return &HTTPLoader{
		client:    client,
		retrier:   retrier,
		userAgent: opts.UserAgent,
		maxSize:   opts.MaxSize,
		logger:    opts.Logger,
	}
}

// Load fetches the manifest at url
func (l *HTTPLoader) Load(ctx context.Context, url string) (string, error) {
	attempt := 0
	body, err := RetryWithValue(ctx, l.retrier, func() ([]byte, error) {
		attempt++
		if attempt > 1 && l.logger != nil {
			l.logger.Debug().Str("url", url).Int("attempt", attempt).Msg("Retrying manifest fetch")
		}
		return l.doRequest(ctx, url)
	})
	if err != nil {
		return "", err
	}

	return DecodeText(body)
}

func (l *HTTPLoader) doRequest(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", l.userAgent)
	req.Header.Set("Accept", "text/plain, */*")

	resp, err := l.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, domain.NewFetchError(url, 0, domain.ErrTimeout)
		}
		return nil, domain.NewFetchError(url, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, domain.NewFetchError(url, resp.StatusCode, domain.ErrNotFound)
		case ShouldRetryStatus(resp.StatusCode):
			return nil, &domain.RetryableError{
				Err:        domain.NewFetchError(url, resp.StatusCode, fmt.Errorf("server returned %s", resp.Status)),
				RetryAfter: ParseRetryAfter(resp.Header.Get("Retry-After")),
			}
		default:
			return nil, domain.NewFetchError(url, resp.StatusCode, fmt.Errorf("server returned %s", resp.Status))
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, l.maxSize+1))
	if err != nil {
		return nil, domain.NewFetchError(url, resp.StatusCode, err)
	}
	if int64(len(body)) > l.maxSize {
		return nil, domain.NewFetchError(url, resp.StatusCode, fmt.Errorf("manifest exceeds %d bytes", l.maxSize))
	}

	return body, nil
}
