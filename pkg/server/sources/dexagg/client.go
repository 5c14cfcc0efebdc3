package dexagg

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/pkg/server/sources"
	"github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/pkg/version"
)

const (
	defaultTimeout = 10 * time.Second
	// maxBodyBytes caps aggregator responses; a pools listing is a few hundred KB at most.
	maxBodyBytes = 4 << 20
)

// jsonPriceSource fetches one URL and extracts the first parseable price
// field from an array of objects in the JSON body.
type jsonPriceSource struct {
	*sources.BaseSource

	url       string
	arrayPath string // gjson path of the result array, e.g. "pairs"
	field     string // gjson path of the price inside one element
	client    *http.Client
	limiter   *rate.Limiter
}

func newJSONPriceSource(base *sources.BaseSource, url, arrayPath, field string, config map[string]interface{}, defaultMinInterval time.Duration) (*jsonPriceSource, error) {
	timeout, err := sources.GetDuration(config, "timeout", defaultTimeout)
	if err != nil {
		return nil, err
	}
	minInterval, err := sources.GetDuration(config, "min_interval", defaultMinInterval)
	if err != nil {
		return nil, err
	}

	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}

	return &jsonPriceSource{
		BaseSource: base,
		url:        url,
		arrayPath:  arrayPath,
		field:      field,
		client:     &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, 1),
	}, nil
}

// Fetch performs one GET and extracts the price.
func (s *jsonPriceSource) Fetch(ctx context.Context) (float64, error) {
	price, err := s.fetch(ctx)
	return price, s.MarkResult(err)
}

func (s *jsonPriceSource) fetch(ctx context.Context) (float64, error) {
	// Fail fast instead of queueing: the oracle moves on to the next source.
	if !s.limiter.Allow() {
		return 0, fmt.Errorf("%w: %s", sources.ErrRateLimitExceeded, s.Name())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.AgentString())

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		s.Logger().Warn("Aggregator rate limit exceeded", "status", resp.StatusCode)
		return 0, fmt.Errorf("%w (status 429)", sources.ErrRateLimitExceeded)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("%w: %d", sources.ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, fmt.Errorf("failed to read response: %w", err)
	}

	return extractPrice(body, s.arrayPath, s.field)
}

// extractPrice returns the first element of arrayPath whose field parses as
// a decimal. Malformed JSON, a missing or empty array, and an array with no
// parseable field are all errors.
func extractPrice(body []byte, arrayPath, field string) (float64, error) {
	if !gjson.ValidBytes(body) {
		return 0, fmt.Errorf("%w: malformed JSON", sources.ErrInvalidResponse)
	}

	arr := gjson.GetBytes(body, arrayPath)
	if !arr.IsArray() {
		return 0, fmt.Errorf("%w: %q is not an array", sources.ErrInvalidResponse, arrayPath)
	}

	elems := arr.Array()
	if len(elems) == 0 {
		return 0, fmt.Errorf("%w: %q is empty", sources.ErrNoPricesExtracted, arrayPath)
	}

	var lastErr error
	for _, elem := range elems {
		raw := elem.Get(field)
		if !raw.Exists() || raw.Type == gjson.Null {
			continue
		}
		price, err := sources.ParsePrice(raw.String())
		if err != nil {
			lastErr = err
			continue
		}
		return price, nil
	}

	if lastErr != nil {
		return 0, fmt.Errorf("%w: %v", sources.ErrNoPricesExtracted, lastErr)
	}
	return 0, fmt.Errorf("%w: no %q field", sources.ErrNoPricesExtracted, field)
}
