// internal/app/system/geocode/client.go
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single provider call when the config does not say
// otherwise. A hung provider must never hang the request that triggered it.
const DefaultTimeout = 5 * time.Second

// retryMaxElapsed caps the 5xx retry window well under handler timeouts.
const retryMaxElapsed = 10 * time.Second

// Client is the HTTP implementation of Resolver. Construct one per process
// and inject it into the stores; there is no package-level instance.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *zap.Logger
}

// NewClient builds a provider client. timeout <= 0 falls back to
// DefaultTimeout.
func NewClient(baseURL, apiKey string, timeout time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// providerResponse mirrors the provider's wire format.
type providerResponse struct {
	Status  string           `json:"status"`
	Results []providerResult `json:"results"`
}

type providerResult struct {
	FormattedAddress string `json:"formatted_address"`
	Geometry         struct {
		Location Point `json:"location"`
	} `json:"geometry"`
}

// ResolveAddress forward-geocodes address.
func (c *Client) ResolveAddress(ctx context.Context, address string) (Result, error) {
	results, err := c.query(ctx, "forward", url.Values{"address": []string{address}})
	if err != nil {
		return Result{}, err
	}
	return toResult(bestForward(address, results)), nil
}

// ResolveCoordinates reverse-geocodes p.
func (c *Client) ResolveCoordinates(ctx context.Context, p Point) (Result, error) {
	if err := checkRange(p); err != nil {
		return Result{}, err
	}
	latlng := fmt.Sprintf("%v,%v", p.Lat, p.Lng)
	results, err := c.query(ctx, "reverse", url.Values{"latlng": []string{latlng}})
	if err != nil {
		return Result{}, err
	}
	return toResult(bestReverse(p, results)), nil
}

func toResult(r providerResult) Result {
	return Result{Address: r.FormattedAddress, Point: r.Geometry.Location}
}

// query performs one provider round trip, retrying 5xx responses and
// transport errors with exponential backoff until ctx or the retry window
// expires. Non-OK provider statuses and empty result sets are terminal.
func (c *Client) query(ctx context.Context, op string, params url.Values) ([]providerResult, error) {
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	reqURL := c.baseURL + "/geocode?" + params.Encode()

	var body providerResponse
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return err // transport error, retryable
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("provider returned %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("provider returned %d", resp.StatusCode))
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return backoff.Permanent(fmt.Errorf("decode response: %w", err))
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = retryMaxElapsed
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		c.log.Warn("geocode request failed", zap.String("op", op), zap.Error(err))
		return nil, &Error{Op: op, Err: err}
	}

	if body.Status != "OK" {
		return nil, &Error{Op: op, Status: body.Status}
	}
	if len(body.Results) == 0 {
		return nil, &Error{Op: op, Status: "ZERO_RESULTS"}
	}
	return body.Results, nil
}
