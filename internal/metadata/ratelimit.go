package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultRetryCount = 10
	defaultRetryBase  = 3 * time.Second
)

// UserAgentFor builds the User-Agent sent to upstream services for a given
// release version. MusicBrainz asks for a contact URL in the string.
func UserAgentFor(version string) string {
	return fmt.Sprintf("TuneVault/%s (+https://github.com/JustinTDCT/TuneVault)", version)
}

// Gate serializes outgoing requests so that consecutive request starts are
// at least minInterval apart. Each adapter owns its own Gate; the binary
// downloader keeps a separate one per provider. State is never shared.
type Gate struct {
	limiter *rate.Limiter
}

// NewGate returns a gate with the given floor. A zero or negative interval
// disables gating (local mirror mode).
func NewGate(minInterval time.Duration) *Gate {
	if minInterval <= 0 {
		return &Gate{}
	}
	return &Gate{limiter: rate.NewLimiter(rate.Every(minInterval), 1)}
}

func (g *Gate) Wait(ctx context.Context) error {
	if g == nil || g.limiter == nil {
		return nil
	}
	return g.limiter.Wait(ctx)
}

// Interval reports the configured floor, zero when gating is disabled.
func (g *Gate) Interval() time.Duration {
	if g == nil || g.limiter == nil {
		return 0
	}
	return time.Duration(float64(time.Second) / float64(g.limiter.Limit()))
}

// doWithRetry performs a gated request, retrying transient failures
// (network errors, 5xx, 429) up to retries times with linearly increasing
// backoff. Terminal statuses map onto the error taxonomy. On success the
// response is returned with its body open; the caller closes it.
func doWithRetry(ctx context.Context, client *http.Client, g *Gate, build func() (*http.Request, error), retries int, backoff time.Duration) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		if err := g.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := build()
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req.WithContext(ctx))
		if err != nil {
			lastErr = err
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return resp, nil
		case resp.StatusCode == http.StatusNotFound:
			resp.Body.Close()
			return nil, ErrNotFound
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			resp.Body.Close()
			return nil, ErrForbidden
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			resp.Body.Close()
			lastErr = fmt.Errorf("upstream status %d", resp.StatusCode)
			continue
		default:
			resp.Body.Close()
			return nil, Permanentf("unexpected upstream status %d", resp.StatusCode)
		}
	}
	return nil, Transient(fmt.Errorf("giving up after %d attempts: %w", retries, lastErr))
}

// getJSON fetches rawURL through the retry loop and decodes the body into
// out. A non-JSON content type on a 200 is a permanent failure.
func getJSON(ctx context.Context, client *http.Client, g *Gate, userAgent, rawURL string, out interface{}, retries int, backoff time.Duration) error {
	build := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/json")
		return req, nil
	}
	resp, err := doWithRetry(ctx, client, g, build, retries, backoff)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	ct := resp.Header.Get("Content-Type")
	if ct != "" && !strings.Contains(ct, "json") {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Permanentf("unexpected content type %q from %s", ct, rawURL)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return Permanentf("decode response from %s: %v", rawURL, err)
	}
	return nil
}
