package metadata

import (
	"context"
	"io"
	"net/http"
	"time"
)

// maxImageBytes caps a single artwork download. Anything bigger is not cover
// art.
const maxImageBytes = 10 << 20

// FetchBinary downloads an image body through a provider gate, with the same
// retry and status classification as the JSON calls. Returns the bytes and
// the reported content type.
func FetchBinary(ctx context.Context, client *http.Client, g *Gate, rawURL, userAgent string,
	retries int, backoff time.Duration) ([]byte, string, error) {

	build := func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		if userAgent != "" {
			req.Header.Set("User-Agent", userAgent)
		}
		return req, nil
	}
	resp, err := doWithRetry(ctx, client, g, build, retries, backoff)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, "", Transientf("read image body: %v", err)
	}
	if len(data) > maxImageBytes {
		return nil, "", Permanentf("image larger than %d bytes", maxImageBytes)
	}
	if len(data) == 0 {
		return nil, "", Permanentf("empty image body")
	}
	return data, resp.Header.Get("Content-Type"), nil
}
