package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrTooLarge is returned when a media payload exceeds the fetch limit.
var ErrTooLarge = errors.New("transport: media too large")

// HTTPFetcher downloads attachment URLs, retrying transient failures.
type HTTPFetcher struct {
	Client          *http.Client
	MaxBytes        int64
	MaxElapsed      time.Duration
	InitialInterval time.Duration
}

func NewHTTPFetcher(maxBytes int64) *HTTPFetcher {
	return &HTTPFetcher{
		Client:          &http.Client{Timeout: 60 * time.Second},
		MaxBytes:        maxBytes,
		MaxElapsed:      30 * time.Second,
		InitialInterval: 500 * time.Millisecond,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := f.Client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		// 5xx and 429 are worth another try, anything else is final.
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("transport: fetch status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("transport: fetch status %d", resp.StatusCode))
		}

		limit := f.MaxBytes
		if limit <= 0 {
			limit = 50 << 20
		}
		b, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
		if err != nil {
			return err
		}
		if int64(len(b)) > limit {
			return backoff.Permanent(ErrTooLarge)
		}
		body = b
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.InitialInterval
	b.MaxElapsedTime = f.MaxElapsed
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}
	return body, nil
}
