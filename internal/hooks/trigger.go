// Package hooks fires deploy webhooks stored in the ops KV.
package hooks

import (
	"context"
	"net/http"
	"time"
)

// HTTPClient lets tests substitute the transport.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Trigger struct {
	httpc HTTPClient
}

func NewTrigger(timeout time.Duration) *Trigger {
	return &Trigger{httpc: &http.Client{Timeout: timeout}}
}

// NewTriggerWith builds a trigger over a caller-supplied transport.
func NewTriggerWith(httpc HTTPClient) *Trigger {
	return &Trigger{httpc: httpc}
}

// Fire POSTs to the webhook URL and reports the upstream status code. The
// hook's response body is irrelevant to the caller; only reachability and
// status matter.
func (t *Trigger) Fire(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := t.httpc.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}
