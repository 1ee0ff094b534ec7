package evad

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/evolution-core/internal/policy"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/logger"
)

// CallbackSecretHeader carries the callback secret on notification requests.
const CallbackSecretHeader = "X-Evolution-Callback-Secret"

// Callback is where a run's terminal status is posted. A "{run_id}" in URL is
// replaced with the run ID.
type Callback struct {
	URL    string
	Secret string
}

// metadataHosts are cloud instance metadata endpoints callbacks may not target.
var metadataHosts = map[string]bool{
	"169.254.169.254":          true,
	"metadata.google.internal": true,
	"metadata":                 true,
	"fd00:ec2::254":            true,
}

// ValidateCallbackURL checks that raw is an absolute http(s) URL that does not
// point at a metadata or unspecified address. An empty URL is valid.
func ValidateCallbackURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(strings.ReplaceAll(raw, "{run_id}", "run"))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCallback, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https, got %q", ErrInvalidCallback, u.Scheme)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidCallback)
	}
	if metadataHosts[host] {
		return fmt.Errorf("%w: metadata endpoint %s is not allowed", ErrInvalidCallback, host)
	}
	if ip := net.ParseIP(host); ip != nil && (ip.IsUnspecified() || ip.IsLinkLocalUnicast()) {
		return fmt.Errorf("%w: address %s is not allowed", ErrInvalidCallback, host)
	}
	return nil
}

// Notifier posts terminal run snapshots to callback URLs.
type Notifier struct {
	httpClient *http.Client
	retry      policy.RetryPolicy

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewNotifier creates a notifier that retries a failed delivery three times
// with exponential backoff.
func NewNotifier() *Notifier {
	return NewNotifierWithPolicy(&http.Client{Timeout: 10 * time.Second},
		policy.NewRetryPolicy(true, 3, policy.BackoffExponential, time.Second))
}

func NewNotifierWithPolicy(client *http.Client, retry policy.RetryPolicy) *Notifier {
	if client == nil {
		client = http.DefaultClient
	}
	if retry == nil {
		retry = policy.NoRetry()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Notifier{
		httpClient: client,
		retry:      retry,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Notify sends run to cb asynchronously. It is a no-op without a URL.
func (n *Notifier) Notify(cb Callback, run Run) {
	if cb.URL == "" {
		return
	}

	payload := runFields(run)
	payload["timestamp"] = time.Now().UTC().UnixMilli()
	body, err := json.Marshal(payload)
	if err != nil {
		logger.Error("failed to marshal notification payload", "run_id", run.ID, "error", err)
		return
	}

	target := strings.ReplaceAll(cb.URL, "{run_id}", run.ID)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.send(target, cb.Secret, run, body)
	}()
}

func (n *Notifier) send(target, secret string, run Run, body []byte) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			logger.Debug("retrying notification", "callback_url", target, "run_id", run.ID, "attempt", attempt)
			if err := policy.Wait(n.ctx, n.retry, attempt); err != nil {
				lastErr = err
				break
			}
		}

		lastErr = n.post(target, secret, body)
		if lastErr == nil {
			logger.Info("notification sent", "run_id", run.ID, "status", string(run.Status))
			return
		}
		logger.Warn("notification attempt failed",
			"callback_url", target,
			"run_id", run.ID,
			"attempt", attempt+1,
			"error", lastErr)
		if !n.retry.ShouldRetry(attempt, lastErr) {
			break
		}
	}

	logger.Error("failed to send notification",
		"callback_url", target,
		"run_id", run.ID,
		"status", string(run.Status),
		"max_retries", n.retry.GetMaxRetries(),
		"last_error", lastErr)
}

func (n *Notifier) post(target, secret string, body []byte) error {
	req, err := http.NewRequestWithContext(n.ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "evolution-core/1.0")
	if secret != "" {
		req.Header.Set(CallbackSecretHeader, secret)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
	return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, snippet)
}

// Close waits for pending notifications. When ctx is done first, remaining
// deliveries are abandoned.
func (n *Notifier) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		n.cancel()
		return nil
	case <-ctx.Done():
		n.cancel()
		<-done
		return ctx.Err()
	}
}
