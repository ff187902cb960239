// Package relay delivers formatted prompts to a bot's webhook endpoint and
// translates the outcome into a reply string or a typed failure.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"botboard/internal/utils"
)

// NoReplyPlaceholder is returned in place of an empty 2xx body.
const NoReplyPlaceholder = "Keine Antwort erhalten."

// DefaultTimeout bounds a single delivery. Upstream generation can be slow,
// so the bound is generous.
const DefaultTimeout = 180 * time.Second

const maxBodySnippet = 200

// Endpoint is a resolved delivery target. URL may be empty when no
// configuration key matched; Keys lists the keys that were searched so the
// failure can name them.
type Endpoint struct {
	URL  string
	Keys []string
}

// Payload is the request content produced by a bot's BuildPayload hook.
// POST payloads are sent as a JSON body, GET payloads as query parameters.
type Payload struct {
	Method string
	Fields map[string]string
}

// NewPayload returns a POST payload with the given fields.
func NewPayload(fields map[string]string) Payload {
	return Payload{Method: http.MethodPost, Fields: fields}
}

// NoEndpointError reports that no webhook URL was resolvable. No network
// I/O was attempted.
type NoEndpointError struct {
	Keys []string
}

func (e *NoEndpointError) Error() string {
	return fmt.Sprintf("no webhook configured (searched keys: %s)", strings.Join(e.Keys, ", "))
}

// DeliveryError reports a failed delivery attempt: transport error, timeout,
// or a non-2xx response.
type DeliveryError struct {
	Status int
	Body   string
	Cause  error
}

func (e *DeliveryError) Error() string {
	if e.Status != 0 {
		if e.Body != "" {
			return fmt.Sprintf("webhook returned status %d: %s", e.Status, e.Body)
		}
		return fmt.Sprintf("webhook returned status %d", e.Status)
	}
	return e.Cause.Error()
}

func (e *DeliveryError) Unwrap() error { return e.Cause }

// Relay performs single-attempt webhook deliveries. Failed deliveries are
// never retried here; a retry is the user resubmitting.
type Relay struct {
	client *http.Client
	logger *utils.Logger
}

func New(timeout time.Duration, logger *utils.Logger) *Relay {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Relay{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Deliver sends one payload to the endpoint and returns the trimmed reply
// text. An empty 2xx body is normalized to NoReplyPlaceholder. The full
// reply is read before returning; there is no streaming.
func (r *Relay) Deliver(ctx context.Context, ep Endpoint, p Payload) (string, error) {
	if ep.URL == "" {
		return "", &NoEndpointError{Keys: ep.Keys}
	}

	req, err := r.buildRequest(ctx, ep.URL, p)
	if err != nil {
		return "", &DeliveryError{Cause: err}
	}

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Warnf("webhook delivery failed: %v", err)
		return "", &DeliveryError{Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &DeliveryError{Cause: fmt.Errorf("failed to read response: %w", err)}
	}

	r.logger.Debugf("webhook responded with status %d in %s", resp.StatusCode, time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &DeliveryError{Status: resp.StatusCode, Body: snippet(body)}
	}

	reply := strings.TrimSpace(string(body))
	if reply == "" {
		return NoReplyPlaceholder, nil
	}
	return reply, nil
}

// Archive posts rendered reply text to a secondary archive endpoint. This is
// a side channel: its outcome never appears in a transcript, only in
// transient UI feedback.
func (r *Relay) Archive(ctx context.Context, endpoint, content string) error {
	if endpoint == "" {
		return &NoEndpointError{Keys: []string{"ARCHIVE_WEBHOOK_URL"}}
	}

	payload := map[string]string{
		"bottype": "add_to_doku",
		"content": content,
	}
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal archive payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create archive request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return &DeliveryError{Cause: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &DeliveryError{Status: resp.StatusCode}
	}
	return nil
}

func (r *Relay) buildRequest(ctx context.Context, endpoint string, p Payload) (*http.Request, error) {
	method := p.Method
	if method == "" {
		method = http.MethodPost
	}

	if method == http.MethodGet {
		target, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("invalid endpoint: %w", err)
		}
		query := target.Query()
		for key, value := range p.Fields {
			query.Set(key, value)
		}
		target.RawQuery = query.Encode()
		return http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	}

	jsonBody, err := json.Marshal(p.Fields)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func snippet(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > maxBodySnippet {
		return text[:maxBodySnippet] + "..."
	}
	return text
}
