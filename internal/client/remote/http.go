package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/mkuznecovs/notesync/internal/common"
)

const (
	defaultTimeout   = 15 * time.Second
	defaultBaseDelay = 500 * time.Millisecond
	listMaxRetries   = 2
)

// HTTPGateway talks JSON over HTTP to the note service. The token is an
// opaque bearer credential; session management lives outside this package.
type HTTPGateway struct {
	baseURL    string
	token      string
	httpClient *http.Client
	baseDelay  time.Duration
}

// NewHTTPGateway builds a gateway for the service at baseURL. A nil client
// gets a default timeout; a non-positive baseDelay gets the default retry
// base delay.
func NewHTTPGateway(baseURL, token string, httpClient *http.Client, baseDelay time.Duration) *HTTPGateway {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if baseDelay <= 0 {
		baseDelay = defaultBaseDelay
	}
	return &HTTPGateway{
		baseURL:    baseURL,
		token:      strings.TrimSpace(token),
		httpClient: httpClient,
		baseDelay:  baseDelay,
	}
}

func (g *HTTPGateway) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if err := mapStatus(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", common.ErrNetwork, err)
	}
	return nil
}

// mapStatus converts non-2xx responses into the shared error taxonomy.
func mapStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: remote %s", common.ErrNotFound, resp.Status)
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: remote %s", common.ErrNetwork, resp.Status)
	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("remote: unexpected status %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}
}

// List fetches the full remote note set for an owner. Transient failures are
// retried with exponential backoff; mutating calls are not retried here
// because the mutation queue owns their retry policy.
func (g *HTTPGateway) List(ctx context.Context, owner string) ([]RemoteNote, error) {
	var notes []RemoteNote
	backoff := retry.WithMaxRetries(listMaxRetries, retry.NewExponential(g.baseDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var out []RemoteNote
		err := g.do(ctx, http.MethodGet, "/owners/"+url.PathEscape(owner)+"/notes", nil, &out)
		if err != nil {
			if errors.Is(err, common.ErrNetwork) {
				return retry.RetryableError(err)
			}
			return err
		}
		notes = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return notes, nil
}

type notePayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Tag   string `json:"tag"`
}

func (g *HTTPGateway) Create(ctx context.Context, title, body, tag string) (RemoteNote, error) {
	var created RemoteNote
	err := g.do(ctx, http.MethodPost, "/notes", notePayload{Title: title, Body: body, Tag: tag}, &created)
	if err != nil {
		return RemoteNote{}, err
	}
	return created, nil
}

func (g *HTTPGateway) Update(ctx context.Context, id, title, body, tag string) error {
	err := g.do(ctx, http.MethodPut, "/notes/"+url.PathEscape(id), notePayload{Title: title, Body: body, Tag: tag}, nil)
	if errors.Is(err, common.ErrNotFound) {
		// the server already converged without us
		return nil
	}
	return err
}

func (g *HTTPGateway) Delete(ctx context.Context, id string) error {
	err := g.do(ctx, http.MethodDelete, "/notes/"+url.PathEscape(id), nil, nil)
	if errors.Is(err, common.ErrNotFound) {
		return nil
	}
	return err
}

func (g *HTTPGateway) Ping(ctx context.Context) error {
	return g.do(ctx, http.MethodGet, "/health", nil, nil)
}
