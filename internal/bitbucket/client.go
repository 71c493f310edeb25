// Package bitbucket is the HTTP transport for the Bitbucket Cloud 2.0 API:
// basic-authenticated JSON requests and paginated collection listing.
package bitbucket

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

	"github.com/alexisbeaulieu97/bucketsync/internal/logger"
	"github.com/alexisbeaulieu97/bucketsync/internal/model"
	syncerrors "github.com/alexisbeaulieu97/bucketsync/pkg/errors"
)

// PageLen is the page size requested from collection endpoints.
const PageLen = 100

// Options configures a Client.
type Options struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration

	// HTTPClient overrides the default client, mostly for tests.
	HTTPClient *http.Client
	Logger     *logger.Logger
}

// Client issues authenticated requests against the API.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	log        *logger.Logger
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
}

// NewClient creates a Client.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &Client{
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		username:   opts.Username,
		password:   opts.Password,
		httpClient: httpClient,
		log:        log,
	}
}

// Endpoint returns the collection URL for kind in the given repository.
func (c *Client) Endpoint(workspace, repoSlug string, kind model.Kind) string {
	return Endpoint(c.baseURL, workspace, repoSlug, kind)
}

// Endpoint returns the collection URL for kind below baseURL.
func Endpoint(baseURL, workspace, repoSlug string, kind model.Kind) string {
	repo := fmt.Sprintf("%s/repositories/%s/%s",
		strings.TrimSuffix(baseURL, "/"),
		url.PathEscape(workspace),
		url.PathEscape(repoSlug),
	)

	switch kind {
	case model.KindEnvironment:
		return repo + "/environments"
	default:
		return repo + "/pipelines_config/variables"
	}
}

// ItemURL returns the URL of a single resource addressed by its uuid.
func ItemURL(endpoint, uuid string) string {
	return strings.TrimSuffix(endpoint, "/") + "/" + url.PathEscape(uuid)
}

// Do sends one request. body is JSON-encoded when non-nil. Only network and
// encoding failures are returned as errors; status handling is left to the
// caller through Expect.
func (c *Client) Do(ctx context.Context, method, target string, body any) (*Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, syncerrors.NewTransportError(method, target, fmt.Errorf("encode request body: %w", err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, syncerrors.NewTransportError(method, target, err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.WithFields(map[string]any{"method": method, "url": target}).Debug("sending request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, syncerrors.NewTransportError(method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, syncerrors.NewTransportError(method, target, fmt.Errorf("read response body: %w", err))
	}

	c.log.WithFields(map[string]any{"method": method, "url": target, "status": resp.StatusCode}).Debug("received response")

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

// Expect returns a TransportError carrying the response body unless the
// status is one of want. With no codes given any 2xx status is accepted.
func Expect(resp *Response, method, target string, want ...int) error {
	if resp == nil {
		return syncerrors.NewTransportError(method, target, fmt.Errorf("no response"))
	}

	if len(want) == 0 {
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		return syncerrors.NewStatusError(method, target, resp.StatusCode, resp.Body)
	}

	for _, code := range want {
		if resp.StatusCode == code {
			return nil
		}
	}
	return syncerrors.NewStatusError(method, target, resp.StatusCode, resp.Body)
}
