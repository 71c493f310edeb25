package bitbucket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	syncerrors "github.com/alexisbeaulieu97/bucketsync/pkg/errors"
)

// page is the envelope of every paginated collection response.
type page struct {
	Values []json.RawMessage `json:"values"`
	Next   string            `json:"next,omitempty"`
}

// ListAll fetches every page of a collection and returns the values in the
// order the server produced them. Any failure aborts the listing; a partial
// list is never returned.
func (c *Client) ListAll(ctx context.Context, endpoint string) ([]json.RawMessage, error) {
	first, err := firstPageURL(endpoint)
	if err != nil {
		return nil, syncerrors.NewTransportError(http.MethodGet, endpoint, err)
	}

	var values []json.RawMessage
	visited := make(map[string]struct{})
	pages := 0

	for next := first; next != ""; {
		if _, seen := visited[next]; seen {
			return nil, syncerrors.NewTransportError(http.MethodGet, next, fmt.Errorf("pagination loop: page already visited"))
		}
		visited[next] = struct{}{}

		resp, err := c.Do(ctx, http.MethodGet, next, nil)
		if err != nil {
			return nil, err
		}
		if err := Expect(resp, http.MethodGet, next); err != nil {
			return nil, err
		}

		var p page
		if err := json.Unmarshal(resp.Body, &p); err != nil {
			return nil, syncerrors.NewTransportError(http.MethodGet, next, fmt.Errorf("decode page: %w", err))
		}
		values = append(values, p.Values...)
		pages++

		if p.Next == "" {
			break
		}
		resolved, err := resolve(next, p.Next)
		if err != nil {
			return nil, syncerrors.NewTransportError(http.MethodGet, next, fmt.Errorf("invalid next link %q: %w", p.Next, err))
		}
		next = resolved
	}

	c.log.WithFields(map[string]any{"url": endpoint, "pages": pages, "count": len(values)}).Debug("listed collection")

	return values, nil
}

func firstPageURL(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("pagelen", strconv.Itoa(PageLen))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// resolve turns a possibly relative next link into an absolute URL.
func resolve(current, next string) (string, error) {
	base, err := url.Parse(current)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(next)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}
