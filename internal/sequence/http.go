package sequence

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// HTTPAllocator calls a remote procedure that takes no input and returns one
// integer, either as a bare JSON number or a numeric JSON string.
type HTTPAllocator struct {
	url    string
	apiKey string
	client *http.Client
}

func NewHTTPAllocator(url, apiKey string, client *http.Client) *HTTPAllocator {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPAllocator{url: url, apiKey: apiKey, client: client}
}

func (a *HTTPAllocator) Allocate(ctx context.Context) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader([]byte("{}")))
	if err != nil {
		return 0, fmt.Errorf("%w: failed to build request: %v", ErrAllocation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("apikey", a.apiKey)
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrAllocation, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return 0, fmt.Errorf("%w: failed to read response: %v", ErrAllocation, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("%w: allocator returned HTTP %d: %s", ErrAllocation, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return parseIdentifier(body)
}

func parseIdentifier(body []byte) (int64, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var value interface{}
	if err := dec.Decode(&value); err != nil {
		return 0, fmt.Errorf("%w: response is not JSON: %v", ErrAllocation, err)
	}

	var raw string
	switch v := value.(type) {
	case json.Number:
		raw = v.String()
	case string:
		raw = strings.TrimSpace(v)
	default:
		return 0, fmt.Errorf("%w: unexpected response %s", ErrAllocation, strings.TrimSpace(string(body)))
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrAllocation, raw)
	}
	if err := checkIdentifier(id); err != nil {
		return 0, err
	}
	return id, nil
}
