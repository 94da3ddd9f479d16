package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TestContext holds the last response of a scenario against a running server.
type TestContext struct {
	BaseURL string
	client  *http.Client

	status int
	body   []byte
}

func NewTestContext(baseURL string) *TestContext {
	return &TestContext{
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (tc *TestContext) reset() {
	tc.status = 0
	tc.body = nil
}

// GET issues a request and keeps the status and body for later assertions.
func (tc *TestContext) GET(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tc.BaseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	tc.status = resp.StatusCode
	tc.body = body
	return nil
}

func (tc *TestContext) Status() int {
	return tc.status
}

// Field walks a dotted path ("district.code") through the JSON body.
func (tc *TestContext) Field(path string) (any, error) {
	var doc any
	if err := json.Unmarshal(tc.body, &doc); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	cur := doc
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("field %q: %q is not an object", path, part)
		}
		cur, ok = obj[part]
		if !ok {
			return nil, fmt.Errorf("field %q missing in %s", path, tc.body)
		}
	}
	return cur, nil
}
