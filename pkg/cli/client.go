package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/platinummonkey/specbook/pkg/httputil"
)

// client calls the specbook HTTP API
type client struct {
	server string
	http   *http.Client
}

func newClient(server string) *client {
	return &client{
		server: strings.TrimRight(server, "/"),
		http:   &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *client) url(path string, query url.Values) string {
	u := c.server + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do sends body and returns the response payload. Non-2xx responses become
// errors carrying the server's message.
func (c *client) do(method, path string, query url.Values, contentType string, body []byte) ([]byte, error) {
	req, err := http.NewRequest(method, c.url(path, query), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr httputil.ErrorResponse
		if json.Unmarshal(payload, &apiErr) == nil && apiErr.Error != "" {
			for _, f := range apiErr.Fields {
				apiErr.Error += fmt.Sprintf("; %s %s", f.Field, f.Message)
			}
			return nil, fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	return payload, nil
}

func (c *client) postText(path, text string, dest interface{}) error {
	payload, err := c.do(http.MethodPost, path, nil, "text/plain", []byte(text))
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, dest)
}
