package ollama

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody bounds how much of a rejected response is echoed back.
const maxErrorBody = 64 << 10

// errorEnvelope rewrites the body of every rejected response into a single-line
// {"error": "..."} object. The api client only reports status and message for
// that shape; plain-text or empty bodies from proxies would otherwise lose both.
type errorEnvelope struct {
	next http.RoundTripper
}

func (e errorEnvelope) RoundTrip(req *http.Request) (*http.Response, error) {
	next := e.next
	if next == nil {
		next = http.DefaultTransport
	}
	resp, err := next.RoundTrip(req)
	if err != nil || resp.StatusCode < http.StatusBadRequest {
		return resp, err
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read %s body: %w", resp.Status, err)
	}

	body, err := json.Marshal(map[string]string{"error": errorMessage(raw)})
	if err != nil {
		return nil, fmt.Errorf("encode %s body: %w", resp.Status, err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	resp.Header.Del("Content-Length")
	resp.Header.Set("Content-Type", "application/json")
	return resp, nil
}

// errorMessage extracts Ollama's error text, falling back to the raw body.
func errorMessage(raw []byte) string {
	var env struct {
		Error *string `json:"error"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && env.Error != nil {
		return *env.Error
	}
	return strings.TrimSpace(string(raw))
}
