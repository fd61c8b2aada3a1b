package inspire

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const endpointDefaultTimeout = 15 * time.Second

// Endpoint consumes another studio's GET /api/inspire, which answers
// {"prompt": "..."} or {"error": "..."}.
type Endpoint struct {
	url    string
	client *http.Client
}

func NewEndpoint(rawURL string, client *http.Client) (*Endpoint, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, errors.New("inspire endpoint url is required")
	}
	if client == nil {
		client = &http.Client{Timeout: endpointDefaultTimeout}
	}
	return &Endpoint{url: rawURL, client: client}, nil
}

func (e *Endpoint) Name() string { return "endpoint" }

type endpointResponse struct {
	Prompt string `json:"prompt"`
	Error  any    `json:"error"`
}

func (e *Endpoint) Prompt(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("inspire endpoint request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	var out endpointResponse
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&out)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if msg := errorMessage(out.Error); decodeErr == nil && msg != "" {
			return "", errors.New(msg)
		}
		return "", fmt.Errorf("inspire endpoint: request failed with status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("inspire endpoint decode: %w", decodeErr)
	}
	if strings.TrimSpace(out.Prompt) == "" {
		return "", ErrEmptyPrompt
	}
	return out.Prompt, nil
}

// errorMessage accepts both {"error":"msg"} and {"error":{"message":"msg"}}.
func errorMessage(v any) string {
	switch e := v.(type) {
	case string:
		return e
	case map[string]any:
		if msg, ok := e["message"].(string); ok {
			return msg
		}
	}
	return ""
}
