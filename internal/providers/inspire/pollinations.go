package inspire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const pollinationsDefaultTimeout = 20 * time.Second

type PollinationsOptions struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Pollinations asks the plain-text endpoint: GET {base}/{escaped instruction}.
type Pollinations struct {
	baseURL string
	client  *http.Client
}

func NewPollinations(opts PollinationsOptions) (*Pollinations, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("pollinations text base url is required")
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: pollinationsDefaultTimeout}
	}
	return &Pollinations{baseURL: baseURL, client: client}, nil
}

func (p *Pollinations) Name() string { return "pollinations" }

func (p *Pollinations) Prompt(ctx context.Context) (string, error) {
	q := url.Values{}
	// distinct seeds keep the endpoint from serving a cached answer
	q.Set("seed", strconv.Itoa(rand.IntN(1<<31)))
	endpoint := fmt.Sprintf("%s/%s?%s", p.baseURL, url.PathEscape(instruction), q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("pollinations text request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
	if err != nil {
		return "", fmt.Errorf("pollinations text read: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("pollinations text status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return string(body), nil
}
