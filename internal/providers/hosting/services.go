package hosting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
)

const (
	CatboxEndpoint     = "https://catbox.moe/user/api.php"
	ImgBBEndpoint      = "https://api.imgbb.com/1/upload"
	PostimagesEndpoint = "https://postimages.org/json/rr"
)

// Catbox answers with the public URL as plain text.
type Catbox struct {
	Endpoint string
	Client   *http.Client
}

func (c *Catbox) Name() string { return "catbox" }

func (c *Catbox) Upload(ctx context.Context, img Image) (string, error) {
	body, err := postMultipart(ctx, httpClient(c.Client), orDefault(c.Endpoint, CatboxEndpoint), "fileToUpload", img,
		field{"reqtype", "fileupload"})
	if err != nil {
		return "", fmt.Errorf("catbox: %w", err)
	}
	link := strings.TrimSpace(string(body))
	if !strings.HasPrefix(link, "https://") {
		return "", errors.New("catbox: invalid response")
	}
	return link, nil
}

// ImgBB needs an API key; the key travels as a query parameter.
type ImgBB struct {
	APIKey   string
	Endpoint string
	Client   *http.Client
}

func (i *ImgBB) Name() string { return "imgbb" }

func (i *ImgBB) Upload(ctx context.Context, img Image) (string, error) {
	if strings.TrimSpace(i.APIKey) == "" {
		return "", errors.New("imgbb: api key is not configured")
	}
	endpoint := orDefault(i.Endpoint, ImgBBEndpoint) + "?key=" + url.QueryEscape(i.APIKey)
	body, err := postMultipart(ctx, httpClient(i.Client), endpoint, "image", img)
	if err != nil {
		return "", fmt.Errorf("imgbb: %w", err)
	}
	var out struct {
		Success bool `json:"success"`
		Data    struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &out); err != nil || !out.Success || out.Data.URL == "" {
		return "", errors.New("imgbb: invalid response")
	}
	return out.Data.URL, nil
}

type Postimages struct {
	Endpoint string
	Client   *http.Client
}

func (p *Postimages) Name() string { return "postimages" }

func (p *Postimages) Upload(ctx context.Context, img Image) (string, error) {
	body, err := postMultipart(ctx, httpClient(p.Client), orDefault(p.Endpoint, PostimagesEndpoint), "upload", img,
		field{"token", "demo"})
	if err != nil {
		return "", fmt.Errorf("postimages: %w", err)
	}
	var out struct {
		Status string `json:"status"`
		URL    string `json:"url"`
	}
	if err := json.Unmarshal(body, &out); err != nil || out.Status != "OK" || out.URL == "" {
		return "", errors.New("postimages: invalid response")
	}
	return out.URL, nil
}

// DefaultChain is catbox, then imgbb when a key is set, then postimages.
func DefaultChain(imgbbKey string, client *http.Client, logger *zerolog.Logger) *Chain {
	uploaders := []Uploader{&Catbox{Client: client}}
	if strings.TrimSpace(imgbbKey) != "" {
		uploaders = append(uploaders, &ImgBB{APIKey: imgbbKey, Client: client})
	}
	uploaders = append(uploaders, &Postimages{Client: client})
	return NewChain(logger, uploaders...)
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
