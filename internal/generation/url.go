package generation

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the public image generation endpoint.
const DefaultBaseURL = "https://image.pollinations.ai"

// ImageURL builds the GET URL for task. The "_" parameter carries now in
// unix milliseconds so intermediaries never serve a cached image.
func ImageURL(base string, task Task, now time.Time) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	q := url.Values{}
	q.Set("width", strconv.Itoa(task.Width))
	q.Set("height", strconv.Itoa(task.Height))
	q.Set("seed", strconv.FormatInt(task.Seed, 10))
	q.Set("model", task.Model)
	if task.NoLogo {
		q.Set("nologo", "true")
	}
	if task.Private {
		q.Set("private", "true")
	}
	if task.Enhance {
		q.Set("enhance", "true")
	}
	if task.Transparent {
		q.Set("transparent", "true")
	}
	q.Set("_", strconv.FormatInt(now.UnixMilli(), 10))
	return base + "/prompt/" + url.PathEscape(task.Prompt) + "?" + q.Encode()
}
