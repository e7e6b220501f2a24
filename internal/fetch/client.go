// Package fetch downloads random stock photos from a picsum-style
// placeholder service ("{base}/{w}/{h}?grayscale&blur=N").
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ironsheep/image-studio-mcp/internal/imgerr"
)

// Blur bounds accepted by the service.
const (
	MinBlur = 1
	MaxBlur = 10
)

const defaultMaxBytes = 25 << 20

// Client is safe for concurrent use.
type Client struct {
	baseURL  string
	http     *http.Client
	maxBytes int64
}

// Photo is a downloaded image plus the URL it was finally served from.
type Photo struct {
	Bytes       []byte
	URL         string
	ContentType string
	// ID is the service's image id when it reports one (Picsum-Id header).
	ID string
}

// NewClient returns a Client for baseURL. maxBytes <= 0 selects 25MB.
func NewClient(baseURL string, timeout time.Duration, maxBytes int64) *Client {
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
	}
}

// PlaceholderURL builds the request URL. blur is 0 (off) or 1-10.
func (c *Client) PlaceholderURL(width, height, blur int, grayscale bool) (string, error) {
	if width <= 0 || height <= 0 {
		return "", imgerr.New(imgerr.InvalidParameter, "placeholder size %dx%d must be positive", width, height)
	}
	if blur != 0 && (blur < MinBlur || blur > MaxBlur) {
		return "", imgerr.New(imgerr.InvalidParameter, "blur %d outside %d-%d", blur, MinBlur, MaxBlur)
	}

	u := fmt.Sprintf("%s/%d/%d", c.baseURL, width, height)
	var query []string
	if grayscale {
		query = append(query, "grayscale")
	}
	if blur > 0 {
		query = append(query, fmt.Sprintf("blur=%d", blur))
	}
	if len(query) > 0 {
		u += "?" + strings.Join(query, "&")
	}
	return u, nil
}

// RandomImage downloads a random width×height photo. Redirects are
// followed; the returned URL is the final one.
func (c *Client) RandomImage(ctx context.Context, width, height, blur int, grayscale bool) (*Photo, error) {
	u, err := c.PlaceholderURL(width, height, blur, grayscale)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, imgerr.Wrap(imgerr.InvalidParameter, err, "build request for %s", u)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, imgerr.Wrap(imgerr.IOFailure, err, "fetch %s", u)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, imgerr.New(imgerr.IOFailure, "fetch %s: unexpected status %s", u, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, imgerr.Wrap(imgerr.IOFailure, err, "read response from %s", u)
	}
	if int64(len(data)) > c.maxBytes {
		return nil, imgerr.New(imgerr.IOFailure, "response from %s exceeds %d bytes", u, c.maxBytes)
	}

	return &Photo{
		Bytes:       data,
		URL:         resp.Request.URL.String(),
		ContentType: resp.Header.Get("Content-Type"),
		ID:          resp.Header.Get("Picsum-Id"),
	}, nil
}
