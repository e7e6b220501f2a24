package fetch

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/image-studio-mcp/internal/imgerr"
)

func TestPlaceholderURL(t *testing.T) {
	c := NewClient("https://picsum.photos/", time.Second, 0)

	tests := []struct {
		name      string
		w, h      int
		blur      int
		grayscale bool
		want      string
	}{
		{"plain", 300, 200, 0, false, "https://picsum.photos/300/200"},
		{"grayscale", 300, 200, 0, true, "https://picsum.photos/300/200?grayscale"},
		{"blur", 300, 200, 4, false, "https://picsum.photos/300/200?blur=4"},
		{"both", 640, 480, 10, true, "https://picsum.photos/640/480?grayscale&blur=10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.PlaceholderURL(tt.w, tt.h, tt.blur, tt.grayscale)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlaceholderURL_Invalid(t *testing.T) {
	c := NewClient("http://x", time.Second, 0)

	for _, args := range [][3]int{{0, 10, 0}, {10, -1, 0}, {10, 10, 11}, {10, 10, -2}} {
		_, err := c.PlaceholderURL(args[0], args[1], args[2], false)
		assert.Equal(t, imgerr.InvalidParameter, imgerr.KindOf(err), "%v", args)
	}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	img.Set(0, 0, color.NRGBA{1, 2, 3, 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestRandomImage(t *testing.T) {
	body := pngBytes(t)
	var gotQuery string

	mux := http.NewServeMux()
	mux.HandleFunc("/4/3", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		http.Redirect(w, r, "/id/42/4/3", http.StatusFound)
	})
	mux.HandleFunc("/id/42/4/3", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Picsum-Id", "42")
		_, _ = w.Write(body)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	photo, err := NewClient(srv.URL, 5*time.Second, 0).RandomImage(context.Background(), 4, 3, 2, true)
	require.NoError(t, err)

	assert.Equal(t, "grayscale&blur=2", gotQuery)
	assert.Equal(t, body, photo.Bytes)
	assert.Equal(t, srv.URL+"/id/42/4/3", photo.URL)
	assert.Equal(t, "42", photo.ID)
	assert.Equal(t, "image/png", photo.ContentType)
}

func TestRandomImage_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/10/10" {
			_, _ = w.Write(make([]byte, 64))
			return
		}
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second, 0).RandomImage(context.Background(), 5, 5, 0, false)
	require.Error(t, err)
	assert.Equal(t, imgerr.IOFailure, imgerr.KindOf(err))
	assert.Contains(t, err.Error(), "503")

	_, err = NewClient(srv.URL, time.Second, 16).RandomImage(context.Background(), 10, 10, 0, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds 16 bytes")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewClient(srv.URL, time.Second, 0).RandomImage(ctx, 10, 10, 0, false)
	assert.Equal(t, imgerr.IOFailure, imgerr.KindOf(err))
}
