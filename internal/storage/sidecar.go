package storage

import (
	"encoding/json"
	"fmt"
	"html"
	"time"

	"github.com/ironsheep/image-studio-mcp/internal/imgerr"
)

// Credit identifies where an asset came from. Source is always set; the
// photo fields are filled for fetched stock imagery only.
type Credit struct {
	Source          string
	PhotoID         string
	Photographer    string
	PhotographerURL string
	PhotoURL        string
}

// Attribution is a ready-to-paste credit line in three markups.
type Attribution struct {
	Text     string `json:"text"`
	HTML     string `json:"html"`
	Markdown string `json:"markdown"`
}

// NewAttribution builds the credit line for c. With a photographer it reads
// "Photo by <name> on <source>"; otherwise "Image from <source>".
func NewAttribution(c Credit) Attribution {
	if c.Photographer == "" {
		return Attribution{
			Text:     "Image from " + c.Source,
			HTML:     "Image from " + linkHTML(c.Source, c.PhotoURL),
			Markdown: "Image from " + linkMarkdown(c.Source, c.PhotoURL),
		}
	}
	photographerHTML := linkHTML(c.Photographer, c.PhotographerURL)
	photographerMD := linkMarkdown(c.Photographer, c.PhotographerURL)
	return Attribution{
		Text:     fmt.Sprintf("Photo by %s on %s", c.Photographer, c.Source),
		HTML:     fmt.Sprintf("Photo by %s on %s", photographerHTML, linkHTML(c.Source, c.PhotoURL)),
		Markdown: fmt.Sprintf("Photo by %s on %s", photographerMD, linkMarkdown(c.Source, c.PhotoURL)),
	}
}

func linkHTML(label, url string) string {
	if url == "" {
		return html.EscapeString(label)
	}
	return fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(url), html.EscapeString(label))
}

func linkMarkdown(label, url string) string {
	if url == "" {
		return label
	}
	return fmt.Sprintf("[%s](%s)", label, url)
}

// Sidecar is the JSON record written next to a saved asset.
type Sidecar struct {
	Source          string      `json:"source"`
	PhotoID         string      `json:"photoId,omitempty"`
	Photographer    string      `json:"photographer,omitempty"`
	PhotographerURL string      `json:"photographerUrl,omitempty"`
	PhotoURL        string      `json:"photoUrl,omitempty"`
	DownloadedAt    string      `json:"downloadedAt"`
	FilePath        string      `json:"filePath"`
	Format          string      `json:"format"`
	Width           int         `json:"width"`
	Height          int         `json:"height"`
	Quality         int         `json:"quality"`
	Attribution     Attribution `json:"attribution"`
}

// AssetInfo describes the written asset a sidecar refers to.
type AssetInfo struct {
	Path    string
	Format  string
	Width   int
	Height  int
	Quality int
}

// NewSidecar assembles the record for an asset written at now.
func NewSidecar(c Credit, a AssetInfo, now time.Time) Sidecar {
	return Sidecar{
		Source:          c.Source,
		PhotoID:         c.PhotoID,
		Photographer:    c.Photographer,
		PhotographerURL: c.PhotographerURL,
		PhotoURL:        c.PhotoURL,
		DownloadedAt:    now.UTC().Format(time.RFC3339),
		FilePath:        a.Path,
		Format:          a.Format,
		Width:           a.Width,
		Height:          a.Height,
		Quality:         a.Quality,
		Attribution:     NewAttribution(c),
	}
}

// SidecarPath returns "<assetPath>.json".
func SidecarPath(assetPath string) string {
	return assetPath + ".json"
}

// WriteSidecar writes sc next to assetPath and returns the sidecar path.
// The asset itself is expected to exist already; a failure here is reported
// as IOFailure naming the asset so callers know it was left in place.
func (s *Store) WriteSidecar(assetPath string, sc Sidecar) (string, error) {
	path := SidecarPath(assetPath)
	data, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return "", imgerr.Wrap(imgerr.IOFailure, err, "encode sidecar for %s", assetPath)
	}
	if err := s.WriteAsset(path, append(data, '\n')); err != nil {
		return "", imgerr.Wrap(imgerr.IOFailure, err, "asset %s was written but its sidecar failed", assetPath)
	}
	return path, nil
}
