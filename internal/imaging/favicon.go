package imaging

import (
	"fmt"
	"image"
	"sort"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-studio-mcp/internal/imgerr"
)

// DefaultFaviconSizes is used when a request names no sizes.
var DefaultFaviconSizes = []int{16, 32, 48, 180, 192, 512}

const (
	rootFaviconSize  = 32
	touchIconSize    = 180
	maxFaviconSize   = 1024
	RootFaviconName  = "favicon.png"
	ManifestFileName = "site.webmanifest"
)

// Favicon roles.
const (
	RoleIcon      = "icon"
	RoleTouchIcon = "apple-touch-icon"
	RoleManifest  = "manifest"
)

// FaviconAsset is one rendered icon.
type FaviconAsset struct {
	Size  int    `json:"size"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	Bytes []byte `json:"-"`
}

// FaviconSet is the output of GenerateFavicons.
type FaviconSet struct {
	Icons []FaviconAsset `json:"icons"`
	Root  FaviconAsset   `json:"root"`
	// ManifestSizes lists 192 and 512 when both were rendered.
	ManifestSizes []int    `json:"manifest_sizes,omitempty"`
	Links         []string `json:"links"`
}

// FaviconName returns the file name for a size.
func FaviconName(size int) string {
	return fmt.Sprintf("favicon-%dx%d.png", size, size)
}

func faviconRole(size int) string {
	switch size {
	case touchIconSize:
		return RoleTouchIcon
	case 192, 512:
		return RoleManifest
	}
	return RoleIcon
}

// NormalizeFaviconSizes sorts and dedupes sizes, defaulting to
// DefaultFaviconSizes when empty.
func NormalizeFaviconSizes(sizes []int) ([]int, error) {
	if len(sizes) == 0 {
		return append([]int(nil), DefaultFaviconSizes...), nil
	}
	seen := make(map[int]bool, len(sizes))
	out := make([]int, 0, len(sizes))
	for _, s := range sizes {
		if s <= 0 || s > maxFaviconSize {
			return nil, imgerr.New(imgerr.InvalidParameter, "favicon size %d outside 1-%d", s, maxFaviconSize)
		}
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Ints(out)
	return out, nil
}

// GenerateFavicons center-crops img to a square and renders each size as
// png with an exact-fill resize. A 32×32 rendition is always produced as
// the root favicon.
func GenerateFavicons(img image.Image, sizes []int) (*FaviconSet, error) {
	sizes, err := NormalizeFaviconSizes(sizes)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	edge := minInt(b.Dx(), b.Dy())
	square := imaging.CropCenter(img, edge, edge)

	render := func(size int) ([]byte, error) {
		return Encode(imaging.Resize(square, size, size, imaging.Lanczos), FormatPNG, 0)
	}

	set := &FaviconSet{}
	has := make(map[int]bool)
	for _, size := range sizes {
		data, err := render(size)
		if err != nil {
			return nil, err
		}
		set.Icons = append(set.Icons, FaviconAsset{Size: size, Name: FaviconName(size), Role: faviconRole(size), Bytes: data})
		has[size] = true
	}

	root, err := render(rootFaviconSize)
	if err != nil {
		return nil, err
	}
	set.Root = FaviconAsset{Size: rootFaviconSize, Name: RootFaviconName, Role: RoleIcon, Bytes: root}

	if has[192] && has[512] {
		set.ManifestSizes = []int{192, 512}
	}
	set.Links = faviconLinks(set)
	return set, nil
}

func faviconLinks(set *FaviconSet) []string {
	links := []string{
		fmt.Sprintf(`<link rel="icon" type="image/png" href="/%s">`, RootFaviconName),
	}
	for _, icon := range set.Icons {
		switch icon.Role {
		case RoleIcon:
			links = append(links, fmt.Sprintf(`<link rel="icon" type="image/png" sizes="%dx%d" href="/%s">`, icon.Size, icon.Size, icon.Name))
		case RoleTouchIcon:
			links = append(links, fmt.Sprintf(`<link rel="apple-touch-icon" sizes="%dx%d" href="/%s">`, icon.Size, icon.Size, icon.Name))
		}
	}
	if len(set.ManifestSizes) > 0 {
		links = append(links, fmt.Sprintf(`<link rel="manifest" href="/%s">`, ManifestFileName))
	}
	return links
}
