package imaging

import (
	"bytes"

	exif "github.com/dsoprea/go-exif/v3"
	jpegstructure "github.com/dsoprea/go-jpeg-image-structure/v2"

	"github.com/ironsheep/image-studio-mcp/internal/imgerr"
)

// EXIFFields are the attribution tags written into jpeg output.
type EXIFFields struct {
	ImageDescription string
	Artist           string
	Copyright        string
}

// IsZero reports whether no tag would be written.
func (f EXIFFields) IsZero() bool {
	return f == EXIFFields{}
}

// maxSegmentLen is the largest APP1 payload a 16-bit length can describe.
const maxSegmentLen = 0xFFFF

// EmbedEXIF sets f as IFD0 tags of the jpeg's APP1 EXIF segment, creating
// the segment right after SOI when the data has none. Empty fields are
// skipped; when all are empty data is returned as-is.
func EmbedEXIF(data []byte, f EXIFFields) ([]byte, error) {
	if f.IsZero() {
		return data, nil
	}

	jmp := jpegstructure.NewJpegMediaParser()
	if !jmp.LooksLikeFormat(data) {
		return nil, imgerr.New(imgerr.EncodingFailure, "exif can only be embedded in jpeg data")
	}
	mc, err := jmp.ParseBytes(data)
	if err != nil {
		return nil, imgerr.Wrap(imgerr.EncodingFailure, err, "parse jpeg segments")
	}
	sl := mc.(*jpegstructure.SegmentList)

	rootIb, err := sl.ConstructExifBuilder()
	if err != nil {
		return nil, imgerr.Wrap(imgerr.EncodingFailure, err, "read exif")
	}
	ifd0, err := exif.GetOrCreateIbFromRootIb(rootIb, "IFD0")
	if err != nil {
		return nil, imgerr.Wrap(imgerr.EncodingFailure, err, "open IFD0")
	}
	for _, tag := range []struct{ name, value string }{
		{"ImageDescription", f.ImageDescription},
		{"Artist", f.Artist},
		{"Copyright", f.Copyright},
	} {
		if tag.value == "" {
			continue
		}
		if err := ifd0.SetStandardWithName(tag.name, tag.value); err != nil {
			return nil, imgerr.Wrap(imgerr.EncodingFailure, err, "set exif %s", tag.name)
		}
	}

	if err := sl.SetExif(rootIb); err != nil {
		return nil, imgerr.Wrap(imgerr.EncodingFailure, err, "encode exif")
	}
	_, seg, err := sl.FindExif()
	if err != nil {
		return nil, imgerr.Wrap(imgerr.EncodingFailure, err, "locate exif segment")
	}
	if n := len(seg.Data) + 2; n > maxSegmentLen {
		return nil, imgerr.New(imgerr.EncodingFailure, "exif block of %d bytes exceeds the APP1 limit", n)
	}

	var out bytes.Buffer
	out.Grow(len(data) + len(seg.Data) + 4)
	if err := sl.Write(&out); err != nil {
		return nil, imgerr.Wrap(imgerr.EncodingFailure, err, "write jpeg segments")
	}
	return out.Bytes(), nil
}
