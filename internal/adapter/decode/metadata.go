package decode

import (
	"io"
	"strings"

	"github.com/dhowden/tag"

	"github.com/tejashwikalptaru/wavesync/internal/domain"
	"github.com/tejashwikalptaru/wavesync/internal/ports"
)

// TagReader reads ID3, Vorbis comment and MP4 tags with dhowden/tag.
type TagReader struct{}

// NewTagReader creates a TagReader.
func NewTagReader() *TagReader {
	return &TagReader{}
}

// ReadInfo implements ports.MetadataReader. Streams without tags return
// an empty AssetInfo and the tag library's error.
func (t *TagReader) ReadInfo(r io.ReadSeeker) (domain.AssetInfo, error) {
	m, err := tag.ReadFrom(r)
	if err != nil {
		return domain.AssetInfo{}, err
	}

	return domain.AssetInfo{
		Title:  strings.TrimSpace(m.Title()),
		Artist: strings.TrimSpace(m.Artist()),
		Album:  strings.TrimSpace(m.Album()),
	}, nil
}

var _ ports.MetadataReader = (*TagReader)(nil)
