package ports

import (
	"context"
	"io"

	"github.com/tejashwikalptaru/wavesync/internal/domain"
)

// Fetcher retrieves the raw bytes of an audio asset.
//
// Implementations must honour ctx cancellation and return *domain.FetchError
// for any transport or status failure.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Decoder turns encoded audio into a PCM buffer.
type Decoder interface {
	// Format returns the container name this decoder handles (e.g. "wav").
	Format() string

	// Match reports whether the header bytes belong to this format.
	Match(header []byte) bool

	// Decode parses the full stream. Errors are plain; the caller wraps them
	// into domain.DecodeError.
	Decode(r io.ReadSeeker) (*domain.PCMBuffer, error)
}

// DecoderRegistry selects a decoder for a byte stream.
type DecoderRegistry interface {
	// Decode sniffs the data, decodes it and fills in asset metadata.
	// Unknown containers yield *domain.UnsupportedFormatError; parse failures
	// yield *domain.DecodeError.
	Decode(url string, data []byte) (*domain.AudioAsset, error)

	// Formats lists the supported container names.
	Formats() []string
}

// MetadataReader extracts descriptive tags from encoded audio.
type MetadataReader interface {
	ReadInfo(r io.ReadSeeker) (domain.AssetInfo, error)
}
