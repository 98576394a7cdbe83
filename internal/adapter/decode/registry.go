// Package decode turns fetched bytes into PCM buffers.
//
// The registry sniffs the container from its leading bytes, never from the
// URL, and hands the stream to the first decoder that claims it.
package decode

import (
	"bytes"
	"errors"
	"log/slog"

	"github.com/dhowden/tag"

	"github.com/tejashwikalptaru/wavesync/internal/domain"
	"github.com/tejashwikalptaru/wavesync/internal/ports"
)

// Registry dispatches to format decoders by content sniffing.
type Registry struct {
	logger   *slog.Logger
	decoders []ports.Decoder
	meta     ports.MetadataReader
}

// NewRegistry creates a registry over the given decoders, tried in order.
func NewRegistry(logger *slog.Logger, meta ports.MetadataReader, decoders ...ports.Decoder) *Registry {
	return &Registry{
		logger:   logger,
		decoders: decoders,
		meta:     meta,
	}
}

// Default returns a registry with every built-in decoder and tag reading enabled.
func Default(logger *slog.Logger) *Registry {
	return NewRegistry(logger, NewTagReader(),
		WAVDecoder{},
		AIFFDecoder{},
		VorbisDecoder{},
		MP3Decoder{},
	)
}

// Formats implements ports.DecoderRegistry.
func (r *Registry) Formats() []string {
	out := make([]string, len(r.decoders))
	for i, d := range r.decoders {
		out[i] = d.Format()
	}
	return out
}

// Decode implements ports.DecoderRegistry.
func (r *Registry) Decode(url string, data []byte) (*domain.AudioAsset, error) {
	h := header(data)

	dec := r.match(h)
	if dec == nil {
		format := identifyUnsupported(h)
		if format == "" {
			if len(data) == 0 {
				return nil, domain.NewDecodeError(url, "", domain.ErrEmptyBuffer)
			}
			format = "unknown"
		}
		return nil, domain.NewUnsupportedFormatError(url, format)
	}

	buf, err := dec.Decode(bytes.NewReader(data))
	if err != nil {
		r.logger.Debug("decode failed", slog.String("url", url), slog.String("format", dec.Format()), slog.Any("error", err))
		return nil, domain.NewDecodeError(url, dec.Format(), err)
	}

	info := r.readInfo(url, data)
	info.Format = dec.Format()
	info.Size = int64(len(data))

	r.logger.Debug("asset decoded",
		slog.String("url", url),
		slog.String("format", info.Format),
		slog.Int("sample_rate", buf.SampleRate),
		slog.Int("channels", buf.NumChannels()),
		slog.Duration("duration", buf.Duration()))

	return &domain.AudioAsset{URL: url, Format: dec.Format(), Buffer: buf, Info: info}, nil
}

func (r *Registry) match(h []byte) ports.Decoder {
	for _, d := range r.decoders {
		if d.Match(h) {
			return d
		}
	}
	return nil
}

// readInfo never fails the decode; untagged files are common.
func (r *Registry) readInfo(url string, data []byte) domain.AssetInfo {
	if r.meta == nil {
		return domain.AssetInfo{}
	}
	info, err := r.meta.ReadInfo(bytes.NewReader(data))
	if err != nil && !errors.Is(err, tag.ErrNoTagsFound) {
		r.logger.Debug("no tags read", slog.String("url", url), slog.Any("error", err))
	}
	return info
}

var _ ports.DecoderRegistry = (*Registry)(nil)
