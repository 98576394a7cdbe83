package decode

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"

	"github.com/tejashwikalptaru/wavesync/internal/domain"
)

// VorbisDecoder decodes Ogg Vorbis through jfreymuth/oggvorbis.
type VorbisDecoder struct{}

// Format implements ports.Decoder.
func (VorbisDecoder) Format() string { return "ogg" }

// Match implements ports.Decoder. Ogg pages that carry Opus or FLAC are left
// to the sniffer, which reports them as unsupported.
func (VorbisDecoder) Match(header []byte) bool {
	if len(header) < 4 || string(header[0:4]) != "OggS" {
		return false
	}
	return !bytes.Contains(header, []byte("OpusHead")) && !bytes.Contains(header, []byte("\x7fFLAC"))
}

// Decode implements ports.Decoder.
func (VorbisDecoder) Decode(r io.ReadSeeker) (*domain.PCMBuffer, error) {
	rd, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("open Ogg Vorbis stream: %w", err)
	}

	numChans := rd.Channels()
	if numChans <= 0 {
		return nil, errors.New("Ogg Vorbis stream has no channels")
	}

	var data []float32
	chunk := make([]float32, 4096*numChans)
	for {
		n, err := rd.Read(chunk)
		data = append(data, chunk[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read Ogg Vorbis samples: %w", err)
		}
	}

	return newBuffer(rd.SampleRate(), deinterleaveFloats(data, numChans))
}
