package decode

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"

	"github.com/tejashwikalptaru/wavesync/internal/domain"
)

// AIFFDecoder decodes FORM/AIFF through go-audio/aiff.
type AIFFDecoder struct{}

// Format implements ports.Decoder.
func (AIFFDecoder) Format() string { return "aiff" }

// Match implements ports.Decoder.
func (AIFFDecoder) Match(header []byte) bool {
	return len(header) >= 12 &&
		bytes.Equal(header[0:4], []byte("FORM")) &&
		(bytes.Equal(header[8:12], []byte("AIFF")) || bytes.Equal(header[8:12], []byte("AIFC")))
}

// Decode implements ports.Decoder.
func (AIFFDecoder) Decode(r io.ReadSeeker) (*domain.PCMBuffer, error) {
	dec := aiff.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, errors.New("invalid AIFF header")
	}
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("read AIFF info: %w", err)
	}

	format := dec.Format()
	if format == nil || format.NumChannels <= 0 {
		return nil, errors.New("AIFF stream has no channels")
	}

	var data []int
	chunk := &goaudio.IntBuffer{Format: format, Data: make([]int, 4096*format.NumChannels)}
	for {
		n, err := dec.PCMBuffer(chunk)
		data = append(data, chunk.Data[:n]...)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read AIFF samples: %w", err)
		}
		if n == 0 || errors.Is(err, io.EOF) {
			break
		}
	}

	channels, err := deinterleaveInts(data, format.NumChannels, int(dec.BitDepth), 0)
	if err != nil {
		return nil, err
	}
	return newBuffer(format.SampleRate, channels)
}
