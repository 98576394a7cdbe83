package decode

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/wav"

	"github.com/tejashwikalptaru/wavesync/internal/domain"
)

// WAVDecoder decodes RIFF/WAVE integer PCM through go-audio/wav.
type WAVDecoder struct{}

// Format implements ports.Decoder.
func (WAVDecoder) Format() string { return "wav" }

// Match implements ports.Decoder.
func (WAVDecoder) Match(header []byte) bool {
	return len(header) >= 12 &&
		bytes.Equal(header[0:4], []byte("RIFF")) &&
		bytes.Equal(header[8:12], []byte("WAVE"))
}

// Decode implements ports.Decoder.
func (WAVDecoder) Decode(r io.ReadSeeker) (*domain.PCMBuffer, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, errors.New("invalid WAV header")
	}

	if dec.WavAudioFormat != 1 {
		return nil, fmt.Errorf("WAV audio format %d is not integer PCM", dec.WavAudioFormat)
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read WAV samples: %w", err)
	}

	// 8-bit WAV is unsigned.
	offset := 0
	if dec.BitDepth == 8 {
		offset = 128
	}

	channels, err := deinterleaveInts(pcm.Data, int(dec.NumChans), int(dec.BitDepth), offset)
	if err != nil {
		return nil, err
	}
	return newBuffer(int(dec.SampleRate), channels)
}
