package decode

import (
	"encoding/binary"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/tejashwikalptaru/wavesync/internal/domain"
)

// MP3Decoder decodes MPEG-1/2 layer III through go-mp3.
// go-mp3 always produces 16-bit little-endian stereo.
type MP3Decoder struct{}

// Format implements ports.Decoder.
func (MP3Decoder) Format() string { return "mp3" }

// Match implements ports.Decoder. It accepts an ID3v2 tag or a bare frame sync.
func (MP3Decoder) Match(header []byte) bool {
	if len(header) >= 3 && string(header[0:3]) == "ID3" {
		return true
	}
	// 11 sync bits, layer III (bits 01).
	return len(header) >= 2 && header[0] == 0xff && header[1]&0xe0 == 0xe0 && header[1]&0x06 == 0x02
}

// Decode implements ports.Decoder.
func (MP3Decoder) Decode(r io.ReadSeeker) (*domain.PCMBuffer, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("open MP3 stream: %w", err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("read MP3 samples: %w", err)
	}

	const numChans = 2
	frames := len(raw) / (2 * numChans)
	channels := [][]float32{make([]float32, frames), make([]float32, frames)}
	for i := 0; i < frames; i++ {
		for ch := 0; ch < numChans; ch++ {
			off := (i*numChans + ch) * 2
			v := int16(binary.LittleEndian.Uint16(raw[off : off+2]))
			channels[ch][i] = float32(v) / 32768.0
		}
	}
	return newBuffer(dec.SampleRate(), channels)
}
