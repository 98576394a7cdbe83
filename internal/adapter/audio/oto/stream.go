package oto

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"sync"

	"github.com/tejashwikalptaru/wavesync/internal/domain"
)

const (
	// outputChannels is fixed; mono sources are duplicated, extra channels dropped.
	outputChannels = 2

	// frameBytes is one stereo float32 frame.
	frameBytes = outputChannels * 4

	// lowPassAlpha is the one-pole coefficient applied while decimating.
	lowPassAlpha = 0.5
)

// stream feeds a PCM buffer to an oto player as stereo float32 LE,
// resampled with Catmull-Rom interpolation. When a frame step exceeds one
// source frame a one-pole low-pass smooths the output against aliasing.
//
// The read cursor is kept in source frames so rate changes never move it.
// Byte offsets seen through Seek are output bytes at the current step,
// except SeekStart which is interpreted as source frame*frameBytes.
type stream struct {
	mu sync.Mutex

	buffer *domain.PCMBuffer
	cursor float64

	// ratio is the source rate over the output rate
	ratio float64
	rate  float64

	// low-pass state; reset on seek
	lp     [outputChannels]float32
	primed bool
}

func newStream(buffer *domain.PCMBuffer, outputRate int) *stream {
	return &stream{
		buffer: buffer,
		ratio:  float64(buffer.SampleRate) / float64(outputRate),
		rate:   1,
	}
}

// step is source frames consumed per output frame.
func (s *stream) step() float64 {
	return s.ratio * s.rate
}

// sample returns channel ch at fractional frame pos. Edge frames are
// repeated where the four-point neighbourhood runs off the buffer.
func (s *stream) sample(ch int, pos float64) float32 {
	data := s.buffer.Channels[ch]
	last := len(data) - 1
	i := int(pos)
	if i >= last {
		return data[last]
	}
	at := func(j int) float32 {
		return data[max(0, min(j, last))]
	}
	return cubic(at(i-1), at(i), at(i+1), at(i+2), float32(pos-float64(i)))
}

// cubic is the Catmull-Rom spline through y1 and y2 at fraction x.
func cubic(y0, y1, y2, y3, x float32) float32 {
	a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	a1 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	a2 := -0.5*y0 + 0.5*y2
	return ((a0*x+a1)*x+a2)*x + y1
}

// filter low-passes one output frame while decimating. Caller holds the lock.
func (s *stream) filter(frame [outputChannels]float32) [outputChannels]float32 {
	if s.step() <= 1 {
		s.primed = false
		return frame
	}
	if !s.primed {
		s.lp = frame
		s.primed = true
		return frame
	}
	for c := range frame {
		s.lp[c] = lowPassAlpha*frame[c] + (1-lowPassAlpha)*s.lp[c]
	}
	return s.lp
}

// Read implements io.Reader.
func (s *stream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	frames := float64(s.buffer.Frames())
	if s.cursor >= frames {
		return 0, io.EOF
	}

	right := 0
	if s.buffer.NumChannels() > 1 {
		right = 1
	}

	n := 0
	for n+frameBytes <= len(p) && s.cursor < frames {
		out := s.filter([outputChannels]float32{s.sample(0, s.cursor), s.sample(right, s.cursor)})
		binary.LittleEndian.PutUint32(p[n:], math.Float32bits(out[0]))
		binary.LittleEndian.PutUint32(p[n+4:], math.Float32bits(out[1]))
		n += frameBytes
		s.cursor += s.step()
	}
	return n, nil
}

// Seek implements io.Seeker.
func (s *stream) Seek(offset int64, whence int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var target float64
	switch whence {
	case io.SeekStart:
		target = float64(offset / frameBytes)
	case io.SeekCurrent:
		target = s.cursor + float64(offset/frameBytes)*s.step()
	case io.SeekEnd:
		target = float64(s.buffer.Frames()) + float64(offset/frameBytes)
	default:
		return 0, errors.New("invalid whence")
	}

	if target < 0 {
		target = 0
	}
	s.cursor = target
	s.primed = false
	return int64(target) * frameBytes, nil
}

// setRate changes the playback speed without moving the cursor.
func (s *stream) setRate(rate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rate = rate
}

// position returns the source frame being heard, given how many output
// bytes are still queued in the player.
func (s *stream) position(buffered int) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos := s.cursor - float64(buffered/frameBytes)*s.step()
	frames := float64(s.buffer.Frames())
	if pos < 0 {
		return 0
	}
	if pos > frames {
		return frames
	}
	return pos
}

// exhausted reports whether every source frame has been read.
func (s *stream) exhausted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor >= float64(s.buffer.Frames())
}
