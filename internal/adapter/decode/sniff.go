package decode

import (
	"bytes"
)

// headerSize is how many leading bytes are inspected when sniffing.
const headerSize = 64

// unsupported lists containers that are recognised but not decoded.
var unsupported = []struct {
	format string
	match  func([]byte) bool
}{
	{"flac", func(h []byte) bool { return bytes.HasPrefix(h, []byte("fLaC")) }},
	{"opus", func(h []byte) bool {
		return bytes.HasPrefix(h, []byte("OggS")) && bytes.Contains(h, []byte("OpusHead"))
	}},
	{"ogg-flac", func(h []byte) bool {
		return bytes.HasPrefix(h, []byte("OggS")) && bytes.Contains(h, []byte("\x7fFLAC"))
	}},
	{"mp4", func(h []byte) bool { return len(h) >= 8 && bytes.Equal(h[4:8], []byte("ftyp")) }},
	{"webm", func(h []byte) bool { return bytes.HasPrefix(h, []byte{0x1a, 0x45, 0xdf, 0xa3}) }},
}

// header returns the sniffable prefix of data.
func header(data []byte) []byte {
	if len(data) > headerSize {
		return data[:headerSize]
	}
	return data
}

// identifyUnsupported names a known container this package cannot decode,
// or returns "" when the bytes are not recognised at all.
func identifyUnsupported(h []byte) string {
	for _, u := range unsupported {
		if u.match(h) {
			return u.format
		}
	}
	return ""
}
