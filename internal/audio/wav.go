package audio

import (
	"bytes"
	"encoding/binary"
)

// wavFormatPCM is the fmt chunk tag for integer PCM. Float (3) and
// extensible (0xFFFE) layouts are always transcoded.
const wavFormatPCM = 1

// probeLen bounds how much of the upload is inspected for the fmt chunk.
// Recorders may place LIST or JUNK chunks before it.
const probeLen = 4096

// WAVFormat is the fmt chunk of a RIFF/WAVE file.
type WAVFormat struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	BitsPerSample uint16
}

// Recognizable reports whether the format can go to the recognizer as is:
// uncompressed 16-bit PCM, mono. Anything else must be transcoded.
func (f WAVFormat) Recognizable() bool {
	return f.AudioFormat == wavFormatPCM && f.Channels == 1 && f.BitsPerSample == 16 && f.SampleRate > 0
}

// ParseWAVFormat walks the RIFF chunks in header looking for "fmt ". ok is
// false when header is not WAV or the chunk is not within header.
func ParseWAVFormat(header []byte) (WAVFormat, bool) {
	if !IsWAV(header) {
		return WAVFormat{}, false
	}
	off := wavHeaderLen
	for off+8 <= len(header) {
		id := header[off : off+4]
		size := int(binary.LittleEndian.Uint32(header[off+4 : off+8]))
		body := off + 8
		if bytes.Equal(id, []byte("fmt ")) {
			if size < 16 || body+16 > len(header) {
				return WAVFormat{}, false
			}
			b := header[body:]
			return WAVFormat{
				AudioFormat:   binary.LittleEndian.Uint16(b[0:2]),
				Channels:      binary.LittleEndian.Uint16(b[2:4]),
				SampleRate:    binary.LittleEndian.Uint32(b[4:8]),
				BitsPerSample: binary.LittleEndian.Uint16(b[14:16]),
			}, true
		}
		if size < 0 {
			return WAVFormat{}, false
		}
		// Chunks are word aligned.
		off = body + size + size%2
	}
	return WAVFormat{}, false
}
