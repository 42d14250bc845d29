// Package audio stores uploaded recordings on disk and converts them to the
// mono 16-bit PCM WAV the speech recognizer expects.
package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Artifact is a normalized recording on disk along with every temp file
// created to produce it.
type Artifact struct {
	// Path is the WAV file to hand to the recognizer.
	Path string
	// Size is the number of bytes received from the client.
	Size int64
	// Transcoded is true when the upload was not already mono 16-bit PCM WAV.
	Transcoded bool

	mu    sync.Mutex
	files []string
}

// Cleanup removes every temp file owned by the artifact. It is safe to call
// more than once and on a nil artifact.
func (a *Artifact) Cleanup() {
	if a == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, f := range a.files {
		if err := os.Remove(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("path", f).Msg("Failed to remove temp file")
		}
	}
	a.files = nil
}

func (a *Artifact) track(path string) {
	a.mu.Lock()
	a.files = append(a.files, path)
	a.mu.Unlock()
}

// Normalizer writes uploads under Dir and transcodes non-WAV input.
type Normalizer struct {
	dir        string
	transcoder Transcoder
}

// NewNormalizer returns a Normalizer that stores files in dir. A nil
// transcoder means non-WAV uploads are rejected with a TranscodeError.
func NewNormalizer(dir string, transcoder Transcoder) *Normalizer {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Normalizer{dir: dir, transcoder: transcoder}
}

// Normalize copies r to a uniquely named temp file and, unless it is already
// mono 16-bit PCM WAV, converts it. filename is the client supplied name; only its extension
// is used. On error every file created so far has already been removed.
func (n *Normalizer) Normalize(ctx context.Context, r io.Reader, filename string) (*Artifact, error) {
	id := uuid.NewString()
	a := &Artifact{}

	inPath := filepath.Join(n.dir, id+uploadExt(filename))
	size, header, err := n.save(r, inPath)
	a.track(inPath)
	if err != nil {
		a.Cleanup()
		return nil, err
	}
	a.Size = size

	if format, ok := ParseWAVFormat(header); ok && format.Recognizable() {
		a.Path = inPath
		return a, nil
	} else if ok {
		log.Debug().
			Uint16("audioFormat", format.AudioFormat).
			Uint16("channels", format.Channels).
			Uint16("bitsPerSample", format.BitsPerSample).
			Msg("WAV upload needs conversion")
	}

	if n.transcoder == nil {
		a.Cleanup()
		return nil, &TranscodeError{Input: inPath, Err: errors.New("no transcoder configured")}
	}

	outPath := filepath.Join(n.dir, id+".norm.wav")
	a.track(outPath)
	if err := n.transcoder.Transcode(ctx, inPath, outPath); err != nil {
		a.Cleanup()
		return nil, err
	}

	a.Path = outPath
	a.Transcoded = true
	return a, nil
}

func (n *Normalizer) save(r io.Reader, path string) (int64, []byte, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return 0, nil, fmt.Errorf("create upload file: %w", err)
	}
	defer f.Close()

	header := &headerCapture{limit: probeLen}
	size, err := io.Copy(io.MultiWriter(f, header), r)
	if err != nil {
		return size, nil, fmt.Errorf("save upload: %w", err)
	}
	if err := f.Close(); err != nil {
		return size, nil, fmt.Errorf("close upload file: %w", err)
	}
	return size, header.buf.Bytes(), nil
}

const wavHeaderLen = 12

// IsWAV reports whether header starts with a RIFF/WAVE signature.
func IsWAV(header []byte) bool {
	return len(header) >= wavHeaderLen &&
		bytes.Equal(header[0:4], []byte("RIFF")) &&
		bytes.Equal(header[8:12], []byte("WAVE"))
}

func uploadExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if ext == "" || len(ext) > 8 || strings.ContainsAny(ext, `/\`) {
		return ".upload"
	}
	return ext
}

// headerCapture keeps the first limit bytes written to it.
type headerCapture struct {
	buf   bytes.Buffer
	limit int
}

func (h *headerCapture) Write(p []byte) (int, error) {
	if rem := h.limit - h.buf.Len(); rem > 0 {
		if len(p) < rem {
			rem = len(p)
		}
		h.buf.Write(p[:rem])
	}
	return len(p), nil
}
