package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// testTranscoder writes a fixed WAV body or fails.
type testTranscoder struct {
	calls int
	err   error
	in    string
}

func (t *testTranscoder) Transcode(ctx context.Context, inPath, outPath string) error {
	t.calls++
	t.in = inPath
	if t.err != nil {
		return &TranscodeError{Input: inPath, Stderr: "Invalid data found", Err: t.err}
	}
	return os.WriteFile(outPath, wavBytes(8), 0o600)
}

// wavBytes is a mono 16-bit 16 kHz PCM WAV with samples zeroed frames.
func wavBytes(samples int) []byte {
	return wavWith(WAVFormat{AudioFormat: 1, Channels: 1, SampleRate: 16000, BitsPerSample: 16}, samples*2)
}

// wavWith builds a canonical 44-byte header for f followed by dataLen bytes.
func wavWith(f WAVFormat, dataLen int) []byte {
	b := make([]byte, 44+dataLen)
	copy(b[0:4], "RIFF")
	binary.LittleEndian.PutUint32(b[4:8], uint32(36+dataLen))
	copy(b[8:12], "WAVE")
	copy(b[12:16], "fmt ")
	binary.LittleEndian.PutUint32(b[16:20], 16)
	binary.LittleEndian.PutUint16(b[20:22], f.AudioFormat)
	binary.LittleEndian.PutUint16(b[22:24], f.Channels)
	binary.LittleEndian.PutUint32(b[24:28], f.SampleRate)
	blockAlign := f.Channels * f.BitsPerSample / 8
	binary.LittleEndian.PutUint32(b[28:32], f.SampleRate*uint32(blockAlign))
	binary.LittleEndian.PutUint16(b[32:34], blockAlign)
	binary.LittleEndian.PutUint16(b[34:36], f.BitsPerSample)
	copy(b[36:40], "data")
	binary.LittleEndian.PutUint32(b[40:44], uint32(dataLen))
	return b
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestIsWAV(t *testing.T) {
	tests := []struct {
		name   string
		header []byte
		want   bool
	}{
		{"wav", wavBytes(0)[:12], true},
		{"too short", []byte("RIFF"), false},
		{"riff not wave", []byte("RIFF\x00\x00\x00\x00AVI "), false},
		{"m4a", []byte("\x00\x00\x00\x20ftypM4A "), false},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsWAV(tt.header); got != tt.want {
				t.Errorf("IsWAV() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalize_WAVPassthrough(t *testing.T) {
	dir := t.TempDir()
	tr := &testTranscoder{}
	n := NewNormalizer(dir, tr)

	body := wavBytes(100)
	a, err := n.Normalize(context.Background(), bytes.NewReader(body), "call.wav")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	defer a.Cleanup()

	if tr.calls != 0 {
		t.Errorf("expected no transcoding for WAV input, got %d calls", tr.calls)
	}
	if a.Transcoded {
		t.Error("expected Transcoded=false")
	}
	if a.Size != int64(len(body)) {
		t.Errorf("expected size %d, got %d", len(body), a.Size)
	}
	got, err := os.ReadFile(a.Path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Error("expected artifact to hold the upload unchanged")
	}
}

func TestNormalize_WAVDetectedByContentNotName(t *testing.T) {
	dir := t.TempDir()
	tr := &testTranscoder{}
	n := NewNormalizer(dir, tr)

	a, err := n.Normalize(context.Background(), bytes.NewReader(wavBytes(4)), "recording.m4a")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	defer a.Cleanup()

	if tr.calls != 0 {
		t.Error("expected WAV content to skip transcoding regardless of extension")
	}
}

func TestNormalize_WAVNeedingConversion(t *testing.T) {
	tests := []struct {
		name   string
		format WAVFormat
	}{
		{"stereo pcm", WAVFormat{AudioFormat: 1, Channels: 2, SampleRate: 44100, BitsPerSample: 16}},
		{"stereo float", WAVFormat{AudioFormat: 3, Channels: 2, SampleRate: 44100, BitsPerSample: 32}},
		{"mono float", WAVFormat{AudioFormat: 3, Channels: 1, SampleRate: 16000, BitsPerSample: 32}},
		{"8-bit", WAVFormat{AudioFormat: 1, Channels: 1, SampleRate: 8000, BitsPerSample: 8}},
		{"24-bit", WAVFormat{AudioFormat: 1, Channels: 1, SampleRate: 48000, BitsPerSample: 24}},
		{"mu-law", WAVFormat{AudioFormat: 7, Channels: 1, SampleRate: 8000, BitsPerSample: 8}},
		{"extensible", WAVFormat{AudioFormat: 0xFFFE, Channels: 1, SampleRate: 16000, BitsPerSample: 16}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			tr := &testTranscoder{}
			n := NewNormalizer(dir, tr)

			a, err := n.Normalize(context.Background(), bytes.NewReader(wavWith(tt.format, 64)), "call.wav")
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			defer a.Cleanup()

			if tr.calls != 1 {
				t.Errorf("expected one transcode call, got %d", tr.calls)
			}
			if !a.Transcoded {
				t.Error("expected Transcoded=true")
			}
			if !strings.HasSuffix(a.Path, ".norm.wav") {
				t.Errorf("expected converted artifact, got %s", a.Path)
			}
		})
	}
}

func TestNormalize_StereoWAVWithoutTranscoder(t *testing.T) {
	dir := t.TempDir()
	n := NewNormalizer(dir, nil)

	stereo := wavWith(WAVFormat{AudioFormat: 1, Channels: 2, SampleRate: 44100, BitsPerSample: 16}, 16)
	_, err := n.Normalize(context.Background(), bytes.NewReader(stereo), "call.wav")
	var te *TranscodeError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TranscodeError, got %v", err)
	}
	if names := dirEntries(t, dir); len(names) != 0 {
		t.Errorf("expected no temp files left, got %v", names)
	}
}

func TestParseWAVFormat(t *testing.T) {
	mono := WAVFormat{AudioFormat: 1, Channels: 1, SampleRate: 16000, BitsPerSample: 16}

	// A JUNK chunk (odd size, padded) ahead of fmt, as some recorders write.
	junk := []byte("RIFF\x00\x00\x00\x00WAVEJUNK\x03\x00\x00\x00abc\x00")
	withJunk := append(junk, wavWith(mono, 0)[12:]...)

	tests := []struct {
		name   string
		header []byte
		want   WAVFormat
		ok     bool
	}{
		{"canonical", wavWith(mono, 0), mono, true},
		{"junk before fmt", withJunk, mono, true},
		{"truncated fmt", wavWith(mono, 0)[:30], WAVFormat{}, false},
		{"no fmt chunk", []byte("RIFF\x00\x00\x00\x00WAVEdata\x00\x00\x00\x00"), WAVFormat{}, false},
		{"not wav", []byte("\x00\x00\x00\x20ftypM4A "), WAVFormat{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseWAVFormat(tt.header)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("format = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestWAVFormat_Recognizable(t *testing.T) {
	tests := []struct {
		name string
		f    WAVFormat
		want bool
	}{
		{"mono pcm16", WAVFormat{AudioFormat: 1, Channels: 1, SampleRate: 8000, BitsPerSample: 16}, true},
		{"stereo", WAVFormat{AudioFormat: 1, Channels: 2, SampleRate: 16000, BitsPerSample: 16}, false},
		{"float", WAVFormat{AudioFormat: 3, Channels: 1, SampleRate: 16000, BitsPerSample: 32}, false},
		{"8-bit", WAVFormat{AudioFormat: 1, Channels: 1, SampleRate: 16000, BitsPerSample: 8}, false},
		{"zero rate", WAVFormat{AudioFormat: 1, Channels: 1, BitsPerSample: 16}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.f.Recognizable(); got != tt.want {
				t.Errorf("Recognizable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalize_Transcodes(t *testing.T) {
	dir := t.TempDir()
	tr := &testTranscoder{}
	n := NewNormalizer(dir, tr)

	a, err := n.Normalize(context.Background(), strings.NewReader("not a wav at all"), "voice.m4a")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	if tr.calls != 1 {
		t.Fatalf("expected one transcode call, got %d", tr.calls)
	}
	if !strings.HasSuffix(tr.in, ".m4a") {
		t.Errorf("expected input to keep the upload extension, got %s", tr.in)
	}
	if !a.Transcoded {
		t.Error("expected Transcoded=true")
	}
	if filepath.Dir(a.Path) != dir {
		t.Errorf("expected artifact in %s, got %s", dir, a.Path)
	}
	if n := len(dirEntries(t, dir)); n != 2 {
		t.Errorf("expected upload and converted file on disk, got %d files", n)
	}

	a.Cleanup()
	if names := dirEntries(t, dir); len(names) != 0 {
		t.Errorf("expected empty dir after cleanup, got %v", names)
	}
}

func TestNormalize_TranscodeFailure_CleansUp(t *testing.T) {
	dir := t.TempDir()
	n := NewNormalizer(dir, &testTranscoder{err: errors.New("exit status 1")})

	a, err := n.Normalize(context.Background(), strings.NewReader("garbage"), "x.3gp")
	if err == nil {
		a.Cleanup()
		t.Fatal("expected error")
	}

	var te *TranscodeError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TranscodeError, got %T", err)
	}
	if !strings.Contains(te.Error(), "Invalid data found") {
		t.Errorf("expected stderr in message, got %q", te.Error())
	}
	if names := dirEntries(t, dir); len(names) != 0 {
		t.Errorf("expected no temp files left, got %v", names)
	}
}

func TestNormalize_NoTranscoder(t *testing.T) {
	dir := t.TempDir()
	n := NewNormalizer(dir, nil)

	_, err := n.Normalize(context.Background(), strings.NewReader("aac bytes"), "a.aac")
	var te *TranscodeError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TranscodeError, got %v", err)
	}
	if names := dirEntries(t, dir); len(names) != 0 {
		t.Errorf("expected no temp files left, got %v", names)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestNormalize_ReadFailure_CleansUp(t *testing.T) {
	dir := t.TempDir()
	n := NewNormalizer(dir, &testTranscoder{})

	if _, err := n.Normalize(context.Background(), failingReader{}, "a.wav"); err == nil {
		t.Fatal("expected error")
	}
	if names := dirEntries(t, dir); len(names) != 0 {
		t.Errorf("expected no temp files left, got %v", names)
	}
}

func TestNormalize_UniqueNames(t *testing.T) {
	dir := t.TempDir()
	n := NewNormalizer(dir, nil)

	a1, err := n.Normalize(context.Background(), bytes.NewReader(wavBytes(1)), "same.wav")
	if err != nil {
		t.Fatal(err)
	}
	defer a1.Cleanup()
	a2, err := n.Normalize(context.Background(), bytes.NewReader(wavBytes(1)), "same.wav")
	if err != nil {
		t.Fatal(err)
	}
	defer a2.Cleanup()

	if a1.Path == a2.Path {
		t.Errorf("expected distinct paths, both were %s", a1.Path)
	}
}

func TestArtifact_CleanupIdempotent(t *testing.T) {
	dir := t.TempDir()
	n := NewNormalizer(dir, nil)

	a, err := n.Normalize(context.Background(), bytes.NewReader(wavBytes(1)), "")
	if err != nil {
		t.Fatal(err)
	}
	a.Cleanup()
	a.Cleanup()

	var nilArtifact *Artifact
	nilArtifact.Cleanup()

	if names := dirEntries(t, dir); len(names) != 0 {
		t.Errorf("expected empty dir, got %v", names)
	}
}

func TestUploadExt(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"call.M4A", ".m4a"},
		{"voice.wav", ".wav"},
		{"noext", ".upload"},
		{"", ".upload"},
		{"../../etc/passwd.3gp", ".3gp"},
		{"a.verylongextension", ".upload"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := uploadExt(tt.in); got != tt.want {
				t.Errorf("uploadExt(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
