package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// Transcoder converts an arbitrary recording into mono 16-bit PCM WAV.
type Transcoder interface {
	Transcode(ctx context.Context, inPath, outPath string) error
}

// TranscodeError reports an upload the transcoder could not convert.
type TranscodeError struct {
	Input  string
	Stderr string
	Err    error
}

func (e *TranscodeError) Error() string {
	msg := fmt.Sprintf("transcode %s: %v", e.Input, e.Err)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *TranscodeError) Unwrap() error { return e.Err }

// FFmpeg shells out to the ffmpeg binary.
type FFmpeg struct {
	Path         string
	SampleRateHz int
}

// NewFFmpeg returns an ffmpeg transcoder. Empty path resolves "ffmpeg" on
// PATH; non-positive sampleRate defaults to 16 kHz.
func NewFFmpeg(path string, sampleRate int) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	return &FFmpeg{Path: path, SampleRateHz: sampleRate}
}

// Args returns the ffmpeg arguments used to convert inPath into outPath.
func (f *FFmpeg) Args(inPath, outPath string) []string {
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-y",
		"-i", inPath,
		"-ac", "1",
		"-ar", strconv.Itoa(f.SampleRateHz),
		"-acodec", "pcm_s16le",
		outPath,
	}
}

// Transcode runs ffmpeg and waits for it to exit.
func (f *FFmpeg) Transcode(ctx context.Context, inPath, outPath string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.Path, f.Args(inPath, outPath)...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		tail := stderrTail(stderr.String(), 512)
		log.Warn().
			Err(err).
			Str("input", inPath).
			Str("stderr", tail).
			Msg("ffmpeg failed")
		return &TranscodeError{Input: inPath, Stderr: tail, Err: err}
	}
	return nil
}

func stderrTail(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) > max {
		s = s[len(s)-max:]
	}
	return s
}
