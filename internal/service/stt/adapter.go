// Package stt defines the interface for Speech-to-Text adapters.
package stt

import (
	"context"
	"fmt"
	"os"
)

// Outcome classifies a transcription attempt.
type Outcome int

const (
	// Recognized means the provider returned a transcript.
	Recognized Outcome = iota
	// NoSpeech means the provider ran but heard nothing intelligible.
	NoSpeech
	// ServiceError means the provider could not be reached or failed.
	ServiceError
)

func (o Outcome) String() string {
	switch o {
	case Recognized:
		return "recognized"
	case NoSpeech:
		return "no_speech"
	case ServiceError:
		return "service_error"
	default:
		return "unknown"
	}
}

// Result is the three-way result of a transcription. Text is set only for
// Recognized and Err only for ServiceError.
type Result struct {
	Outcome Outcome
	Text    string
	Err     error
}

// RecognizedText builds a Recognized result.
func RecognizedText(text string) Result { return Result{Outcome: Recognized, Text: text} }

// NoSpeechResult builds a NoSpeech result.
func NoSpeechResult() Result { return Result{Outcome: NoSpeech} }

// Failed builds a ServiceError result.
func Failed(err error) Result { return Result{Outcome: ServiceError, Err: err} }

// Adapter defines the interface for STT providers (Google, mock, etc.).
type Adapter interface {
	// Name identifies the provider in logs and metrics.
	Name() string

	// Transcribe recognizes a complete mono 16-bit PCM WAV recording.
	Transcribe(ctx context.Context, wav []byte) Result
}

// TranscribeFile reads the WAV at path and transcribes it. A read failure is
// reported as a ServiceError.
func TranscribeFile(ctx context.Context, a Adapter, path string) Result {
	wav, err := os.ReadFile(path)
	if err != nil {
		return Failed(fmt.Errorf("read audio: %w", err))
	}
	return a.Transcribe(ctx, wav)
}
