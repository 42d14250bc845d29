// Package mock provides a mock STT adapter for running without cloud
// credentials. Silent recordings are reported as no speech; anything else
// yields the next canned utterance.
package mock

import (
	"context"
	"sync"

	"voice-phishing-detector/internal/service/stt"
)

// ProviderName is the value returned by Adapter.Name.
const ProviderName = "mock"

// DefaultUtterances are returned in order, cycling.
var DefaultUtterances = []string{
	"안녕하세요 서울중앙지검 수사관입니다 고객님 명의 계좌가 범죄에 연루되어 안전계좌로 이체하셔야 합니다",
	"엄마 나 폰이 고장나서 그러는데 급하게 돈 좀 보내줄 수 있어",
	"내일 저녁 일곱 시에 회사 앞에서 보자",
	"택배가 도착했는데 문 앞에 두고 갈까요",
}

const wavHeaderLen = 44

// Adapter implements stt.Adapter with canned responses.
type Adapter struct {
	mu         sync.Mutex
	utterances []string
	next       int
	err        error
}

// New creates a mock adapter cycling through DefaultUtterances.
func New() *Adapter {
	return NewWithUtterances(DefaultUtterances)
}

// NewWithUtterances creates a mock adapter cycling through utterances.
func NewWithUtterances(utterances []string) *Adapter {
	return &Adapter{utterances: utterances}
}

// FailWith makes every subsequent call return a service error.
func (a *Adapter) FailWith(err error) {
	a.mu.Lock()
	a.err = err
	a.mu.Unlock()
}

// Name implements stt.Adapter.
func (a *Adapter) Name() string { return ProviderName }

// Transcribe implements stt.Adapter.
func (a *Adapter) Transcribe(ctx context.Context, wav []byte) stt.Result {
	if err := ctx.Err(); err != nil {
		return stt.Failed(err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.err != nil {
		return stt.Failed(a.err)
	}
	if isSilent(wav) || len(a.utterances) == 0 {
		return stt.NoSpeechResult()
	}

	text := a.utterances[a.next%len(a.utterances)]
	a.next++
	return stt.RecognizedText(text)
}

// isSilent reports whether the PCM payload after the WAV header is empty or
// all zero.
func isSilent(wav []byte) bool {
	if len(wav) <= wavHeaderLen {
		return true
	}
	for _, b := range wav[wavHeaderLen:] {
		if b != 0 {
			return false
		}
	}
	return true
}
