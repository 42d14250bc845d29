package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"voice-phishing-detector/internal/audio"
	"voice-phishing-detector/internal/models"
	"voice-phishing-detector/internal/observability/logging"
	"voice-phishing-detector/internal/service/analysis"
)

// Client-facing error messages.
const (
	msgAudioRequired   = "audio 파일이 필요합니다."
	msgNoSpeech        = "음성을 인식하지 못했습니다."
	msgTextRequired    = "text 필드가 없습니다."
	msgTranscodeFailed = "오디오 파일을 변환하지 못했습니다."
	msgTooLarge        = "업로드 파일이 너무 큽니다."
)

const audioField = "audio"

type handlers struct {
	analyzer Analyzer
	maxBytes int64
}

// analyzeAudio handles POST /analyze. The multipart body is streamed so the
// upload is written to disk exactly once, by the normalizer.
func (h *handlers) analyzeAudio(w http.ResponseWriter, r *http.Request) {
	h.limitBody(w, r)

	part, err := findPart(r, audioField)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if part == nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: msgAudioRequired})
		return
	}
	defer part.Close()

	resp, err := h.analyzer.AnalyzeAudio(r.Context(), part, part.FileName())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// analyzeText handles POST /analyze_text.
func (h *handlers) analyzeText(w http.ResponseWriter, r *http.Request) {
	h.limitBody(w, r)

	var req models.TextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: msgTextRequired})
		return
	}
	if req.Text == nil || strings.TrimSpace(*req.Text) == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: msgTextRequired})
		return
	}

	resp, err := h.analyzer.AnalyzeText(r.Context(), *req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) limitBody(w http.ResponseWriter, r *http.Request) {
	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	}
}

// findPart advances the multipart reader to the named field. It returns a
// nil part when the body is not multipart or the field is absent.
func findPart(r *http.Request, name string) (*multipart.Part, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, nil
	}
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				return nil, err
			}
			return nil, nil
		}
		if p.FormName() == name {
			return p, nil
		}
		_ = p.Close()
	}
}

// writeError maps pipeline errors onto status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := classify(err)

	logger := logging.WithRequest(middleware.GetReqID(r.Context()), r.URL.Path)
	ev := logger.Warn()
	if status >= http.StatusInternalServerError {
		ev = logger.Error()
	}
	ev.Err(err).Int("status", status).Msg("Analysis request failed")

	writeJSON(w, status, models.ErrorResponse{Error: msg})
}

func classify(err error) (int, string) {
	var (
		te  *audio.TranscodeError
		mbe *http.MaxBytesError
	)
	switch {
	case errors.Is(err, analysis.ErrNoSpeech):
		return http.StatusBadRequest, msgNoSpeech
	case errors.Is(err, analysis.ErrEmptyText):
		return http.StatusBadRequest, msgTextRequired
	case errors.As(err, &te):
		return http.StatusBadRequest, msgTranscodeFailed
	case errors.As(err, &mbe):
		return http.StatusRequestEntityTooLarge, msgTooLarge
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// recoverer turns a panic into a JSON 500.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}
			log.Error().
				Str("requestId", middleware.GetReqID(r.Context())).
				Interface("panic", rvr).
				Bytes("stack", debug.Stack()).
				Msg("Handler panicked")
			writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprint(rvr)})
		}()
		next.ServeHTTP(w, r)
	})
}
