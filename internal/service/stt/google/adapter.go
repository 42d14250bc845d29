// Package google provides a Google Cloud Speech-to-Text adapter.
package google

import (
	"context"
	"fmt"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"

	"voice-phishing-detector/internal/service/stt"
)

// ProviderName is the value returned by Adapter.Name.
const ProviderName = "google"

// Config holds Google STT configuration.
type Config struct {
	LanguageCode    string
	SampleRateHz    int // 0 lets the service read the rate from the WAV header
	AudioEncoding   string
	CredentialsFile string
	Timeout         time.Duration
}

// DefaultConfig returns default Google STT configuration.
func DefaultConfig() Config {
	return Config{
		LanguageCode:  "ko-KR",
		SampleRateHz:  0,
		AudioEncoding: "LINEAR16",
		Timeout:       30 * time.Second,
	}
}

// recognizer is the subset of *speech.Client the adapter calls.
type recognizer interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest, opts ...gax.CallOption) (*speechpb.RecognizeResponse, error)
	Close() error
}

// Adapter implements stt.Adapter using synchronous Google Cloud recognition.
type Adapter struct {
	client recognizer
	config Config
}

// New creates a new Google STT adapter. Without CredentialsFile the client
// falls back to GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	c, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create speech client: %w", err)
	}
	return newWithClient(c, cfg), nil
}

func newWithClient(c recognizer, cfg Config) *Adapter {
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = DefaultConfig().LanguageCode
	}
	return &Adapter{client: c, config: cfg}
}

// Name implements stt.Adapter.
func (a *Adapter) Name() string { return ProviderName }

// Transcribe sends the whole recording in one Recognize call and joins the
// top alternative of every result.
func (a *Adapter) Transcribe(ctx context.Context, wav []byte) stt.Result {
	if a.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.Timeout)
		defer cancel()
	}

	resp, err := a.client.Recognize(ctx, a.request(wav))
	if err != nil {
		log.Error().
			Err(err).
			Str("code", status.Code(err).String()).
			Msg("Google STT request failed")
		return stt.Failed(fmt.Errorf("google stt: %w", err))
	}

	if e := log.Debug(); e.Enabled() {
		if raw, mErr := protojson.Marshal(resp); mErr == nil {
			e.RawJSON("response", raw).Msg("Google STT response")
		}
	}

	text := joinTranscripts(resp)
	if text == "" {
		return stt.NoSpeechResult()
	}
	return stt.RecognizedText(text)
}

func (a *Adapter) request(wav []byte) *speechpb.RecognizeRequest {
	return &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        parseAudioEncoding(a.config.AudioEncoding),
			SampleRateHertz: int32(a.config.SampleRateHz),
			LanguageCode:    a.config.LanguageCode,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: wav},
		},
	}
}

// Close releases the underlying gRPC connection.
func (a *Adapter) Close() error {
	return a.client.Close()
}

func joinTranscripts(resp *speechpb.RecognizeResponse) string {
	var parts []string
	for _, r := range resp.GetResults() {
		alts := r.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if t := strings.TrimSpace(alts[0].GetTranscript()); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// parseAudioEncoding converts a string encoding name to the protobuf enum.
func parseAudioEncoding(encoding string) speechpb.RecognitionConfig_AudioEncoding {
	switch encoding {
	case "LINEAR16":
		return speechpb.RecognitionConfig_LINEAR16
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC
	case "AMR":
		return speechpb.RecognitionConfig_AMR
	case "AMR_WB":
		return speechpb.RecognitionConfig_AMR_WB
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS
	case "SPEEX_WITH_HEADER_BYTE":
		return speechpb.RecognitionConfig_SPEEX_WITH_HEADER_BYTE
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS
	default:
		return speechpb.RecognitionConfig_LINEAR16
	}
}
