// Package verifier asks an LLM for a second opinion on transcripts the
// classifier flagged.
package verifier

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"voice-phishing-detector/internal/models"
)

// SystemPrompt is the fixed rubric sent with every request. The model must
// answer with exactly one of the two confirmation sentences.
const SystemPrompt = "당신은 보이스피싱 탐지 전문가입니다. " +
	"아래 문장이 보이스피싱인지 판단해 주세요. " +
	"보이스피싱의 기준은 다음과 같습니다\n" +
	"- 금전 요구(송금, 입금, 대출, 투자 권유 등)\n" +
	"- 긴박한 상황 조성(자녀 사고, 검찰·경찰 사칭, 계좌 정지, 개인정보 노출 등)\n" +
	"- 전화나 문자 등으로 개인정보, 금융정보를 요구하거나 조작된 링크 클릭을 유도\n" +
	"- 말투나 단어에서 불안, 협박, 회유, 급박함이 느껴질 경우\n" +
	"- 감정적으로 압박하며 죄책감을 유도하는 경우\n" +
	"- 금전을 빌려달라는 요구를 통해 상대방을 공범으로 만들려는 경우가 있는경우\n" +
	"해당 문장이 위 기준에 부합하면 “" + string(models.LLMVerdictFraudConfirmed) +
	"”, 그렇지 않으면 “" + string(models.LLMVerdictBenignConfirmed) +
	"” 라고 **딱 한 문장만 출력**하십시오."

// Config configures the chat-completions endpoint.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Verifier classifies a transcript as confirmed fraud, confirmed benign or
// indeterminate. It never returns an error.
type Verifier interface {
	Verify(ctx context.Context, text string) models.LLMVerdict
}

// LLMVerifier calls POST {BaseURL}/chat/completions.
type LLMVerifier struct {
	client *openai.Client
	model  string
}

// New returns an LLMVerifier for cfg.
func New(cfg Config) *LLMVerifier {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &LLMVerifier{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
	}
}

// Verify implements Verifier. Transport failures, non-2xx responses and any
// reply other than the two confirmation sentences yield
// models.LLMVerdictIndeterminate.
func (v *LLMVerifier) Verify(ctx context.Context, text string) models.LLMVerdict {
	resp, err := v.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: v.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		log.Warn().Err(err).Str("model", v.model).Msg("LLM verification failed")
		return models.LLMVerdictIndeterminate
	}
	if len(resp.Choices) == 0 {
		log.Warn().Str("model", v.model).Msg("LLM returned no choices")
		return models.LLMVerdictIndeterminate
	}

	verdict := Interpret(resp.Choices[0].Message.Content)
	if verdict == models.LLMVerdictIndeterminate {
		log.Debug().
			Str("model", v.model).
			Str("reply", resp.Choices[0].Message.Content).
			Msg("LLM reply did not match a confirmation sentence")
	}
	return verdict
}

// Interpret maps a raw model reply onto a verdict. Only an exact match
// after trimming surrounding whitespace counts.
func Interpret(reply string) models.LLMVerdict {
	switch models.LLMVerdict(strings.TrimSpace(reply)) {
	case models.LLMVerdictFraudConfirmed:
		return models.LLMVerdictFraudConfirmed
	case models.LLMVerdictBenignConfirmed:
		return models.LLMVerdictBenignConfirmed
	default:
		return models.LLMVerdictIndeterminate
	}
}
