// Package models defines the verdicts and wire payloads of the analysis API.
package models

// ModelVerdict is the thresholded classifier label. Its string value is the
// label returned to clients.
type ModelVerdict string

const (
	ModelVerdictSuspectedFraud ModelVerdict = "보이스피싱 의심됨"
	ModelVerdictNormal         ModelVerdict = "정상 대화"
)

// Code returns a stable ASCII identifier for logs and metric labels.
func (v ModelVerdict) Code() string {
	switch v {
	case ModelVerdictSuspectedFraud:
		return "suspected_fraud"
	case ModelVerdictNormal:
		return "normal"
	default:
		return "unknown"
	}
}

// LLMVerdict is the outcome of secondary verification.
type LLMVerdict string

const (
	LLMVerdictFraudConfirmed  LLMVerdict = "보이스피싱입니다"
	LLMVerdictBenignConfirmed LLMVerdict = "정상 대화입니다"
	LLMVerdictIndeterminate   LLMVerdict = "LLM 분석 오류 또는 판단 불가"
	// LLMVerdictSkipped is reported when the score did not warrant a check.
	LLMVerdictSkipped LLMVerdict = "LLM 분석 생략됨"
)

// Code returns a stable ASCII identifier for logs and metric labels.
func (v LLMVerdict) Code() string {
	switch v {
	case LLMVerdictFraudConfirmed:
		return "fraud_confirmed"
	case LLMVerdictBenignConfirmed:
		return "benign_confirmed"
	case LLMVerdictIndeterminate:
		return "indeterminate"
	case LLMVerdictSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}
