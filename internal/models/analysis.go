package models

// AnalysisResponse is the success body of both analysis endpoints.
type AnalysisResponse struct {
	RecognizedText string       `json:"recognized_text"`
	RiskScore      float64      `json:"risk_score"`
	ModelResult    ModelVerdict `json:"model_result"`
	LLMResult      LLMVerdict   `json:"llm_result"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// TextRequest is the body of POST /analyze_text.
type TextRequest struct {
	Text *string `json:"text"`
}

// AnalysisEvent is published after each completed analysis. It carries no
// transcript text.
type AnalysisEvent struct {
	EventType   string  `json:"eventType"`
	AnalysisID  string  `json:"analysisId"`
	Source      string  `json:"source"` // audio, text
	Timestamp   int64   `json:"timestamp"`
	RiskScore   float64 `json:"riskScore"`
	ModelResult string  `json:"modelResult"`
	LLMResult   string  `json:"llmResult"`
	TextLength  int     `json:"textLength"`
	DurationMs  int64   `json:"durationMs"`
}

// EventTypeAnalysisCompleted is the eventType of AnalysisEvent.
const EventTypeAnalysisCompleted = "analysis.completed"
