package quiz

import (
	"encoding/json"
)

// Source records where an answer came from and, on failure, why.
type Source struct {
	OK     bool            `json:"ok"`
	Error  string          `json:"error,omitempty"`
	Parsed *RawAnswer      `json:"parsed,omitempty"`
	Status int             `json:"status,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// AnswerResult is produced exactly once per input question, in input order.
type AnswerResult struct {
	QuestionID   *string `json:"questionId"`
	Source       Source  `json:"source"`
	Answer       *string `json:"answer"`
	UsedFallback bool    `json:"usedFallback"`
}

// Response is the only body /api/answer ever returns.
type Response struct {
	Received bool           `json:"received"`
	Results  []AnswerResult `json:"results"`
}

// Aggregate wraps results in the response envelope.
func Aggregate(results []AnswerResult) Response {
	if results == nil {
		results = []AnswerResult{}
	}
	return Response{
		Received: true,
		Results:  results,
	}
}

// FallbackCount returns how many results did not come from the model.
func (r Response) FallbackCount() int {
	count := 0
	for _, result := range r.Results {
		if result.UsedFallback {
			count++
		}
	}
	return count
}
