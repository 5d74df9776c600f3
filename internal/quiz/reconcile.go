package quiz

import (
	"encoding/json"
	"strings"
)

const (
	detailNoAPIKey   = "no API key configured - fallback used"
	detailNoAnswer   = "no answer for this question"
	detailParseError = "failed to parse response"
)

// Fallback returns the deterministic default answer: the first option, or nil.
func Fallback(question Question) *string {
	if len(question.Options) == 0 {
		return nil
	}
	answer := question.Options[0]
	return &answer
}

func fallbackResult(question Question, source Source) AnswerResult {
	source.OK = false
	return AnswerResult{
		QuestionID:   question.ID,
		Source:       source,
		Answer:       Fallback(question),
		UsedFallback: true,
	}
}

// fallbackAll resolves every question of the batch through the fallback policy.
func fallbackAll(questions []Question, source Source) []AnswerResult {
	results := make([]AnswerResult, 0, len(questions))
	for _, question := range questions {
		results = append(results, fallbackResult(question, source))
	}
	return results
}

// Reconcile matches parsed answers back to questions by id.
// A non-nil parseErr sends the whole batch to the fallback policy.
func Reconcile(questions []Question, answers []RawAnswer, parseErr error) []AnswerResult {
	if parseErr != nil {
		return fallbackAll(questions, Source{Error: detailParseError})
	}

	// first occurrence of a duplicated id wins
	byID := make(map[string]RawAnswer, len(answers))
	for _, answer := range answers {
		if _, ok := byID[answer.ID]; !ok {
			byID[answer.ID] = answer
		}
	}

	results := make([]AnswerResult, 0, len(questions))
	for _, question := range questions {
		if question.ID == nil {
			results = append(results, fallbackResult(question, Source{Error: detailNoAnswer}))
			continue
		}
		answer, ok := byID[*question.ID]
		if !ok || strings.TrimSpace(answer.Answer) == "" {
			results = append(results, fallbackResult(question, Source{Error: detailNoAnswer}))
			continue
		}

		parsed := answer
		value := answer.Answer
		results = append(results, AnswerResult{
			QuestionID:   question.ID,
			Source:       Source{OK: true, Parsed: &parsed},
			Answer:       &value,
			UsedFallback: false,
		})
	}
	return results
}

// upstreamData embeds an upstream error body as JSON, or as a JSON string when it is not JSON.
func upstreamData(body string) json.RawMessage {
	if body == "" {
		return nil
	}
	if json.Valid([]byte(body)) {
		return json.RawMessage(body)
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil
	}
	return encoded
}
