package quiz

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrUnparsableResponse is returned when no JSON array can be recovered from model output.
var ErrUnparsableResponse = errors.New("failed to parse response")

// RawAnswer is an unvalidated pair extracted from model output.
type RawAnswer struct {
	ID     string `json:"id"`
	Answer string `json:"answer"`
}

var (
	leadingFence  = regexp.MustCompile("^```(?:json)?\\s*")
	trailingFence = regexp.MustCompile("\\s*```$")
	arraySpan     = regexp.MustCompile(`(?s)\[.*\]`)
)

// parseAttempt turns cleaned model text into answers, or fails.
type parseAttempt func(text string) ([]RawAnswer, error)

var parseAttempts = []parseAttempt{
	parseArray,
	parseEmbeddedArray,
}

// ParseAnswers recovers the answer array from model output.
// Attempts run in order and the first success wins.
func ParseAnswers(text string) ([]RawAnswer, error) {
	cleaned := stripFences(text)
	for _, attempt := range parseAttempts {
		answers, err := attempt(cleaned)
		if err == nil {
			return answers, nil
		}
	}
	return nil, ErrUnparsableResponse
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	text = leadingFence.ReplaceAllString(text, "")
	text = trailingFence.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

func parseArray(text string) ([]RawAnswer, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(text), &elements); err != nil {
		return nil, err
	}
	// "null" decodes into a nil slice without error
	if elements == nil {
		return nil, ErrUnparsableResponse
	}

	answers := make([]RawAnswer, 0, len(elements))
	for _, element := range elements {
		answer, ok := decodeRawAnswer(element)
		if !ok {
			continue
		}
		answers = append(answers, answer)
	}
	return answers, nil
}

func parseEmbeddedArray(text string) ([]RawAnswer, error) {
	span := arraySpan.FindString(text)
	if span == "" {
		return nil, ErrUnparsableResponse
	}
	return parseArray(span)
}

func decodeRawAnswer(element json.RawMessage) (RawAnswer, bool) {
	decoder := json.NewDecoder(strings.NewReader(string(element)))
	decoder.UseNumber()

	var object map[string]any
	if err := decoder.Decode(&object); err != nil || object == nil {
		return RawAnswer{}, false
	}

	// an element without a scalar id cannot be matched to any question
	id, ok := scalarText(object["id"])
	if !ok {
		return RawAnswer{}, false
	}

	answer := RawAnswer{ID: id}
	// false and 0 count as no answer
	if isPresent(object["answer"]) {
		answer.Answer, _ = scalarText(object["answer"])
	}
	return answer, true
}
