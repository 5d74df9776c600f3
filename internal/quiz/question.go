// Package quiz answers batches of multiple-choice questions through one model call per batch,
// falling back to the first option of every question the model could not answer.
package quiz

import (
	"encoding/json"
	"strconv"
)

// Question is one multiple-choice item. ID is nil when the caller sent none.
type Question struct {
	ID      *string  `json:"id"`
	Text    string   `json:"question"`
	Options []string `json:"options"`
}

// Normalize coerces a decoded JSON or YAML payload into an ordered batch.
// It never fails: unknown shapes produce an empty batch.
func Normalize(payload any) []Question {
	object, ok := payload.(map[string]any)
	if !ok {
		return []Question{}
	}

	if items, ok := object["questions"].([]any); ok {
		questions := make([]Question, 0, len(items))
		for _, item := range items {
			question, ok := NewQuestion(item)
			if !ok {
				continue
			}
			questions = append(questions, question)
		}
		return questions
	}

	if isPresent(object["question"]) {
		question, _ := NewQuestion(object)
		return []Question{question}
	}
	return []Question{}
}

// NewQuestion builds a Question from one element of a payload.
// It returns false for elements that are not objects.
func NewQuestion(value any) (Question, bool) {
	object, ok := value.(map[string]any)
	if !ok {
		return Question{}, false
	}

	question := Question{Options: []string{}}
	if id, ok := scalarText(object["id"]); ok {
		question.ID = &id
	}
	if text, ok := object["text"].(string); ok {
		question.Text = text
	} else if text, ok := object["question"].(string); ok {
		question.Text = text
	}
	if options, ok := object["options"].([]any); ok {
		for _, option := range options {
			if text, ok := scalarText(option); ok {
				question.Options = append(question.Options, text)
			}
		}
	}
	return question, true
}

// scalarText returns the canonical text of a string, number or boolean.
func scalarText(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case bool:
		return strconv.FormatBool(v), true
	}
	return "", false
}

// isPresent reports whether a marker field holds a value other than null, false, zero or "".
func isPresent(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case bool:
		return v
	case json.Number:
		f, err := v.Float64()
		return err != nil || f != 0
	case float64:
		return v != 0
	case int:
		return v != 0
	}
	return true
}
