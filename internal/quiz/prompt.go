package quiz

import (
	"encoding/json"
	"fmt"
)

const promptTemplate = `You are given multiple multiple-choice questions in JSON format.
Respond with a JSON array containing objects with ONLY two keys: "id" and "answer".
The "id" must match the input question id exactly.
The "answer" must be copied verbatim from the "options" of that question.

Input questions:
%s

Respond ONLY with a JSON array in this exact format:
[
  {"id": "question_id_1", "answer": "option text"},
  {"id": "question_id_2", "answer": "option text"}
]

Do not include any explanations, markdown formatting, code fences, or extra text.`

// BuildPrompt renders one instruction covering the whole batch.
func BuildPrompt(questions []Question) (string, error) {
	encoded, err := json.MarshalIndent(questions, "", "  ")
	if err != nil {
		return "", fmt.Errorf("json.MarshalIndent > %w", err)
	}
	return fmt.Sprintf(promptTemplate, encoded), nil
}
