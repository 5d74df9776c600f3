package quiz

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func ptr(s string) *string {
	return &s
}

func decodeJSON(t *testing.T, body string) any {
	t.Helper()
	decoder := json.NewDecoder(strings.NewReader(body))
	decoder.UseNumber()
	var payload any
	require.NoError(t, decoder.Decode(&payload))
	return payload
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    []Question
	}{
		{
			name:    "questions array keeps order",
			payload: `{"questions":[{"id":"q1","text":"1+1?","options":["2","3"]},{"id":"q2","question":"Capital of France?","options":["Paris"]}]}`,
			want: []Question{
				{ID: ptr("q1"), Text: "1+1?", Options: []string{"2", "3"}},
				{ID: ptr("q2"), Text: "Capital of France?", Options: []string{"Paris"}},
			},
		},
		{
			name:    "missing options default to empty",
			payload: `{"questions":[{"id":"q1","text":"free text"}]}`,
			want: []Question{
				{ID: ptr("q1"), Text: "free text", Options: []string{}},
			},
		},
		{
			name:    "invalid options default to empty",
			payload: `{"questions":[{"id":"q1","options":"A,B"}]}`,
			want: []Question{
				{ID: ptr("q1"), Options: []string{}},
			},
		},
		{
			name:    "non-object elements are skipped",
			payload: `{"questions":[1,"q",null,{"id":"q1","options":["A"]}]}`,
			want: []Question{
				{ID: ptr("q1"), Options: []string{"A"}},
			},
		},
		{
			name:    "numeric ids and options become text",
			payload: `{"questions":[{"id":7,"options":[1,2.5,true,{"x":1}]}]}`,
			want: []Question{
				{ID: ptr("7"), Options: []string{"1", "2.5", "true"}},
			},
		},
		{
			name:    "missing id stays nil",
			payload: `{"questions":[{"text":"no id","options":["A"]}]}`,
			want: []Question{
				{Text: "no id", Options: []string{"A"}},
			},
		},
		{
			name:    "single question object is wrapped",
			payload: `{"id":"q1","question":"Pick one","options":["A","B"]}`,
			want: []Question{
				{ID: ptr("q1"), Text: "Pick one", Options: []string{"A", "B"}},
			},
		},
		{
			name:    "single question prefers text over question",
			payload: `{"id":"q1","question":true,"text":"Pick one"}`,
			want: []Question{
				{ID: ptr("q1"), Text: "Pick one", Options: []string{}},
			},
		},
		{
			name:    "empty question marker is not a question",
			payload: `{"id":"q1","question":"","options":["A"]}`,
			want:    []Question{},
		},
		{
			name:    "questions that is not an array falls through to the marker",
			payload: `{"questions":{"id":"q1"}}`,
			want:    []Question{},
		},
		{
			name:    "empty object",
			payload: `{}`,
			want:    []Question{},
		},
		{
			name:    "top-level array",
			payload: `[{"id":"q1"}]`,
			want:    []Question{},
		},
		{
			name:    "scalar payload",
			payload: `"hello"`,
			want:    []Question{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(decodeJSON(t, tt.payload))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_YAML(t *testing.T) {
	content := `questions:
  - id: q1
    text: Pick one
    options: [A, B]
  - id: 2
    text: Pick a number
    options: [10, 20]
`
	var payload any
	require.NoError(t, yaml.Unmarshal([]byte(content), &payload))

	got := Normalize(payload)
	assert.Equal(t, []Question{
		{ID: ptr("q1"), Text: "Pick one", Options: []string{"A", "B"}},
		{ID: ptr("2"), Text: "Pick a number", Options: []string{"10", "20"}},
	}, got)
}

func TestNewQuestion(t *testing.T) {
	_, ok := NewQuestion([]any{"not", "an", "object"})
	assert.False(t, ok)

	question, ok := NewQuestion(map[string]any{"id": "q1"})
	require.True(t, ok)
	assert.Equal(t, Question{ID: ptr("q1"), Options: []string{}}, question)
}
