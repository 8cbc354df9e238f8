package genai

import (
	"testing"
)

func TestExtractJSON_FencedBlock(t *testing.T) {
	text := "Here is the result:\n```json\n{\"answer\": \"yes\", \"confidence\": 0.8}\n```\nDone."

	data, ok := ExtractJSON(text)
	if !ok {
		t.Fatal("expected JSON to parse")
	}
	if data["answer"] != "yes" {
		t.Errorf("expected answer 'yes', got %v", data["answer"])
	}
}

func TestExtractJSON_PlainFence(t *testing.T) {
	text := "```\n{\"answer\": \"maybe\"}\n```"

	data, ok := ExtractJSON(text)
	if !ok {
		t.Fatal("expected JSON to parse")
	}
	if data["answer"] != "maybe" {
		t.Errorf("expected answer 'maybe', got %v", data["answer"])
	}
}

func TestExtractJSON_BraceSpan(t *testing.T) {
	text := `The model said {"answer": "no", "confidence": 0.2, "reasoning": "low trust"} which seems right.`

	data, ok := ExtractJSON(text)
	if !ok {
		t.Fatal("expected JSON to parse")
	}
	if data["reasoning"] != "low trust" {
		t.Errorf("expected reasoning 'low trust', got %v", data["reasoning"])
	}
}

func TestExtractJSON_NoJSON(t *testing.T) {
	if _, ok := ExtractJSON("just plain prose with no object"); ok {
		t.Error("expected extraction to fail on prose")
	}
	if _, ok := ExtractJSON("unbalanced { fragment"); ok {
		t.Error("expected extraction to fail on broken JSON")
	}
}

func TestNormalizeAnswer_Coercions(t *testing.T) {
	cases := []struct {
		name           string
		data           map[string]any
		wantAnswer     string
		wantConfidence float64
		wantReasoning  string
	}{
		{
			name:           "well formed",
			data:           map[string]any{"answer": "yes", "confidence": 0.8, "reasoning": "because"},
			wantAnswer:     "yes",
			wantConfidence: 0.8,
			wantReasoning:  "because",
		},
		{
			name:           "numeric answer stringified",
			data:           map[string]any{"answer": float64(42), "confidence": 0.5},
			wantAnswer:     "42",
			wantConfidence: 0.5,
			wantReasoning:  "No reasoning provided",
		},
		{
			name:           "confidence as string",
			data:           map[string]any{"answer": "ok", "confidence": "0.75"},
			wantAnswer:     "ok",
			wantConfidence: 0.75,
			wantReasoning:  "No reasoning provided",
		},
		{
			name:           "confidence clamped high",
			data:           map[string]any{"answer": "ok", "confidence": 3.5},
			wantAnswer:     "ok",
			wantConfidence: 1.0,
			wantReasoning:  "No reasoning provided",
		},
		{
			name:           "confidence clamped low",
			data:           map[string]any{"answer": "ok", "confidence": -1.0},
			wantAnswer:     "ok",
			wantConfidence: 0.0,
			wantReasoning:  "No reasoning provided",
		},
		{
			name:           "missing fields use defaults",
			data:           map[string]any{},
			wantAnswer:     "No answer provided",
			wantConfidence: 0.5,
			wantReasoning:  "No reasoning provided",
		},
		{
			name:           "unparsable confidence defaults neutral",
			data:           map[string]any{"answer": "ok", "confidence": "very high"},
			wantAnswer:     "ok",
			wantConfidence: 0.5,
			wantReasoning:  "No reasoning provided",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeAnswer(tc.data)
			if got.Answer != tc.wantAnswer {
				t.Errorf("answer: expected %q, got %q", tc.wantAnswer, got.Answer)
			}
			if got.Confidence != tc.wantConfidence {
				t.Errorf("confidence: expected %v, got %v", tc.wantConfidence, got.Confidence)
			}
			if got.Reasoning != tc.wantReasoning {
				t.Errorf("reasoning: expected %q, got %q", tc.wantReasoning, got.Reasoning)
			}
		})
	}
}
