package genai

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/chaincontext/chaincontext/internal/model"
)

// ExtractJSON pulls a JSON object out of free-form model output. It looks
// for a ```json fenced block first, then any fenced block, then the
// outermost {...} span. Returns false when nothing parses as an object.
func ExtractJSON(text string) (map[string]any, bool) {
	for _, candidate := range jsonCandidates(text) {
		var data map[string]any
		if err := json.Unmarshal([]byte(candidate), &data); err == nil {
			return data, true
		}
	}
	return nil, false
}

func jsonCandidates(text string) []string {
	var candidates []string

	if _, after, found := strings.Cut(text, "```json"); found {
		if block, _, ok := strings.Cut(after, "```"); ok {
			candidates = append(candidates, strings.TrimSpace(block))
		}
	}
	if _, after, found := strings.Cut(text, "```"); found {
		if block, _, ok := strings.Cut(after, "```"); ok {
			candidates = append(candidates, strings.TrimSpace(block))
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		candidates = append(candidates, text[start:end+1])
	}

	return candidates
}

// NormalizeAnswer coerces a parsed response object into the fixed answer
// shape. Non-string answer/reasoning values are stringified rather than
// rejected, and confidence is always forced into [0,1].
func NormalizeAnswer(data map[string]any) model.GeneratedAnswer {
	answer := model.GeneratedAnswer{
		Answer:     coerceString(data["answer"], "No answer provided"),
		Confidence: coerceConfidence(data["confidence"]),
		Reasoning:  coerceString(data["reasoning"], "No reasoning provided"),
	}
	return answer
}

func coerceString(v any, fallback string) string {
	switch s := v.(type) {
	case nil:
		return fallback
	case string:
		if s == "" {
			return fallback
		}
		return s
	default:
		return fmt.Sprintf("%v", v)
	}
}

func coerceConfidence(v any) float64 {
	var confidence float64
	switch n := v.(type) {
	case float64:
		confidence = n
	case int:
		confidence = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0.5
		}
		confidence = parsed
	default:
		return 0.5
	}

	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}
