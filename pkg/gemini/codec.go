package gemini

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Part is a single text fragment within a message.
type Part struct {
	Text string `json:"text"`
}

// Content is a role-tagged sequence of parts. The system instruction omits
// the role field entirely, so Role is marshaled only when set.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// GenerationConfig carries generation parameters. Only temperature is set:
// zero-temperature generation keeps scoring reproducible across identical
// inputs, and no other parameter may be introduced without breaking that.
type GenerationConfig struct {
	Temperature float64 `json:"temperature"`
}

// Request is the generateContent request body. Field names and nesting are an
// external contract and must not change.
type Request struct {
	SystemInstruction Content          `json:"system_instruction"`
	Contents          []Content        `json:"contents"`
	GenerationConfig  GenerationConfig `json:"generationConfig"`
}

// EncodeRequest builds a generateContent request carrying exactly two message
// roles: the system instruction and a single user message.
func EncodeRequest(systemInstruction, userMessage string) Request {
	return Request{
		SystemInstruction: Content{
			Parts: []Part{{Text: systemInstruction}},
		},
		Contents: []Content{
			{Role: "user", Parts: []Part{{Text: userMessage}}},
		},
		GenerationConfig: GenerationConfig{Temperature: 0.0},
	}
}

type envelope struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// DecodeText extracts the first candidate's first part as trimmed text.
// Returns ErrMalformedEnvelope when the expected nested fields are absent.
func DecodeText(body []byte) (string, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", fmt.Errorf("%w: %s", ErrMalformedEnvelope, body)
	}

	if len(env.Candidates) == 0 || len(env.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: %s", ErrMalformedEnvelope, body)
	}

	return strings.TrimSpace(env.Candidates[0].Content.Parts[0].Text), nil
}

// StripFence removes an optional leading/trailing markdown code fence from
// text. Only prefix and suffix literals are trimmed; the interior is never
// touched, so a malformed fence and malformed JSON remain distinguishable.
func StripFence(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// Parse strips any code fence from text and unmarshals the remainder into T.
// Returns ErrInvalidResponse with the raw text attached when parsing fails;
// the offending text is never silently coerced into a zero value.
func Parse[T any](text string) (T, error) {
	var result T

	cleaned := StripFence(text)
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return result, fmt.Errorf("%w: %s", ErrInvalidResponse, text)
	}

	return result, nil
}
