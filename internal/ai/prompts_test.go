package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChatPrompt_IncludesHistory(t *testing.T) {
	p := ChatPrompt("and now?", []Turn{{FromUser: true, Text: "my head hurts"}, {Text: "drink water"}}, false)

	assert.Contains(t, p, "Patient: my head hurts")
	assert.Contains(t, p, "Assistant: drink water")
	assert.Contains(t, p, `"and now?"`)
	assert.Contains(t, p, "under 100 words")
}

func TestSymptomPrompt_DetailLevel(t *testing.T) {
	assert.Contains(t, SymptomPrompt("cough", true), "thorough")
	assert.Contains(t, SymptomPrompt("cough", false), "concise")
	assert.Contains(t, SymptomPrompt("cough", false), `"severity"`)
}
