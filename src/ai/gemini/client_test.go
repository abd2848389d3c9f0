package gemini

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsmith/docgen/src/ai/core"
)

func TestNewClientRequiresKey(t *testing.T) {
	_, err := newClient(core.FactoryConfig{})
	assert.Error(t, err)
}

func TestNewClientDefaults(t *testing.T) {
	c, err := newClient(core.FactoryConfig{GeminiKey: "k"})
	require.NoError(t, err)

	impl := c.(*client)
	assert.Equal(t, defaultModelName, impl.defaults.Model)
	assert.Equal(t, 0.1, impl.defaults.Temperature)
	assert.Equal(t, defaultMaxTokens, impl.defaults.MaxOutputTokens)
}

func TestMergeOverrides(t *testing.T) {
	c, err := newClient(core.FactoryConfig{GeminiKey: "k", Model: "gemini-2.5-pro", Temperature: 0.5})
	require.NoError(t, err)
	impl := c.(*client)

	merged := impl.merge(core.Options{Temperature: 0.9, MaxOutputTokens: 256})
	assert.Equal(t, "gemini-2.5-pro", merged.Model)
	assert.Equal(t, 0.9, merged.Temperature)
	assert.Equal(t, 256, merged.MaxOutputTokens)

	merged = impl.merge(core.Options{})
	assert.Equal(t, 0.5, merged.Temperature)
	assert.Equal(t, defaultMaxTokens, merged.MaxOutputTokens)
}

func TestBuildRequestBodyIncludesSystemInstruction(t *testing.T) {
	c, err := newClient(core.FactoryConfig{GeminiKey: "k", SystemPrompt: "be terse"})
	require.NoError(t, err)
	impl := c.(*client)

	body := impl.buildRequestBody(impl.merge(core.Options{}), "hello")
	assert.Contains(t, body, "systemInstruction")
	assert.Contains(t, body, "generationConfig")

	body = impl.buildRequestBody(core.Options{Model: "m"}, "hello")
	assert.NotContains(t, body, "systemInstruction")
}

func TestNormalizeModel(t *testing.T) {
	assert.Equal(t, "models/gemini-2.5-flash", normalizeModel("gemini-2.5-flash"))
	assert.Equal(t, "models/gemini-2.5-flash", normalizeModel("models/gemini-2.5-flash"))
}

func TestGenerateContentResponseText(t *testing.T) {
	raw := `{"candidates":[{"content":{"parts":[{"text":"first"},{"text":"second"}]}}]}`
	var resp generateContentResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))
	assert.Equal(t, "first\nsecond", resp.text())

	var empty generateContentResponse
	assert.Equal(t, "", empty.text())
}
