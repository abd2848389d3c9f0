package config

import (
	"strconv"

	aicore "github.com/docsmith/docgen/src/ai/core"
)

// LoadAI builds the model-client factory config from settings and env.
func LoadAI() aicore.FactoryConfig {
	cfg := aicore.FactoryConfig{
		Provider:     GetSetting("ai_provider", "AI_PROVIDER", "gemini"),
		Model:        GetSetting("ai_model", "AI_MODEL", ""),
		SystemPrompt: GetSetting("ai_system_prompt", "AI_SYSTEM_PROMPT", ""),
		GeminiKey:    GetSetting("gemini_api_key", "GEMINI_API_KEY", ""),
		OpenAIKey:    GetSetting("openai_api_key", "OPENAI_API_KEY", ""),
		AnthropicKey: GetSetting("anthropic_api_key", "ANTHROPIC_API_KEY", ""),
	}

	if raw := GetSetting("ai_temperature", "AI_TEMPERATURE", ""); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			cfg.Temperature = v
		}
	}
	if raw := GetSetting("ai_max_output_tokens", "AI_MAX_OUTPUT_TOKENS", ""); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			cfg.MaxOutputTokens = v
		}
	}

	return cfg
}
