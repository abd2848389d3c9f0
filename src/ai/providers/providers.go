package providers

import (
	_ "github.com/docsmith/docgen/src/ai/anthropic"
	_ "github.com/docsmith/docgen/src/ai/gemini"
	_ "github.com/docsmith/docgen/src/ai/openai"
)
