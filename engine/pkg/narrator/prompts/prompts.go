// Package prompts embeds the narrator prompt templates.
package prompts

import "embed"

//go:embed *.md
var PromptsFS embed.FS
