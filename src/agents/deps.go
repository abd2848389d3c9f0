package agents

import (
	"log"
	"net/http"
	"regexp"
	"strings"

	aicore "github.com/docsmith/docgen/src/ai/core"
	"gorm.io/gorm"
)

// RuntimeDeps carries the shared services handed to every agent constructor.
type RuntimeDeps struct {
	DB     *gorm.DB
	HTTP   *http.Client
	AI     aicore.Client
	Logger *log.Logger
}

var listMarker = regexp.MustCompile(`^[-*0-9.)\s]+`)

// ParseList extracts plain items from a bulleted or numbered model response,
// dropping headings and empty lines, capped at limit entries.
func ParseList(text string, limit int) []string {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		item := strings.TrimSpace(listMarker.ReplaceAllString(line, ""))
		if item == "" {
			continue
		}
		items = append(items, item)
		if len(items) >= limit {
			break
		}
	}
	return items
}
