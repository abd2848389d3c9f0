package confluence

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	codeBlockRe  = regexp.MustCompile("(?s)```(\\w+)?\\n(.*?)\\n```")
	inlineCodeRe = regexp.MustCompile("`([^`]+)`")
	boldRe       = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicRe     = regexp.MustCompile(`\*([^*]+)\*`)
	bulletRe     = regexp.MustCompile(`(?m)^- (.+)$`)
	headerRe     = regexp.MustCompile(`(?m)^(#{1,6}) (.+)$`)

	// Model output is untrusted; everything outside the code macros is run
	// through the sanitizer before it reaches Confluence.
	sanitizer = bluemonday.UGCPolicy()
)

// FormatStorage converts markdown-like content to Confluence storage format.
// Code blocks become code macros with CDATA bodies; the rest is sanitized
// HTML.
func FormatStorage(markdown string) string {
	// Pull code blocks out first so their bodies survive both the markdown
	// rewrites and the sanitizer.
	var macros []string
	content := codeBlockRe.ReplaceAllStringFunc(markdown, func(m string) string {
		parts := codeBlockRe.FindStringSubmatch(m)
		language, code := parts[1], parts[2]
		macro := fmt.Sprintf(`<ac:structured-macro ac:name="code" ac:schema-version="1">`+
			`<ac:parameter ac:name="language">%s</ac:parameter>`+
			`<ac:plain-text-body><![CDATA[%s]]></ac:plain-text-body>`+
			`</ac:structured-macro>`, language, strings.ReplaceAll(code, "]]>", "]] >"))
		macros = append(macros, macro)
		return fmt.Sprintf("\n\nDOCGENCODEMACRO%d\n\n", len(macros)-1)
	})

	content = headerRe.ReplaceAllStringFunc(content, func(m string) string {
		parts := headerRe.FindStringSubmatch(m)
		level := len(parts[1])
		return fmt.Sprintf("<h%d>%s</h%d>", level, parts[2], level)
	})

	content = inlineCodeRe.ReplaceAllString(content, "<code>$1</code>")
	content = boldRe.ReplaceAllString(content, "<strong>$1</strong>")
	content = italicRe.ReplaceAllString(content, "<em>$1</em>")
	content = mergeBullets(content)

	// Remaining bare text blocks become paragraphs.
	blocks := strings.Split(content, "\n\n")
	for i, block := range blocks {
		trimmed := strings.TrimSpace(block)
		if trimmed != "" && !strings.HasPrefix(trimmed, "<") && !strings.HasPrefix(trimmed, "DOCGENCODEMACRO") {
			blocks[i] = "<p>" + trimmed + "</p>"
		}
	}
	content = sanitizer.Sanitize(strings.Join(blocks, "\n"))

	for i, macro := range macros {
		content = strings.Replace(content, fmt.Sprintf("DOCGENCODEMACRO%d", i), macro, 1)
	}
	return content
}

// mergeBullets turns runs of "- item" lines into a single list.
func mergeBullets(content string) string {
	lines := strings.Split(content, "\n")
	var out []string
	inList := false
	for _, line := range lines {
		if bulletRe.MatchString(line) {
			if !inList {
				out = append(out, "<ul>")
				inList = true
			}
			item := bulletRe.FindStringSubmatch(line)[1]
			out = append(out, "<li>"+item+"</li>")
			continue
		}
		if inList {
			out = append(out, "</ul>")
			inList = false
		}
		out = append(out, line)
	}
	if inList {
		out = append(out, "</ul>")
	}
	return strings.Join(out, "\n")
}
