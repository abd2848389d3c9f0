package confluence

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatStorageHeaders(t *testing.T) {
	out := FormatStorage("# Title\n\n## Section\n\n###### Deep")
	assert.Contains(t, out, "<h1>Title</h1>")
	assert.Contains(t, out, "<h2>Section</h2>")
	assert.Contains(t, out, "<h6>Deep</h6>")
}

func TestFormatStorageInlineMarkup(t *testing.T) {
	out := FormatStorage("Use **bold** and *italic* and `code` here.")
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.Contains(t, out, "<em>italic</em>")
	assert.Contains(t, out, "<code>code</code>")
	assert.Contains(t, out, "<p>")
}

func TestFormatStorageBulletRuns(t *testing.T) {
	out := FormatStorage("Intro\n\n- first\n- second\n- third\n\nOutro")
	assert.Contains(t, out, "<ul>")
	assert.Contains(t, out, "<li>first</li>")
	assert.Contains(t, out, "<li>third</li>")
	assert.Equal(t, 1, strings.Count(out, "<ul>"))
}

func TestFormatStorageCodeBlockBecomesMacro(t *testing.T) {
	md := "Before\n\n```go\nfunc main() {}\n```\n\nAfter"
	out := FormatStorage(md)

	assert.Contains(t, out, `<ac:structured-macro ac:name="code"`)
	assert.Contains(t, out, `<ac:parameter ac:name="language">go</ac:parameter>`)
	assert.Contains(t, out, "<![CDATA[func main() {}]]>")
	assert.NotContains(t, out, "DOCGENCODEMACRO")
	assert.NotContains(t, out, "```")
}

func TestFormatStorageCodeBlockSurvivesSanitizer(t *testing.T) {
	// Script tags inside a code sample must stay verbatim inside CDATA while
	// the same tag in prose is stripped.
	md := "<script>alert(1)</script>\n\n```html\n<script>alert(1)</script>\n```"
	out := FormatStorage(md)

	assert.Contains(t, out, "<![CDATA[<script>alert(1)</script>]]>")
	assert.Equal(t, 1, strings.Count(out, "<script>"))
}

func TestFormatStorageEscapesCDATATerminator(t *testing.T) {
	md := "```text\ndata ]]> more\n```"
	out := FormatStorage(md)
	assert.Contains(t, out, "]] >")
	assert.NotContains(t, out, "data ]]> more")
}

func TestFormatStorageSanitizesProse(t *testing.T) {
	out := FormatStorage(`Click <a href="javascript:alert(1)">here</a> <script>alert(1)</script>`)
	assert.NotContains(t, out, "javascript:")
	assert.NotContains(t, out, "<script>")
}

func TestFormatStorageMultipleCodeBlocks(t *testing.T) {
	md := "```go\none\n```\n\ntext\n\n```python\ntwo\n```"
	out := FormatStorage(md)
	assert.Equal(t, 2, strings.Count(out, "ac:structured-macro ac:name=\"code\""))
	assert.Contains(t, out, "<![CDATA[one]]>")
	assert.Contains(t, out, "<![CDATA[two]]>")
}
