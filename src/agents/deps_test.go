package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseListBulletsAndNumbers(t *testing.T) {
	text := `# Key Components

- API Gateway
* Frontend
1. Database
2) Message Queue

Services`

	items := ParseList(text, 10)
	assert.Equal(t, []string{"API Gateway", "Frontend", "Database", "Message Queue", "Services"}, items)
}

func TestParseListHonorsLimit(t *testing.T) {
	text := "- one\n- two\n- three\n- four"
	assert.Equal(t, []string{"one", "two"}, ParseList(text, 2))
}

func TestParseListSkipsEmptyAndHeadingLines(t *testing.T) {
	text := "## Heading\n\n   \n- only item\n#### another heading"
	assert.Equal(t, []string{"only item"}, ParseList(text, 10))
}

func TestParseListEmptyInput(t *testing.T) {
	assert.Empty(t, ParseList("", 5))
	assert.Empty(t, ParseList("\n\n", 5))
}
