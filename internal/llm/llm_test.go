package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPrompt(t *testing.T) {
	t.Run("with projects", func(t *testing.T) {
		system, user := buildPrompt("# Launch\n- [ ] write copy", []string{"Launch", "Ops"})

		assert.Contains(t, system, "JSON array")
		assert.Contains(t, system, `"project"`)
		assert.Contains(t, system, `"title"`)
		assert.Contains(t, system, `"assigneeEmail"`)
		assert.Contains(t, system, `"dueDate"`)

		assert.Contains(t, user, "Known projects: Launch, Ops")
		assert.Contains(t, user, "write copy")
	})

	t.Run("without projects", func(t *testing.T) {
		system, user := buildPrompt("some content", nil)

		assert.Contains(t, system, "JSON array")
		assert.NotContains(t, user, "Known projects")
		assert.Contains(t, user, "some content")
	})

	t.Run("system prompt lists every task status", func(t *testing.T) {
		system, _ := buildPrompt("content", nil)

		for _, s := range []string{"TODO", "IN_PROGRESS", "BLOCKED", "DONE"} {
			assert.Contains(t, system, `"`+s+`"`)
		}
	})
}

func TestBuildPromptContent(t *testing.T) {
	content := strings.Repeat("x", 10000)
	_, user := buildPrompt(content, []string{"a"})
	assert.Contains(t, user, content)
}

func TestParseResponse(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		var tasks []ExtractedTask
		require.NoError(t, parseResponse(`[{"project":"Launch","title":"Write copy","status":"TODO"}]`, &tasks))
		require.Len(t, tasks, 1)
		assert.Equal(t, "Launch", tasks[0].Project)
		assert.Equal(t, "TODO", tasks[0].Status)
	})

	t.Run("fenced", func(t *testing.T) {
		var tasks []ExtractedTask
		text := "```json\n[{\"title\":\"a\"},{\"title\":\"b\",\"assigneeEmail\":\"dev@acme.test\"}]\n```"
		require.NoError(t, parseResponse(text, &tasks))
		require.Len(t, tasks, 2)
		assert.Equal(t, "dev@acme.test", tasks[1].AssigneeEmail)
	})

	t.Run("empty", func(t *testing.T) {
		var tasks []ExtractedTask
		assert.Error(t, parseResponse("", &tasks))
	})

	t.Run("not json", func(t *testing.T) {
		var tasks []ExtractedTask
		err := parseResponse("Sure! Here are your tasks.", &tasks)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "raw response")
	})
}

func TestNewClient_DefaultModel(t *testing.T) {
	c := NewClient("", "")
	assert.Equal(t, DefaultModel, string(c.model))
}
