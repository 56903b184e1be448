// Package llm extracts tracker tasks from free-form markdown using the
// Anthropic Messages API.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-sonnet-4-5"

// ExtractedTask holds a single task extracted from markdown content.
type ExtractedTask struct {
	Project       string `json:"project"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Status        string `json:"status"`
	AssigneeEmail string `json:"assigneeEmail"`
	DueDate       string `json:"dueDate"` // RFC 3339 or empty
}

// Client wraps the Anthropic API for task extraction.
type Client struct {
	api   *anthropic.Client
	model anthropic.Model
}

// NewClient creates an LLM client with the given API key and model.
func NewClient(apiKey, model string) *Client {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if model == "" {
		model = DefaultModel
	}
	client := anthropic.NewClient(opts...)
	return &Client{
		api:   &client,
		model: anthropic.Model(model),
	}
}

// buildPrompt constructs the system and user prompts for task extraction.
func buildPrompt(content string, projects []string) (system string, user string) {
	system = `You extract structured tasks from markdown notes for a project tracker. Return ONLY a JSON array of objects with these fields:
- "project": the project name the task belongs to (infer from headings like "## <project>" or context)
- "title": concise task title
- "description": brief description (empty string if the title is self-explanatory)
- "status": one of "TODO", "IN_PROGRESS", "BLOCKED", "DONE"
- "assigneeEmail": the assignee's email address if one is mentioned, else empty string
- "dueDate": an RFC 3339 date-time if a deadline is stated, else empty string

Rules:
- Each numbered/bulleted item is one task
- Checked boxes ("- [x]") are "DONE"; items marked blocked or waiting are "BLOCKED"; otherwise default to "TODO"
- Match project names to the known projects list when possible
- If a section contains no tasks, do NOT generate any entries for it. Never create placeholder tasks like "none" or "N/A"
- Return valid JSON only, no markdown fencing or explanation`

	var sb strings.Builder
	if len(projects) > 0 {
		sb.WriteString("Known projects: ")
		sb.WriteString(strings.Join(projects, ", "))
		sb.WriteString("\n\n")
	}
	sb.WriteString("Extract tasks from this markdown:\n\n")
	sb.WriteString(content)
	user = sb.String()
	return
}

// ExtractTasks sends markdown content to the LLM and returns structured tasks.
func (c *Client) ExtractTasks(ctx context.Context, content string, projects []string) ([]ExtractedTask, error) {
	systemPrompt, userPrompt := buildPrompt(content, projects)

	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 4096,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic API call: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}

	var tasks []ExtractedTask
	if err := parseResponse(text, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// parseResponse decodes a JSON reply, tolerating markdown fencing.
func parseResponse(text string, v any) error {
	if text == "" {
		return fmt.Errorf("no text content in API response")
	}

	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		lines := strings.SplitN(text, "\n", 2)
		if len(lines) > 1 {
			text = lines[1]
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	if err := json.Unmarshal([]byte(text), v); err != nil {
		return fmt.Errorf("parse LLM response as JSON: %w\nraw response: %s", err, text)
	}
	return nil
}
