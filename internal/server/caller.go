package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ToolCaller executes one tool call and returns structured content.
type ToolCaller interface {
	Call(ctx context.Context, name string, args map[string]any) (map[string]any, error)
}

type statusCoder interface {
	StatusCode() int
}

func toolErrorStatus(err error) int {
	var withStatus statusCoder
	if err != nil && errors.As(err, &withStatus) {
		status := withStatus.StatusCode()
		if status >= 400 && status <= 599 {
			return status
		}
	}
	return http.StatusInternalServerError
}

func toolErrorMessage(err error) string {
	if err == nil {
		return "unknown tool execution error"
	}
	message := strings.TrimSpace(err.Error())
	if message == "" {
		return "unknown tool execution error"
	}
	return message
}

// toolCallText prefers the runner's rendered text (result tables,
// confirmation previews) over a generic acknowledgement.
func toolCallText(name string, payload map[string]any) string {
	if text, ok := payload["text"].(string); ok && strings.TrimSpace(text) != "" {
		return text
	}
	return fmt.Sprintf("tool %s executed", strings.TrimSpace(name))
}

func toolCallResultFromExecution(name, level string, payload map[string]any) callToolResult {
	return callToolResult{
		Content: []contentBlock{
			{
				Type: "text",
				Text: toolCallText(name, payload),
			},
		},
		IsError: false,
		StructuredContent: map[string]any{
			"tool":         strings.TrimSpace(name),
			"access_level": strings.TrimSpace(level),
			"status":       "ok",
			"result":       payload,
		},
	}
}

func toolCallResultFromError(name, level string, err error) callToolResult {
	return callToolResult{
		Content: []contentBlock{
			{
				Type: "text",
				Text: toolErrorMessage(err),
			},
		},
		IsError: true,
		StructuredContent: map[string]any{
			"tool":         strings.TrimSpace(name),
			"access_level": strings.TrimSpace(level),
			"status":       "error",
			"error": map[string]any{
				"status":  toolErrorStatus(err),
				"message": toolErrorMessage(err),
			},
		},
	}
}
