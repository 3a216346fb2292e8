package core

import "testing"

func TestContextKey(t *testing.T) {
	if got := ContextKey("CodeInterpreter"); got != "codeinterpreter_data" {
		t.Fatalf("ContextKey = %q", got)
	}
}

func TestFinalAnswer_Precedence(t *testing.T) {
	res := AgentResult{
		Message: "fallback",
		Data: map[string]any{
			"answer":           "plain",
			"formatted_answer": "formatted",
		},
	}
	if got := FinalAnswer(res); got != "formatted" {
		t.Fatalf("expected formatted_answer to win, got %q", got)
	}

	delete(res.Data.(map[string]any), "formatted_answer")
	if got := FinalAnswer(res); got != "plain" {
		t.Fatalf("expected answer, got %q", got)
	}

	res.Data = map[string]any{"results": []any{}}
	if got := FinalAnswer(res); got != "fallback" {
		t.Fatalf("expected message fallback, got %q", got)
	}

	res.Data = "opaque string payload"
	if got := FinalAnswer(res); got != "fallback" {
		t.Fatalf("non-map data should fall back to message, got %q", got)
	}
}

func TestNewErrorResult(t *testing.T) {
	res := NewErrorResult("CodeInterpreter", "backend unavailable")
	if res.Success {
		t.Error("error result must not be successful")
	}
	if res.NextAgent != "" {
		t.Error("error result must not hand off")
	}
	data, ok := res.Data.(map[string]any)
	if !ok || data["error"] != "backend unavailable" {
		t.Fatalf("unexpected data payload: %v", res.Data)
	}
}
