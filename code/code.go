// Package code executes model-generated code snippets on behalf of the
// code interpreter agent.
package code

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Executor defines the interface for executing code snippets.
type Executor interface {
	// Execute runs the given code snippet and returns the combined
	// output or an error.
	Execute(ctx context.Context, snippet string) (string, error)
}

// CommandExecutor runs snippets through an external interpreter binary
// (e.g. python3). Each snippet is written to a temp file and executed as
// a child process; the context bounds its runtime.
type CommandExecutor struct {
	// Interpreter is the binary invoked per snippet, default "python3".
	Interpreter string
	// WorkDir is the working directory for the child process. Empty
	// means the process default.
	WorkDir string
}

// NewCommandExecutor constructs a CommandExecutor for the interpreter.
func NewCommandExecutor(interpreter string) *CommandExecutor {
	if interpreter == "" {
		interpreter = "python3"
	}
	return &CommandExecutor{Interpreter: interpreter}
}

// Execute implements Executor.
func (e *CommandExecutor) Execute(ctx context.Context, snippet string) (string, error) {
	dir, err := os.MkdirTemp("", "agentchain-snippet-*")
	if err != nil {
		return "", fmt.Errorf("create snippet dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "snippet")
	if err := os.WriteFile(path, []byte(snippet), 0o600); err != nil {
		return "", fmt.Errorf("write snippet: %w", err)
	}

	cmd := exec.CommandContext(ctx, e.Interpreter, path)
	if e.WorkDir != "" {
		cmd.Dir = e.WorkDir
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("%s: %w", e.Interpreter, err)
	}
	return string(out), nil
}

// NopExecutor rejects every snippet. It is the default for deployments
// without an interpreter configured, keeping generated code inert.
type NopExecutor struct{}

// Execute implements Executor.
func (NopExecutor) Execute(_ context.Context, _ string) (string, error) {
	return "", fmt.Errorf("code execution is disabled")
}

// ExtractBlocks returns the bodies of fenced code blocks in a model
// completion, in order of appearance. The language tag on the opening
// fence is ignored.
func ExtractBlocks(text string) []string {
	var blocks []string
	for {
		start := strings.Index(text, "```")
		if start < 0 {
			return blocks
		}
		text = text[start+3:]
		if nl := strings.IndexByte(text, '\n'); nl >= 0 {
			// Drop the language tag line.
			text = text[nl+1:]
		}
		end := strings.Index(text, "```")
		if end < 0 {
			return blocks
		}
		block := strings.TrimRight(text[:end], "\n")
		if strings.TrimSpace(block) != "" {
			blocks = append(blocks, block)
		}
		text = text[end+3:]
	}
}
