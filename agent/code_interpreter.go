package agent

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/hupe1980/agentchain/code"
	"github.com/hupe1980/agentchain/core"
	"github.com/hupe1980/agentchain/model"
)

// CodeInterpreterName is the registry name of the code interpreter.
const CodeInterpreterName = "CodeInterpreter"

// sampleLineCount bounds how much of each uploaded file is embedded into
// the analysis prompt.
const sampleLineCount = 6

// CodeInterpreterOptions configures the interpreter agent.
type CodeInterpreterOptions struct {
	// Executor runs the code blocks the backend produces. Defaults to
	// NopExecutor, which reports execution as disabled instead of
	// running untrusted generated code.
	Executor code.Executor
}

// CodeInterpreter is the default entry agent: it inspects uploaded data
// files, asks the backend for an analysis with runnable code, executes
// the generated snippets and hands the combined findings off to the
// answer synthesiser.
type CodeInterpreter struct {
	BaseAgent
	executor code.Executor
}

// NewCodeInterpreter constructs the interpreter over a backend.
func NewCodeInterpreter(backend model.Backend, optFns ...func(o *CodeInterpreterOptions)) *CodeInterpreter {
	opts := CodeInterpreterOptions{Executor: code.NopExecutor{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &CodeInterpreter{
		BaseAgent: NewBaseAgent(CodeInterpreterName, backend),
		executor:  opts.Executor,
	}
}

// Capabilities implements core.Agent.
func (a *CodeInterpreter) Capabilities() []string {
	return []string{
		"Analyze uploaded CSV data",
		"Generate and execute analysis code",
		"Compute statistics over tabular data",
		"Summarize analysis results for downstream agents",
	}
}

// Process implements core.Agent.
func (a *CodeInterpreter) Process(ctx context.Context, input core.Input) core.AgentResult {
	prompt, filenames, err := a.buildPrompt(input.Query, input.Files)
	if err != nil {
		return core.NewErrorResult(a.Name(), err.Error())
	}
	a.AddToHistory(core.NewMessage(core.RoleUser, input.Query))

	analysis, err := a.Backend().Generate(ctx, prompt)
	if err != nil {
		return core.NewErrorResult(a.Name(), err.Error())
	}
	a.AddToHistory(core.NewMessage(core.RoleAgent, analysis))

	// Execute generated snippets. Individual execution failures are
	// captured per snippet and do not fail the agent: partial output is
	// still useful to the synthesiser.
	results := make([]map[string]any, 0)
	for _, block := range code.ExtractBlocks(analysis) {
		entry := map[string]any{"code": block}
		out, execErr := a.executor.Execute(ctx, block)
		entry["output"] = out
		if execErr != nil {
			entry["error"] = execErr.Error()
		}
		results = append(results, entry)
	}

	return core.AgentResult{
		Success: true,
		Data: map[string]any{
			"analysis": analysis,
			"results":  results,
			"files":    filenames,
		},
		Message:   "Analysis completed",
		AgentName: a.Name(),
		NextAgent: AnswerSynthesiserName,
	}
}

// buildPrompt assembles the analysis prompt, embedding a short sample of
// each uploaded file. An unreadable file fails the agent: a query about
// data the agent cannot see would only hallucinate.
func (a *CodeInterpreter) buildPrompt(query string, files map[string]string) (string, []string, error) {
	var sb strings.Builder

	if len(files) == 0 {
		fmt.Fprintf(&sb, `You are a data analysis assistant. Answer the user's question.
If computation helps, include runnable code in fenced code blocks.

User Query: %s
`, query)
		return sb.String(), []string{}, nil
	}

	filenames := make([]string, 0, len(files))
	for name := range files {
		filenames = append(filenames, name)
	}
	sort.Strings(filenames)

	sb.WriteString(`You are a data analysis assistant. The user uploaded the following files.
Analyze them with respect to the query and include runnable code for any
computation in fenced code blocks. Reference files by their path.

`)
	for _, name := range filenames {
		sample, err := sampleFile(files[name])
		if err != nil {
			return "", nil, fmt.Errorf("read uploaded file %s: %w", name, err)
		}
		fmt.Fprintf(&sb, "File %s (path: %s), first lines:\n%s\n\n", name, files[name], sample)
	}
	fmt.Fprintf(&sb, "User Query: %s\n", query)

	return sb.String(), filenames, nil
}

// sampleFile returns the first few lines of a file.
func sampleFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var sb strings.Builder
	scanner := bufio.NewScanner(f)
	for i := 0; i < sampleLineCount && scanner.Scan(); i++ {
		sb.WriteString(scanner.Text())
		sb.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return sb.String(), nil
}
