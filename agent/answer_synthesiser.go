package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/agentchain/core"
	"github.com/hupe1980/agentchain/model"
)

// AnswerSynthesiserName is the registry name of the answer synthesiser.
const AnswerSynthesiserName = "AnswerSynthesiser"

// AnswerSynthesiser turns accumulated analysis results into a final
// user-facing answer. It is usually the terminal agent of a chain.
type AnswerSynthesiser struct {
	BaseAgent
}

// NewAnswerSynthesiser constructs the synthesiser over a backend.
func NewAnswerSynthesiser(backend model.Backend) *AnswerSynthesiser {
	return &AnswerSynthesiser{BaseAgent: NewBaseAgent(AnswerSynthesiserName, backend)}
}

// Capabilities implements core.Agent.
func (a *AnswerSynthesiser) Capabilities() []string {
	return []string{
		"Answer general questions",
		"Synthesize final answers from analysis",
		"Format responses with markdown",
		"Handle conversational queries",
	}
}

// Process implements core.Agent. Backend failures degrade to a failed
// result; nothing escapes.
func (a *AnswerSynthesiser) Process(ctx context.Context, input core.Input) core.AgentResult {
	prompt := a.buildPrompt(input.Query, input.Context)
	a.AddToHistory(core.NewMessage(core.RoleUser, input.Query))

	answer, err := a.Backend().Generate(ctx, prompt)
	if err != nil {
		return core.NewErrorResult(a.Name(), err.Error())
	}
	a.AddToHistory(core.NewMessage(core.RoleAgent, answer))

	return core.AgentResult{
		Success: true,
		Data: map[string]any{
			"answer":           answer,
			"formatted_answer": answer,
		},
		Message:   "Answer synthesized successfully",
		AgentName: a.Name(),
		// Terminal agent: no hand-off.
	}
}

// buildPrompt switches between an analysis-grounded prompt (when the
// code interpreter contributed to this session) and a plain
// conversational one.
func (a *AnswerSynthesiser) buildPrompt(query string, chainCtx core.ChainContext) string {
	ciData, _ := chainCtx.AgentData(CodeInterpreterName).(map[string]any)
	if ciData == nil {
		return fmt.Sprintf(`You are a helpful AI assistant. Answer the user's question clearly.

User Query: %s

Instructions:
1. Provide a clear, accurate answer
2. Use markdown formatting
3. Be conversational but professional

Provide your answer:
`, query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `You are an AI assistant. Based on the analysis results, provide a clear answer.

User Query: %s

Analysis Results:
`, query)

	if analysis, ok := ciData["analysis"].(string); ok && analysis != "" {
		sb.WriteString(analysis)
		sb.WriteString("\n\n")
	}
	if results, ok := ciData["results"].([]map[string]any); ok {
		for _, r := range results {
			if out, ok := r["output"].(string); ok && out != "" {
				sb.WriteString(out)
				sb.WriteString("\n")
			}
		}
	} else if results, ok := ciData["results"].([]any); ok {
		// Results round-tripped through JSON lose their concrete type.
		for _, raw := range results {
			if r, ok := raw.(map[string]any); ok {
				if out, ok := r["output"].(string); ok && out != "" {
					sb.WriteString(out)
					sb.WriteString("\n")
				}
			}
		}
	}

	sb.WriteString(`
Instructions:
1. Provide a clear, user-friendly answer
2. Use markdown formatting
3. Focus on insights, not technical details
4. Be conversational and easy to understand

Provide your answer:
`)
	return sb.String()
}
