package agent

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/hupe1980/agentchain/core"
)

// CalculatorName is the registry name of the calculator example agent.
const CalculatorName = "Calculator"

// Calculator is a deliberately small example of a backend-free agent:
// it parses additions out of the query and hands the numeric result to
// the answer synthesiser.
type Calculator struct {
	BaseAgent
}

// NewCalculator constructs the calculator agent.
func NewCalculator() *Calculator {
	return &Calculator{BaseAgent: NewBaseAgent(CalculatorName, nil)}
}

// Capabilities implements core.Agent.
func (a *Calculator) Capabilities() []string {
	return []string{
		"Perform basic calculations",
		"Add numbers mentioned in a query",
	}
}

// Process implements core.Agent.
func (a *Calculator) Process(_ context.Context, input core.Input) core.AgentResult {
	query := input.Query
	if !strings.Contains(strings.ToLower(query), "add") && !strings.Contains(query, "+") {
		return core.NewErrorResult(a.Name(), "could not parse calculation")
	}

	var numbers []int
	for _, field := range strings.FieldsFunc(query, func(r rune) bool {
		return r == ' ' || r == '+' || r == ',' || r == '?'
	}) {
		if n, err := strconv.Atoi(field); err == nil {
			numbers = append(numbers, n)
		}
	}
	if len(numbers) < 2 {
		return core.NewErrorResult(a.Name(), "could not parse calculation")
	}

	sum := 0
	for _, n := range numbers {
		sum += n
	}

	return core.AgentResult{
		Success: true,
		Data: map[string]any{
			"result":    sum,
			"operation": "addition",
		},
		Message:   fmt.Sprintf("Calculated: %d", sum),
		AgentName: a.Name(),
		NextAgent: AnswerSynthesiserName,
	}
}
