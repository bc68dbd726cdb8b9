package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
)

const responseQuery = "data.sessionguard.response.action"

// Default Rego policy implementing the standard threshold bands.
const defaultRegoPolicy = `package sessionguard.response

default action = "log"

action = "terminate" if {
	input.score >= input.terminate_threshold
}

action = "alert" if {
	input.score >= input.alert_threshold
	input.score < input.terminate_threshold
}
`

// Evaluator chooses a response action for a scored event.
type Evaluator interface {
	Decide(ctx context.Context, in Input, t Thresholds) (Action, error)
}

// OPAEvaluator evaluates response policies using OPA Rego.
type OPAEvaluator struct {
	modules map[string]string
}

// NewOPAEvaluator returns an OPA-based evaluator. Custom Rego sources replace
// the built-in policy; with none given the default threshold bands apply.
func NewOPAEvaluator(custom ...string) *OPAEvaluator {
	modules := make(map[string]string)
	if len(custom) == 0 {
		modules["policy_0.rego"] = defaultRegoPolicy
	}
	for i, src := range custom {
		modules[fmt.Sprintf("policy_%d.rego", i)] = src
	}
	return &OPAEvaluator{modules: modules}
}

// HealthCheck verifies that the in-process Rego engine can compile and
// evaluate the configured policy. Returns nil on success.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	_, err := e.eval(ctx, map[string]interface{}{
		"user_id":             "",
		"session_id":          "",
		"kind":                "",
		"score":               0.0,
		"tags":                []string{},
		"terminate_threshold": DefaultTerminateThreshold,
		"alert_threshold":     DefaultAlertThreshold,
	})
	return err
}

// Decide evaluates the policy for one scored event.
func (e *OPAEvaluator) Decide(ctx context.Context, in Input, t Thresholds) (Action, error) {
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}
	value, err := e.eval(ctx, map[string]interface{}{
		"user_id":             in.UserID,
		"session_id":          in.SessionID,
		"kind":                string(in.Kind),
		"score":               in.Score,
		"tags":                tags,
		"terminate_threshold": t.Terminate,
		"alert_threshold":     t.Alert,
	})
	if err != nil {
		return ActionLog, err
	}
	switch Action(value) {
	case ActionLog, ActionAlert, ActionTerminate:
		return Action(value), nil
	default:
		return ActionLog, fmt.Errorf("policy returned unknown action %q", value)
	}
}

func (e *OPAEvaluator) eval(ctx context.Context, input map[string]interface{}) (string, error) {
	compiler, err := ast.CompileModules(e.modules)
	if err != nil {
		return "", fmt.Errorf("compile policy: %w", err)
	}
	q := rego.New(
		rego.Query(responseQuery),
		rego.Compiler(compiler),
		rego.Input(input),
	)
	rs, err := q.Eval(ctx)
	if err != nil {
		return "", fmt.Errorf("eval policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return "", fmt.Errorf("policy query returned no result")
	}
	value, ok := rs[0].Expressions[0].Value.(string)
	if !ok {
		return "", fmt.Errorf("policy action is not a string")
	}
	return value, nil
}
