package opa

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const module = `
package example
import rego.v1

default result := {"action": "allow"}

result := {"action": "deny", "reason": sprintf("domain %s is blocked", [input.domain])} if {
	input.domain in {"blocked.example"}
}
`

type decision struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

type input struct {
	Domain string `json:"domain"`
}

func TestEvaluatePolicy(t *testing.T) {
	p, err := Prepare(context.Background(), "example.rego", module, "data.example.result")
	require.NoError(t, err)

	out, err := EvaluatePolicy[decision](context.Background(), p, input{Domain: "ok.example"})
	require.NoError(t, err)
	assert.Equal(t, &decision{Action: "allow"}, out)

	out, err = EvaluatePolicy[decision](context.Background(), p, input{Domain: "blocked.example"})
	require.NoError(t, err)
	assert.Equal(t, &decision{Action: "deny", Reason: "domain blocked.example is blocked"}, out)
}

func TestEvaluatePolicy_Undefined(t *testing.T) {
	p, err := Prepare(context.Background(), "example.rego", module, "data.example.missing")
	require.NoError(t, err)

	_, err = EvaluatePolicy[decision](context.Background(), p, input{})
	assert.ErrorIs(t, err, ErrUndefined)

	_, err = EvaluatePolicy[decision](context.Background(), nil, input{})
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.rego")
	require.NoError(t, os.WriteFile(path, []byte(module), 0o600))

	p, err := Load(context.Background(), path, "data.example.result")
	require.NoError(t, err)
	assert.Equal(t, "data.example.result", p.Query)

	_, err = Load(context.Background(), filepath.Join(t.TempDir(), "nope.rego"), "data.example.result")
	assert.Error(t, err)
}
