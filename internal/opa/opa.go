// Package opa evaluates rego policies that decide lifecycle hook outcomes.
package opa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/open-policy-agent/opa/v1/rego"
)

var ErrUndefined = errors.New("opa: policy result is undefined")

// Policy is a compiled query over one rego module.
type Policy struct {
	Query string
	query rego.PreparedEvalQuery
}

// ReadPolicy loads a rego module from disk.
func ReadPolicy(path string) (*string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("opa: read policy: %w", err)
	}
	s := string(b)
	return &s, nil
}

// Prepare compiles module once so every evaluation reuses it.
func Prepare(ctx context.Context, name, module, query string) (*Policy, error) {
	pq, err := rego.New(
		rego.Query(query),
		rego.Module(name, module),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("opa: compile policy: %w", err)
	}
	return &Policy{Query: query, query: pq}, nil
}

// Load reads and compiles the policy at path.
func Load(ctx context.Context, path, query string) (*Policy, error) {
	module, err := ReadPolicy(path)
	if err != nil {
		return nil, err
	}
	return Prepare(ctx, filepath.Base(path), *module, query)
}

// EvaluatePolicy runs p against input and decodes the first result into T.
func EvaluatePolicy[T any](ctx context.Context, p *Policy, input any) (*T, error) {
	if p == nil {
		return nil, errors.New("opa: policy is nil")
	}

	doc, err := toDocument(input)
	if err != nil {
		return nil, err
	}

	rs, err := p.query.Eval(ctx, rego.EvalInput(doc))
	if err != nil {
		return nil, fmt.Errorf("opa: evaluate: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return nil, ErrUndefined
	}

	raw, err := json.Marshal(rs[0].Expressions[0].Value)
	if err != nil {
		return nil, fmt.Errorf("opa: encode result: %w", err)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("opa: decode result: %w", err)
	}
	return &out, nil
}

// toDocument round-trips input through JSON so struct tags decide the field
// names the policy sees.
func toDocument(input any) (any, error) {
	b, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("opa: encode input: %w", err)
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("opa: decode input: %w", err)
	}
	return doc, nil
}
