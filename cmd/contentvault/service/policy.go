package service

import (
	"fmt"
	"time"

	"github.com/clinovia/contentvault/cmd/contentvault/models"
	"github.com/google/cel-go/cel"
)

// RetentionPolicy evaluates an operator-supplied CEL expression against
// an orphaned object to decide whether cleanup may proceed. The policy
// only narrows eligibility: the age and grace rules always apply first,
// and an empty policy allows everything they allow. Evaluation errors
// fail closed.
type RetentionPolicy struct {
	expression string
	program    cel.Program
}

// NewRetentionPolicy compiles expr into a reusable program. An empty
// expression yields an allow-all policy.
func NewRetentionPolicy(expr string) (*RetentionPolicy, error) {
	if expr == "" {
		return &RetentionPolicy{}, nil
	}

	env, err := cel.NewEnv(
		cel.Variable("age_days", cel.DoubleType),
		cel.Variable("size_bytes", cel.IntType),
		cel.Variable("extension", cel.StringType),
		cel.Variable("owner_exists", cel.BoolType),
		cel.Variable("owner_deleted", cel.BoolType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create policy environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile retention policy %q: %w", expr, issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("retention policy %q must evaluate to bool, got %s", expr, ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to build retention policy program: %w", err)
	}

	return &RetentionPolicy{
		expression: expr,
		program:    program,
	}, nil
}

// Expression returns the source expression, empty for allow-all
func (p *RetentionPolicy) Expression() string {
	if p == nil {
		return ""
	}
	return p.expression
}

// Allows reports whether the policy permits cleaning ref. ownerExists
// and ownerDeleted describe the owning record at evaluation time, not
// at scan time.
func (p *RetentionPolicy) Allows(ref *models.OrphanedContentReference, now time.Time, ownerExists, ownerDeleted bool) (bool, error) {
	if p == nil || p.program == nil {
		return true, nil
	}

	ageDays := now.Sub(ref.LastReferencedAt).Hours() / 24

	_, extension, ok := splitFileSegment(ref.BlobPath)
	if !ok {
		extension = ""
	}

	out, _, err := p.program.Eval(map[string]interface{}{
		"age_days":      ageDays,
		"size_bytes":    ref.SizeBytes,
		"extension":     extension,
		"owner_exists":  ownerExists,
		"owner_deleted": ownerDeleted,
	})
	if err != nil {
		return false, fmt.Errorf("failed to evaluate retention policy: %w", err)
	}

	allowed, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("retention policy returned non-bool %T", out.Value())
	}

	return allowed, nil
}

// splitFileSegment pulls (digest, extension) out of the final key
// segment of an object store path
func splitFileSegment(blobPath string) (string, string, bool) {
	slash := -1
	for i := len(blobPath) - 1; i >= 0; i-- {
		if blobPath[i] == '/' {
			slash = i
			break
		}
	}
	file := blobPath[slash+1:]

	dot := -1
	for i := len(file) - 1; i >= 0; i-- {
		if file[i] == '.' {
			dot = i
			break
		}
	}
	if dot <= 0 || dot == len(file)-1 {
		return "", "", false
	}

	return file[:dot], file[dot+1:], true
}
