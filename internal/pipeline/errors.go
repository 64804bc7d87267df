package pipeline

import (
	"errors"
	"fmt"

	"github.com/ppiankov/incidentcheck/internal/dedupe"
	"github.com/ppiankov/incidentcheck/internal/llm"
	"github.com/ppiankov/incidentcheck/internal/ratelimit"
)

// Stage names the pipeline step a verdict stopped at
type Stage string

const (
	StageDuplication  Stage = "duplication"
	StageStructure    Stage = "structure"
	StageExtraction   Stage = "extraction"
	StageSearch       Stage = "search"
	StageVerification Stage = "verification"
	StageComplete     Stage = "complete"
)

// PipelineError is a stage failure caught at the orchestrator boundary
type PipelineError struct {
	Stage Stage
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// errorKind classifies err for the verdict details payload
func errorKind(err error) string {
	var schemaErr *llm.SchemaError
	var statusErr *llm.StatusError
	switch {
	case errors.Is(err, dedupe.ErrDuplicateContent):
		return "duplicate_content"
	case errors.Is(err, errPanic):
		return "panic"
	case errors.As(err, &schemaErr):
		return "schema"
	case errors.Is(err, ratelimit.ErrRetryBudgetExhausted):
		return "retry_budget_exhausted"
	case llm.IsRateLimited(err):
		return "rate_limited"
	case errors.As(err, &statusErr), llm.IsTransient(err):
		return "service"
	default:
		return "internal"
	}
}

var errPanic = errors.New("panic")
