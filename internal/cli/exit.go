package cli

import (
	"errors"

	"github.com/lherron/caseq/internal/domain"
)

// Exit codes
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitUsage    = 2
	ExitNotFound = 3
	ExitInput    = 4
)

// ExitError carries the process exit code for a failed command
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func exitError(code int, err error) error {
	return &ExitError{Code: code, Err: err}
}

// ExitCode maps an error returned by Execute onto a process exit code.
// Unknown projects and actors map to ExitNotFound, undecodable or oversized
// input to ExitInput.
func ExitCode(err error) int {
	var ee *ExitError
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &ee):
		return ee.Code
	case errors.Is(err, domain.ErrProjectNotFound), errors.Is(err, domain.ErrActorNotFound):
		return ExitNotFound
	case domain.IsParseError(err), domain.IsSizeLimitError(err):
		return ExitInput
	default:
		return ExitFailure
	}
}
