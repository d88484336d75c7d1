package errors

import "errors"

var (
	ErrMissingRequirement = errors.New("missing requirement")
	ErrEnvironmentSetup   = errors.New("environment setup failed")
	ErrDependencyInstall  = errors.New("dependency installation failed")
	ErrCleanup            = errors.New("cleanup failed")
	ErrBuild              = errors.New("container build failed")
	ErrStart              = errors.New("container start failed")
	ErrHealthCheckTimeout = errors.New("health check timed out")
	ErrConfigInvalid      = errors.New("configuration invalid")
	ErrScaffoldFailed     = errors.New("scaffolding failed")
	ErrSCMFailed          = errors.New("SCM operation failed")
	ErrInterrupted        = errors.New("interrupted")
)

// FreshStartError carries the human-facing diagnostic for a failure along with
// the error that caused it. Type is one of the sentinel errors above.
type FreshStartError struct {
	Type        error
	Context     string
	Cause       string
	Suggestion  string
	OriginalErr error
}

func (e *FreshStartError) Error() string {
	if e.OriginalErr == nil {
		if e.Context != "" {
			return e.Context
		}
		return e.Type.Error()
	}
	return e.OriginalErr.Error()
}

func (e *FreshStartError) Unwrap() error {
	return e.OriginalErr
}

// Is reports whether target is the error's Type, so callers can write
// errors.Is(err, ErrBuild) without knowing about FreshStartError.
func (e *FreshStartError) Is(target error) bool {
	return e.Type != nil && target == e.Type
}

func NewFreshStartError(errorType error, context, cause, suggestion string, originalErr error) *FreshStartError {
	return &FreshStartError{
		Type:        errorType,
		Context:     context,
		Cause:       cause,
		Suggestion:  suggestion,
		OriginalErr: originalErr,
	}
}

func NewRequirementError(context, cause, suggestion string, originalErr error) *FreshStartError {
	return NewFreshStartError(ErrMissingRequirement, context, cause, suggestion, originalErr)
}

func NewEnvironmentError(context, cause, suggestion string, originalErr error) *FreshStartError {
	return NewFreshStartError(ErrEnvironmentSetup, context, cause, suggestion, originalErr)
}

func NewDependencyError(context, cause, suggestion string, originalErr error) *FreshStartError {
	return NewFreshStartError(ErrDependencyInstall, context, cause, suggestion, originalErr)
}

func NewCleanupError(context, cause, suggestion string, originalErr error) *FreshStartError {
	return NewFreshStartError(ErrCleanup, context, cause, suggestion, originalErr)
}

func NewBuildError(context, cause, suggestion string, originalErr error) *FreshStartError {
	return NewFreshStartError(ErrBuild, context, cause, suggestion, originalErr)
}

func NewStartError(context, cause, suggestion string, originalErr error) *FreshStartError {
	return NewFreshStartError(ErrStart, context, cause, suggestion, originalErr)
}

func NewHealthCheckError(context, cause, suggestion string, originalErr error) *FreshStartError {
	return NewFreshStartError(ErrHealthCheckTimeout, context, cause, suggestion, originalErr)
}

func NewConfigError(context, cause, suggestion string, originalErr error) *FreshStartError {
	return NewFreshStartError(ErrConfigInvalid, context, cause, suggestion, originalErr)
}

func NewScaffoldError(context, cause, suggestion string, originalErr error) *FreshStartError {
	return NewFreshStartError(ErrScaffoldFailed, context, cause, suggestion, originalErr)
}

func NewSCMError(context, cause, suggestion string, originalErr error) *FreshStartError {
	return NewFreshStartError(ErrSCMFailed, context, cause, suggestion, originalErr)
}
