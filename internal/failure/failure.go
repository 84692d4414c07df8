// Package failure defines the error taxonomy shared by every stewardctl command.
//
// Components return *Error values; only the entrypoint decides how to report
// them and which exit code to use.
package failure

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindConnection
	KindParse
	KindConfigMissing
	KindAlreadyRunning
	KindNoAsset
	KindFilesystem
	KindExec
	KindLaunch
	KindInvalidInput
	KindIntegrity
)

// Sentinels usable with errors.Is.
var (
	ErrConnection     = &Error{Kind: KindConnection}
	ErrParse          = &Error{Kind: KindParse}
	ErrConfigMissing  = &Error{Kind: KindConfigMissing}
	ErrAlreadyRunning = &Error{Kind: KindAlreadyRunning}
	ErrNoAsset        = &Error{Kind: KindNoAsset}
	ErrFilesystem     = &Error{Kind: KindFilesystem}
	ErrExec           = &Error{Kind: KindExec}
	ErrLaunch         = &Error{Kind: KindLaunch}
	ErrInvalidInput   = &Error{Kind: KindInvalidInput}
	ErrIntegrity      = &Error{Kind: KindIntegrity}
)

// IssueURL is where users are asked to report client/service inconsistencies.
const IssueURL = "https://github.com/adamancini/stewardctl/issues"

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection failure"
	case KindParse:
		return "parse failure"
	case KindConfigMissing:
		return "configuration missing"
	case KindAlreadyRunning:
		return "already running"
	case KindNoAsset:
		return "no matching asset"
	case KindFilesystem:
		return "filesystem failure"
	case KindExec:
		return "executable failure"
	case KindLaunch:
		return "launch failure"
	case KindInvalidInput:
		return "invalid input"
	case KindIntegrity:
		return "integrity check failed"
	default:
		return "unknown failure"
	}
}

// Error is a classified failure with optional operator guidance.
type Error struct {
	Kind     Kind
	Op       string // short description of what was being attempted
	Err      error  // underlying cause, may be nil
	Guidance string // remediation text printed below the error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Op != "":
		return e.Op
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Kind, so the package sentinels work with
// errors.Is regardless of Op or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New creates a classified error.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// WithGuidance attaches remediation text and returns the same error.
func (e *Error) WithGuidance(guidance string) *Error {
	e.Guidance = guidance
	return e
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// GuidanceOf returns the guidance of the first *Error in err's chain that has one.
func GuidanceOf(err error) string {
	for err != nil {
		if fe, ok := err.(*Error); ok && fe.Guidance != "" {
			return fe.Guidance
		}
		err = errors.Unwrap(err)
	}
	return ""
}

// Parse wraps a decode failure with the standard bug-report guidance.
func Parse(op string, err error) *Error {
	return New(KindParse, op, err).WithGuidance(fmt.Sprintf(
		"The response could not be parsed. This shouldn't happen, please open an issue at %s", IssueURL))
}

// Connection wraps a transport failure with the standard network guidance.
func Connection(op string, err error) *Error {
	return New(KindConnection, op, err).WithGuidance(
		"Connection failed, please check your network status and run the same command with LOG_LEVEL=debug")
}
