package graft

import (
	"errors"
	"fmt"
)

// PatternSyntaxError reports a rule template that failed to compile. Raised
// at registration time, never during traversal.
type PatternSyntaxError struct {
	Rule     string
	Template string
	Err      error
}

func (e *PatternSyntaxError) Error() string {
	return fmt.Sprintf("rule %s: pattern %q: %v", e.Rule, e.Template, e.Err)
}

func (e *PatternSyntaxError) Unwrap() error { return e.Err }

// InvalidHandlerSignatureError reports a rule whose handler callable does not
// have one of the accepted shapes.
type InvalidHandlerSignatureError struct {
	Rule   string
	Reason string
}

func (e *InvalidHandlerSignatureError) Error() string {
	return fmt.Sprintf("rule %s: invalid handler: %s", e.Rule, e.Reason)
}

// IncompleteConfigurationError reports a query executed before its required
// configuration was supplied. No traversal happens when it is returned.
type IncompleteConfigurationError struct {
	Missing string
}

func (e *IncompleteConfigurationError) Error() string {
	return fmt.Sprintf("query not configured: missing %s", e.Missing)
}

// HandlerInvocationError wraps an error returned by a rule handler during the
// rewrite phase. The rewrite pass aborts at the failing handler.
type HandlerInvocationError struct {
	Rule   string
	Offset uint32
	Err    error
}

func (e *HandlerInvocationError) Error() string {
	return fmt.Sprintf("handler for rule %s failed at offset %d: %v", e.Rule, e.Offset, e.Err)
}

func (e *HandlerInvocationError) Unwrap() error { return e.Err }

// ErrPendingConsumed is returned when a Pending token is passed to Rewrite a
// second time. Each analysis result may be rewritten at most once.
var ErrPendingConsumed = errors.New("pending token already consumed")

// ErrNilPending is returned when Rewrite is called without an analysis result.
var ErrNilPending = errors.New("nil pending token")
