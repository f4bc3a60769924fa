package verify

import (
	"fmt"
	"time"
)

// NavigationTimeoutError is returned when a page load does not complete
// within its bound.
type NavigationTimeoutError struct {
	URL     string
	Timeout time.Duration
	Cause   error
}

func (e *NavigationTimeoutError) Error() string {
	return fmt.Sprintf("verify: navigation to %s did not complete within %s: %v", e.URL, e.Timeout, e.Cause)
}

func (e *NavigationTimeoutError) Unwrap() error { return e.Cause }

// ElementNotFoundError is returned when a waited-for element never becomes
// visible within its bound.
type ElementNotFoundError struct {
	Selector string
	Timeout  time.Duration
	Cause    error
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("verify: element %s not visible within %s: %v", e.Selector, e.Timeout, e.Cause)
}

func (e *ElementNotFoundError) Unwrap() error { return e.Cause }

// OutcomeTimeoutError is returned when neither terminal indicator becomes
// visible before the outcome bound.
type OutcomeTimeoutError struct {
	Timeout time.Duration
	Cause   error
}

func (e *OutcomeTimeoutError) Error() string {
	return fmt.Sprintf("verify: no terminal indicator visible within %s: %v", e.Timeout, e.Cause)
}

func (e *OutcomeTimeoutError) Unwrap() error { return e.Cause }

// EmptyReferenceError is returned when the first-row link carries no usable
// path segment. The original flow left this undefined and let it surface as
// a later navigation failure; failing fast here names the actual problem.
type EmptyReferenceError struct {
	Href string
}

func (e *EmptyReferenceError) Error() string {
	return fmt.Sprintf("verify: no transaction reference in link target %q", e.Href)
}

// StepError annotates a failure with the flow step it occurred in.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("verify: step %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
