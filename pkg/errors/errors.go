package errors

import (
	"fmt"
)

// DelegateError is the interface implemented by all protochain errors.
type DelegateError interface {
	error         // Embed the standard error interface
	Kind() string // e.g., "CyclicChain", "ChainTooDeep", "ReadOnlyProperty"
	// Message returns the specific error message without the kind prefix.
	// This might be useful if the caller wants to format the error differently.
	Message() string
	Unwrap() error // For error wrapping support (errors.Is/As)
}

// --- Concrete Error Types ---

// CyclicChainError reports a parent reassignment that would make a node its
// own ancestor.
type CyclicChainError struct {
	Node      string // id of the node being relinked
	NewParent string // id of the rejected parent
	Msg       string
	Cause     error // Underlying cause, if any
}

func (e *CyclicChainError) Error() string {
	return fmt.Sprintf("cyclic chain: %s", e.Msg)
}
func (e *CyclicChainError) Kind() string    { return "CyclicChain" }
func (e *CyclicChainError) Message() string { return e.Msg }
func (e *CyclicChainError) Unwrap() error   { return e.Cause }
func (e *CyclicChainError) CausedBy(cause error) *CyclicChainError {
	e.Cause = cause
	return e
}

// ChainTooDeepError reports a traversal that exceeded the store's hop cap.
// It signals a malformed chain, not absence of a key.
type ChainTooDeepError struct {
	Start string // id of the node the traversal started from
	Cap   int
	Msg   string
	Cause error
}

func (e *ChainTooDeepError) Error() string {
	return fmt.Sprintf("chain too deep: %s", e.Msg)
}
func (e *ChainTooDeepError) Kind() string    { return "ChainTooDeep" }
func (e *ChainTooDeepError) Message() string { return e.Msg }
func (e *ChainTooDeepError) Unwrap() error   { return e.Cause }
func (e *ChainTooDeepError) CausedBy(cause error) *ChainTooDeepError {
	e.Cause = cause
	return e
}

// ReadOnlyPropertyError reports a rejected write: the nearest matching
// descriptor was a non-writable data property or an accessor without a setter.
// Only raised in strict mode; otherwise Set reports failure via its boolean.
type ReadOnlyPropertyError struct {
	Key   string
	Owner string // id of the node owning the matching descriptor
	Msg   string
	Cause error
}

func (e *ReadOnlyPropertyError) Error() string {
	return fmt.Sprintf("read-only property: %s", e.Msg)
}
func (e *ReadOnlyPropertyError) Kind() string    { return "ReadOnlyProperty" }
func (e *ReadOnlyPropertyError) Message() string { return e.Msg }
func (e *ReadOnlyPropertyError) Unwrap() error   { return e.Cause }
func (e *ReadOnlyPropertyError) CausedBy(cause error) *ReadOnlyPropertyError {
	e.Cause = cause
	return e
}

// NotConfigurableError reports an attempt to redefine or delete a
// non-configurable own property incompatibly.
type NotConfigurableError struct {
	Key   string
	Node  string
	Msg   string
	Cause error
}

func (e *NotConfigurableError) Error() string {
	return fmt.Sprintf("not configurable: %s", e.Msg)
}
func (e *NotConfigurableError) Kind() string    { return "NotConfigurable" }
func (e *NotConfigurableError) Message() string { return e.Msg }
func (e *NotConfigurableError) Unwrap() error   { return e.Cause }
func (e *NotConfigurableError) CausedBy(cause error) *NotConfigurableError {
	e.Cause = cause
	return e
}

// InvalidParentError reports a parent node that cannot serve as a delegation
// target, e.g. one belonging to a different store.
type InvalidParentError struct {
	Parent string
	Msg    string
	Cause  error
}

func (e *InvalidParentError) Error() string {
	return fmt.Sprintf("invalid parent: %s", e.Msg)
}
func (e *InvalidParentError) Kind() string    { return "InvalidParent" }
func (e *InvalidParentError) Message() string { return e.Msg }
func (e *InvalidParentError) Unwrap() error   { return e.Cause }
func (e *InvalidParentError) CausedBy(cause error) *InvalidParentError {
	e.Cause = cause
	return e
}
