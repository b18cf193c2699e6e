/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package faults defines the error taxonomy shared by all workflow
// components. Errors are classified by Kind and matched with errors.As, so
// wrapping with pkg/errors never hides the classification from callers.
package faults

import (
	"errors"
	"fmt"
)

// Kind classifies a workflow error for callers and the HTTP layer.
type Kind string

const (
	// KindNotFound indicates an unknown episode, escalation, or alert id.
	KindNotFound Kind = "NotFound"

	// KindPreconditionFailed indicates the record exists but is not in a
	// state that permits the operation (e.g. no triage assessment yet).
	KindPreconditionFailed Kind = "PreconditionFailed"

	// KindInvalidInput indicates a malformed or missing request field.
	KindInvalidInput Kind = "InvalidInput"

	// KindConflict indicates an optimistic-concurrency version mismatch.
	// Callers may retry the read-modify-write cycle.
	KindConflict Kind = "Conflict"

	// KindDependency indicates a store or bus failure. Surfaced to callers
	// as a generic internal error; the full cause is logged at the source.
	KindDependency Kind = "Dependency"
)

// Fault is a classified workflow error.
type Fault struct {
	Kind    Kind
	Message string
	Cause   error
}

func (f *Fault) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("%s: %v", f.Message, f.Cause)
	}
	return f.Message
}

// Unwrap exposes the underlying cause for errors.Is/errors.As chains.
func (f *Fault) Unwrap() error { return f.Cause }

// NotFound returns a KindNotFound fault for the given resource and id.
func NotFound(resource, id string) error {
	return &Fault{Kind: KindNotFound, Message: fmt.Sprintf("%s not found: %s", resource, id)}
}

// PreconditionFailed returns a KindPreconditionFailed fault.
func PreconditionFailed(message string) error {
	return &Fault{Kind: KindPreconditionFailed, Message: message}
}

// InvalidInput returns a KindInvalidInput fault.
func InvalidInput(message string) error {
	return &Fault{Kind: KindInvalidInput, Message: message}
}

// Conflict returns a KindConflict fault.
func Conflict(message string) error {
	return &Fault{Kind: KindConflict, Message: message}
}

// Dependency wraps a store/bus failure as a KindDependency fault.
func Dependency(message string, cause error) error {
	return &Fault{Kind: KindDependency, Message: message, Cause: cause}
}

// KindOf returns the Kind of err, or an empty Kind when err is not a Fault.
func KindOf(err error) Kind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}

// IsNotFound reports whether err is classified KindNotFound.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsPreconditionFailed reports whether err is classified KindPreconditionFailed.
func IsPreconditionFailed(err error) bool { return KindOf(err) == KindPreconditionFailed }

// IsInvalidInput reports whether err is classified KindInvalidInput.
func IsInvalidInput(err error) bool { return KindOf(err) == KindInvalidInput }

// IsConflict reports whether err is classified KindConflict.
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// IsDependency reports whether err is classified KindDependency.
func IsDependency(err error) bool { return KindOf(err) == KindDependency }
