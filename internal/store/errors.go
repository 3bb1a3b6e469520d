// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package store

import (
	"errors"
	"fmt"
)

// Sentinel targets for errors.Is checks across the taxonomy.
var (
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrBadFormat         = errors.New("bad format")
	ErrStorageCorruption = errors.New("storage corruption")
)

// FormatError reports an import or sync payload that is missing its
// required array fields. The payload is rejected whole, never partially
// applied.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "store: invalid data format: " + e.Reason
}

func (e *FormatError) Is(target error) bool {
	return target == ErrBadFormat
}

// AuthError reports bad credentials against the remote bin API or the
// identity provider. The message is surfaced to the UI verbatim.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Is(target error) bool {
	return target == ErrUnauthorized
}

// AccessError reports a permission denial from the realtime document
// store. Hint carries a remediation suggestion for display, keeping the
// failure distinguishable from a generic one.
type AccessError struct {
	Message string
	Hint    string
}

func (e *AccessError) Error() string {
	if e.Hint != "" {
		return e.Message + ": " + e.Hint
	}
	return e.Message
}

func (e *AccessError) Is(target error) bool {
	return target == ErrPermissionDenied
}

// NotFoundError reports a referenced remote document that does not
// exist.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// RemoteServiceError reports a non-2xx or non-JSON response from the
// remote bin API. Message summarizes the status and, when available, a
// truncated raw body.
type RemoteServiceError struct {
	StatusCode int
	Message    string
}

func (e *RemoteServiceError) Error() string {
	return e.Message
}

// StorageCorruptionError reports malformed persisted JSON for a local
// collection. Recovering (or discarding) the data is the caller's
// decision, so the parse failure is never silently swallowed.
type StorageCorruptionError struct {
	Key string
	Err error
}

func (e *StorageCorruptionError) Error() string {
	return fmt.Sprintf("store: corrupt persisted data for %q: %v", e.Key, e.Err)
}

func (e *StorageCorruptionError) Unwrap() error {
	return e.Err
}

func (e *StorageCorruptionError) Is(target error) bool {
	return target == ErrStorageCorruption
}
