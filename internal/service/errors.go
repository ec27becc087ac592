package service

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError reports malformed or missing input, keyed by field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + joinFields(e.Fields)
}

// ConflictError reports unique fields that are already taken.
type ConflictError struct {
	Fields map[string]string
}

func (e *ConflictError) Error() string {
	return "conflict: " + joinFields(e.Fields)
}

// AuthenticationError means the caller could not be identified.
type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string {
	return e.Reason
}

// StorageError wraps a failed object storage call.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func joinFields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fields[k])
	}
	return strings.Join(parts, "; ")
}
