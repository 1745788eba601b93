package models

import (
	"sort"
	"strings"
)

type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Errors  FieldErrors `json:"errors,omitempty"`
}

// FieldErrors maps a form field to the message shown next to it.
type FieldErrors map[string]string

// ValidationError is returned by Validate methods when a payload is rejected
// before it reaches the backend.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Err returns nil when no field failed.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}

func (f FieldErrors) Require(field, value, message string) {
	if strings.TrimSpace(value) == "" {
		f[field] = message
	}
}

// Pagination mirrors the backend pagination block.
type Pagination struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	TotalItems  int `json:"totalItems,omitempty"`
}
