package notion

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is returned when a page or block cannot be resolved
var ErrNotFound = errors.New("not found")

// APIError is an error response from the Notion API
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("notion api: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("notion api: %s (status %d): %s", e.Code, e.Status, e.Message)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Unauthorized reports whether the token was rejected
func (e *APIError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}
