package ai

import (
	"errors"
	"fmt"
)

var (
	ErrNoAPIKey      = errors.New("ai: no API key configured")
	ErrEmptyResponse = errors.New("ai: backend returned an empty response")
)

// CategoryInfo is the classifier's guess for one bookmark.
type CategoryInfo struct {
	MainCategory string  `json:"mainCategory"`
	SubCategory  string  `json:"subCategory,omitempty"` // empty = none
	Confidence   float64 `json:"confidence"`
	Reason       string  `json:"reason"`
}

// BackendError is a transport or HTTP failure reported by the backend.
type BackendError struct {
	StatusCode int // 0 for transport failures
	Message    string
	Err        error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("ai request failed: %s", e.Message)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
