package client

import (
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		want       ErrorClass
	}{
		{"bad request", http.StatusBadRequest, ErrorClassClient},
		{"unauthorized", http.StatusUnauthorized, ErrorClassClient},
		{"not found", http.StatusNotFound, ErrorClassClient},
		{"too many requests", http.StatusTooManyRequests, ErrorClassRateLimit},
		{"internal server error", http.StatusInternalServerError, ErrorClassServer},
		{"bad gateway", http.StatusBadGateway, ErrorClassServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyStatus(tt.statusCode); got != tt.want {
				t.Errorf("classifyStatus(%d) = %q, want %q", tt.statusCode, got, tt.want)
			}
		})
	}
}

func TestAPIError_Error(t *testing.T) {
	err := &APIError{
		StatusCode: 500,
		ErrorClass: ErrorClassServer,
		Message:    "500 Internal Server Error",
	}

	msg := err.Error()
	if !strings.Contains(msg, "server") {
		t.Errorf("Error message %q should contain the error class", msg)
	}
	if !strings.Contains(msg, "500") {
		t.Errorf("Error message %q should contain the status code", msg)
	}
}

func TestAPIError_Unwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := &APIError{
		ErrorClass: ErrorClassNetwork,
		Message:    "request failed",
		Err:        inner,
	}

	if !errors.Is(err, inner) {
		t.Error("errors.Is should reach the wrapped error")
	}

	var apiErr *APIError
	if !errors.As(error(err), &apiErr) {
		t.Error("errors.As should match *APIError")
	}
}
