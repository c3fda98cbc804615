package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorHTTPStatusCode(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{ErrNotFound("contribution", "c1"), http.StatusNotFound},
		{ErrInvalidTransition(StatusCompleted, StatusActive), http.StatusUnprocessableEntity},
		{ErrValidation("giver and receiver must differ"), http.StatusUnprocessableEntity},
		{ErrUnauthorized("no identity"), http.StatusUnauthorized},
		{ErrSessionClosed("s1", SessionAgreed), http.StatusConflict},
		{ErrConflict("status moved"), http.StatusConflict},
		{ErrPersistence("write failed", errors.New("disk")), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		if got := tc.err.HTTPStatusCode(); got != tc.want {
			t.Errorf("%s: HTTPStatusCode() = %d, want %d", tc.err.Type, got, tc.want)
		}
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := ErrPersistence("update contribution", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}

	wrapped := fmt.Errorf("handler: %w", err)
	var de *Error
	if !errors.As(wrapped, &de) {
		t.Fatal("errors.As should find *Error through wrapping")
	}
	if de.Type != ErrorTypePersistence {
		t.Errorf("Type = %s, want %s", de.Type, ErrorTypePersistence)
	}
}

func TestAsError(t *testing.T) {
	typed := ErrValidation("bad mode")
	if got := AsError(fmt.Errorf("wrap: %w", typed)); got.Type != ErrorTypeValidation {
		t.Errorf("AsError(typed) type = %s, want %s", got.Type, ErrorTypeValidation)
	}

	plain := errors.New("mystery")
	if got := AsError(plain); got.Type != ErrorTypePersistence {
		t.Errorf("AsError(plain) type = %s, want %s", got.Type, ErrorTypePersistence)
	}
}
