package siteerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorIs(t *testing.T) {
	err := New(KindTenantNotFound, "no tenant for example.com")
	if !errors.Is(err, ErrTenantNotFound) {
		t.Error("expected errors.Is to match by kind")
	}
	if errors.Is(err, ErrWebsiteDisabled) {
		t.Error("different kinds must not match")
	}

	wrapped := fmt.Errorf("assemble: %w", err)
	if !errors.Is(wrapped, ErrTenantNotFound) {
		t.Error("expected match through fmt.Errorf wrapping")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"plain error", errors.New("boom"), ""},
		{"direct", ErrPublishConflict, KindPublishConflict},
		{"wrapped", fmt.Errorf("x: %w", Wrap(KindConfigLoadFailed, "fetch", errors.New("eof"))), KindConfigLoadFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := Wrap(KindConfigLoadFailed, "fetch site config", errors.New("connection refused"))
	if got := err.Error(); got != "fetch site config: connection refused" {
		t.Errorf("unexpected message %q", got)
	}
	if !errors.Is(err, err.Err) {
		t.Error("expected Unwrap to expose cause")
	}
}
