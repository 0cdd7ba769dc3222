package errors

import (
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "without cause",
			err:  New(TypeInput, "bad input"),
			want: "[INPUT_ERROR] bad input",
		},
		{
			name: "with cause",
			err:  Malformed("services.hcl", fmt.Errorf("unexpected token")),
			want: "[MALFORMED_DATA] malformed data in services.hcl: unexpected token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsTypeThroughWrapping(t *testing.T) {
	base := UnknownService("quantum_db")
	wrapped := fmt.Errorf("placing service: %w", base)

	if !IsType(wrapped, TypeUnknownService) {
		t.Error("expected wrapped error to match TypeUnknownService")
	}
	if IsType(wrapped, TypeNotFound) {
		t.Error("wrapped error should not match TypeNotFound")
	}
	if got := TypeOf(fmt.Errorf("plain")); got != TypeInternal {
		t.Errorf("TypeOf(plain) = %s, want %s", got, TypeInternal)
	}
	if base.Context["service_id"] != "quantum_db" {
		t.Errorf("expected service_id context, got %v", base.Context)
	}
}

func TestMessageOf(t *testing.T) {
	err := Wrap(TypeStorage, "saving progress", fmt.Errorf("disk full"))
	if got := MessageOf(err); got != "saving progress" {
		t.Errorf("MessageOf(domain) = %q", got)
	}
	if got := MessageOf(fmt.Errorf("plain")); got != "plain" {
		t.Errorf("MessageOf(plain) = %q", got)
	}
}
