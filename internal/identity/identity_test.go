package identity

import (
	"errors"
	"fmt"
	"testing"
)

func errorsAs(err error, target any) bool { return errors.As(err, target) }

func TestIsCode_Wrapped(t *testing.T) {
	err := fmt.Errorf("sign-up: %w", &ProviderError{Code: CodeMismatch, Message: "bad code"})
	if !IsCode(err, CodeMismatch) {
		t.Fatalf("expected wrapped provider error to match")
	}
	if IsCode(err, ExpiredCode) {
		t.Fatalf("unexpected match for a different code")
	}
	if IsCode(errors.New("plain"), CodeMismatch) {
		t.Fatalf("plain errors carry no code")
	}
}

func TestProviderError_Message(t *testing.T) {
	if got := (&ProviderError{Code: "X"}).Error(); got != "X" {
		t.Fatalf("got %q", got)
	}
	if got := (&ProviderError{Code: "X", Message: "m"}).Error(); got != "X: m" {
		t.Fatalf("got %q", got)
	}
}
