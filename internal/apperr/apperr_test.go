package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: 0},
		{name: "cancelled", err: ErrCancelled, want: 0},
		{name: "wrapped cancelled", err: fmt.Errorf("picker: %w", ErrCancelled), want: 0},
		{name: "user", err: Userf("bad value %d", 3), want: 2},
		{name: "wrapped user", err: fmt.Errorf("search: %w", User("nope")), want: 2},
		{name: "other", err: errors.New("disk full"), want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Fatalf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWithHint(t *testing.T) {
	err := WithHint(User("unknown trainer \"x\""), "expected ultralytics|command|dummy")
	if got, want := err.Error(), `unknown trainer "x" (expected ultralytics|command|dummy)`; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	plain := errors.New("io")
	if WithHint(plain, "ignored") != plain {
		t.Fatalf("non-user errors must pass through unchanged")
	}
}
