package diagnostics

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorUnwrapsToKind(t *testing.T) {
	err := New(ErrTypeMismatch, "tuple.get", "slot %d is %s", 2, "float3")
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("errors.Is(%v, ErrTypeMismatch) = false", err)
	}
	if errors.Is(err, ErrOutOfRange) {
		t.Errorf("error should not match ErrOutOfRange")
	}
	want := "tuple.get: type mismatch: slot 2 is float3"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}

	wrapped := fmt.Errorf("evaluating: %w", err)
	if KindOf(wrapped) != ErrTypeMismatch {
		t.Errorf("KindOf(wrapped) = %v", KindOf(wrapped))
	}
	if KindOf(errors.New("other")) != nil {
		t.Errorf("KindOf(plain error) should be nil")
	}
}

func TestRecoverCatchesRaise(t *testing.T) {
	run := func() (err error) {
		defer Recover(&err)
		Raise(ErrStackOverflow, "eval.write", "slot %d", 4095)
		return nil
	}
	err := run()
	if !errors.Is(err, ErrStackOverflow) {
		t.Fatalf("expected stack overflow, got %v", err)
	}
}

func TestRecoverRepanicsForeignValues(t *testing.T) {
	defer func() {
		if r := recover(); r != "boom" {
			t.Errorf("recovered %v, want boom", r)
		}
	}()
	func() {
		var err error
		defer Recover(&err)
		panic("boom")
	}()
	t.Fatal("foreign panic was swallowed")
}
