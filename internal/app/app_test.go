package app

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunReturnsFirstModuleError(t *testing.T) {
	wantErr := errors.New("boom")
	blocking := ModuleFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	failing := ModuleFunc(func(ctx context.Context) error {
		return wantErr
	})

	a := New(WithModules(blocking, failing))
	err := a.Run(context.Background())
	if !errors.Is(err, wantErr) {
		t.Fatalf("got %v, want %v", err, wantErr)
	}
}

func TestRunCancelsRemainingModulesOnFailure(t *testing.T) {
	cancelled := make(chan struct{})
	blocking := ModuleFunc(func(ctx context.Context) error {
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	})
	failing := ModuleFunc(func(ctx context.Context) error {
		return errors.New("boom")
	})

	a := New(WithModules(blocking, failing))
	_ = a.Run(context.Background())

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("expected the blocking module to be cancelled")
	}
}

func TestRunReturnsNilWhenAllModulesSucceed(t *testing.T) {
	a := New(WithModules(
		ModuleFunc(func(ctx context.Context) error { return nil }),
		ModuleFunc(func(ctx context.Context) error { return nil }),
	))
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
