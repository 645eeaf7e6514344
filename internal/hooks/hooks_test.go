package hooks

import (
	"context"
	"errors"
	"testing"
)

func TestRunMissingHookIsNoOp(t *testing.T) {
	r := NewRegistry()
	if err := r.Run(context.Background(), "sonarr", PostInstall, &Context{}); err != nil {
		t.Errorf("missing hook returned %v", err)
	}
}

func TestRunInvokesRegisteredHook(t *testing.T) {
	r := NewRegistry()
	var got *Context
	r.Register("sonarr", PostInstall, func(ctx context.Context, hc *Context) error {
		got = hc
		return nil
	})

	hc := &Context{AppName: "sonarr", ContainerAddress: "10.21.12.5"}
	if err := r.Run(context.Background(), "sonarr", PostInstall, hc); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got != hc {
		t.Error("hook did not receive the context")
	}
}

func TestRunReportsHookFailure(t *testing.T) {
	r := NewRegistry()
	boom := errors.New("api not ready")
	r.Register("sonarr", PostInstall, func(ctx context.Context, hc *Context) error {
		return boom
	})

	if err := r.Run(context.Background(), "sonarr", PostInstall, &Context{}); !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}

func TestRunHookGetsDeadline(t *testing.T) {
	r := NewRegistry()
	var hasDeadline bool
	r.Register("sonarr", PreStop, func(ctx context.Context, hc *Context) error {
		_, hasDeadline = ctx.Deadline()
		return nil
	})

	if err := r.Run(context.Background(), "sonarr", PreStop, &Context{}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !hasDeadline {
		t.Error("hook context has no deadline")
	}
}
