package confidential

import (
	"context"
	"errors"
	"testing"
)

func TestVaultWrapCombineReveal(t *testing.T) {
	ctx := context.Background()
	v := NewVault()

	a, err := v.Wrap(ctx, 3)
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	b, err := v.Wrap(ctx, 4)
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	if a == b {
		t.Fatalf("handles should be distinct")
	}
	sum, err := v.Combine(ctx, a, b)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	got, err := v.Reveal(ctx, sum)
	if err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	if got != 7 {
		t.Fatalf("sum: want=7 got=%d", got)
	}
}

func TestVaultUnknownHandle(t *testing.T) {
	ctx := context.Background()
	v := NewVault()
	a, _ := v.Wrap(ctx, 1)

	if _, err := v.Combine(ctx, a, Handle("nope")); !errors.Is(err, ErrUnknownHandle) {
		t.Fatalf("Combine unknown: want ErrUnknownHandle got=%v", err)
	}
	if err := v.Authorize(ctx, Handle("nope"), "alice"); !errors.Is(err, ErrUnknownHandle) {
		t.Fatalf("Authorize unknown: want ErrUnknownHandle got=%v", err)
	}
}

func TestVaultAuthorize(t *testing.T) {
	ctx := context.Background()
	v := NewVault()
	h, _ := v.Wrap(ctx, 10)
	if v.Authorized(h, "alice") {
		t.Fatalf("alice should not be authorized yet")
	}
	if err := v.Authorize(ctx, h, "alice"); err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if !v.Authorized(h, "alice") {
		t.Fatalf("alice should be authorized")
	}
}
