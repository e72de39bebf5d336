package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)

	if _, ok, err := m.GetItem(ctx, "missing"); ok || err != nil {
		t.Fatalf("GetItem(missing) = ok %v, err %v", ok, err)
	}

	if err := m.SetItem(ctx, "k", "v1"); err != nil {
		t.Fatalf("SetItem: %v", err)
	}
	if err := m.SetItem(ctx, "k", "v2"); err != nil {
		t.Fatalf("SetItem overwrite: %v", err)
	}
	v, ok, err := m.GetItem(ctx, "k")
	if err != nil || !ok || v != "v2" {
		t.Errorf("GetItem = %q, %v, %v; want v2", v, ok, err)
	}

	if err := m.RemoveItem(ctx, "k"); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if err := m.RemoveItem(ctx, "k"); err != nil {
		t.Errorf("RemoveItem twice: %v", err)
	}
	if m.Len() != 0 {
		t.Errorf("Len = %d, want 0", m.Len())
	}
}

func TestMemoryQuota(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10)

	if err := m.SetItem(ctx, "ab", "12345678"); err != nil {
		t.Fatalf("SetItem at quota: %v", err)
	}
	if err := m.SetItem(ctx, "c", "1"); !errors.Is(err, ErrQuotaExceeded) {
		t.Errorf("SetItem over quota = %v, want ErrQuotaExceeded", err)
	}
	// Overwriting frees the old value first.
	if err := m.SetItem(ctx, "ab", "1234"); err != nil {
		t.Errorf("shrinking overwrite: %v", err)
	}
	if err := m.SetItem(ctx, "c", "1"); err != nil {
		t.Errorf("SetItem after shrink: %v", err)
	}

	big := strings.Repeat("x", 20)
	if err := m.SetItem(ctx, "ab", big); !errors.Is(err, ErrQuotaExceeded) {
		t.Errorf("oversized overwrite = %v, want ErrQuotaExceeded", err)
	}
	if v, _, _ := m.GetItem(ctx, "ab"); v != "1234" {
		t.Errorf("failed write replaced value: %q", v)
	}
}

func TestWithPrefixIsolatesSessions(t *testing.T) {
	ctx := context.Background()
	shared := NewMemory(0)
	a := WithPrefix(shared, "a:")
	b := WithPrefix(shared, "b:")

	_ = a.SetItem(ctx, "slot", "from-a")
	if _, ok, _ := b.GetItem(ctx, "slot"); ok {
		t.Error("prefix b saw prefix a's slot")
	}
	if v, ok, _ := shared.GetItem(ctx, "a:slot"); !ok || v != "from-a" {
		t.Errorf("underlying key = %q, %v", v, ok)
	}

	_ = b.SetItem(ctx, "slot", "from-b")
	_ = a.RemoveItem(ctx, "slot")
	if v, ok, _ := b.GetItem(ctx, "slot"); !ok || v != "from-b" {
		t.Errorf("removing a's slot affected b: %q, %v", v, ok)
	}
}
