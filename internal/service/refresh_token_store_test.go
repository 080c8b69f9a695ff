package service

import (
	"testing"
	"time"
)

func TestMemoryRefreshTokenStore(t *testing.T) {
	store := NewMemoryRefreshTokenStore()

	if err := store.Store("jti-1", "u1", time.Minute); err != nil {
		t.Fatalf("store: %v", err)
	}
	ok, err := store.Exists("jti-1")
	if err != nil || !ok {
		t.Fatalf("expected token to exist, ok=%v err=%v", ok, err)
	}

	if err := store.Revoke("jti-1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	ok, err = store.Exists("jti-1")
	if err != nil || ok {
		t.Fatalf("expected token revoked, ok=%v err=%v", ok, err)
	}
}

func TestMemoryRefreshTokenStoreExpiry(t *testing.T) {
	store := NewMemoryRefreshTokenStore()

	if err := store.Store("jti-1", "u1", -time.Second); err != nil {
		t.Fatalf("store: %v", err)
	}
	if ok, _ := store.Exists("jti-1"); ok {
		t.Fatalf("expected expired token to be absent")
	}
}

func TestMemoryRefreshTokenStoreIgnoresEmptyJTI(t *testing.T) {
	store := NewMemoryRefreshTokenStore()

	if err := store.Store("  ", "u1", time.Minute); err != nil {
		t.Fatalf("store: %v", err)
	}
	if ok, _ := store.Exists("  "); ok {
		t.Fatalf("expected empty jti not to be stored")
	}
}
