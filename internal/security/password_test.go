package security_test

import (
	"testing"

	"github.com/geocoder89/accounthub/internal/security"
	"golang.org/x/crypto/bcrypt"
)

func TestHasherHashIsNotPlaintextAndVerifies(t *testing.T) {
	h := security.NewHasher(bcrypt.MinCost)

	hash, err := h.Hash("pw123456")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if hash == "pw123456" {
		t.Fatal("hash equals plaintext")
	}

	if err := h.Check(hash, "pw123456"); err != nil {
		t.Fatalf("check: %v", err)
	}

	if err := h.Check(hash, "wrong"); err == nil {
		t.Fatal("expected mismatch for wrong password")
	}
}

func TestHasherIsSalted(t *testing.T) {
	h := security.NewHasher(bcrypt.MinCost)

	a, err := h.Hash("same-password")
	if err != nil {
		t.Fatalf("hash a: %v", err)
	}

	b, err := h.Hash("same-password")
	if err != nil {
		t.Fatalf("hash b: %v", err)
	}

	if a == b {
		t.Fatal("expected different hashes for the same plaintext")
	}
}

func TestNewHasherClampsCost(t *testing.T) {
	h := security.NewHasher(100)

	hash, err := h.Hash("pw")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("cost: %v", err)
	}

	if cost != bcrypt.DefaultCost {
		t.Fatalf("cost = %d, want %d", cost, bcrypt.DefaultCost)
	}
}
