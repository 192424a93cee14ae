package crypto

import (
	"bytes"
	"strings"
	"testing"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestSealOpen(t *testing.T) {
	s, err := New(testKey)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	plain := []byte("%PDF-1.3 slip")

	sealed, err := s.Seal("c1.pdf", plain)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if bytes.Contains(sealed, plain) {
		t.Fatal("sealed output leaks plaintext")
	}
	opened, err := s.Open("c1.pdf", sealed)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !bytes.Equal(opened, plain) {
		t.Fatalf("round trip mismatch: %q", opened)
	}
	if _, err := s.Open("c2.pdf", sealed); err == nil {
		t.Fatal("expected failure when the name does not match")
	}
}

func TestSealerWithoutKey(t *testing.T) {
	s, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := s.Seal("backup.json", []byte("{}"))
	if err != nil || string(out) != "{}" {
		t.Fatalf("expected passthrough, got %q, %v", out, err)
	}

	keyed, _ := New(testKey)
	sealed, _ := keyed.Seal("backup.json", []byte("{}"))
	if _, err := s.Open("backup.json", sealed); err == nil || !strings.Contains(err.Error(), "DATA_ENCRYPTION_KEY") {
		t.Fatalf("expected missing key error, got %v", err)
	}
}

func TestNewRejectsShortKey(t *testing.T) {
	if _, err := New("too-short"); err == nil {
		t.Fatal("expected key length error")
	}
}
