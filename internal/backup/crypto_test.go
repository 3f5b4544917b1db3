package backup

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDeriveKey(t *testing.T) {
	salt := []byte("1234567890abcdef")

	key1 := DeriveKey("mypassphrase", salt)
	key2 := DeriveKey("mypassphrase", salt)
	if !bytes.Equal(key1, key2) {
		t.Error("same passphrase+salt should produce same key")
	}
	if len(key1) != keySize {
		t.Errorf("key length = %d, want %d", len(key1), keySize)
	}
	if bytes.Equal(key1, DeriveKey("other", salt)) {
		t.Error("different passphrases should produce different keys")
	}
}

func TestEncryptDecrypt(t *testing.T) {
	original := []byte("SQLite format 3\x00 chores and assignees")

	sealed, err := Encrypt(original, "pass")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if len(sealed) <= saltSize+nonceSize || bytes.Contains(sealed, original) {
		t.Fatal("ciphertext should not contain the plaintext")
	}

	again, _ := Encrypt(original, "pass")
	if bytes.Equal(sealed[:saltSize], again[:saltSize]) {
		t.Error("each encryption should use a fresh salt")
	}

	got, err := Decrypt(sealed, "pass")
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(got, original) {
		t.Errorf("decrypted %q, want %q", got, original)
	}
}

func TestDecryptFailures(t *testing.T) {
	sealed, err := Encrypt([]byte("secret data"), "correct")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	if _, err := Decrypt(sealed, "wrong"); err == nil {
		t.Error("expected error with wrong passphrase")
	}

	tampered := bytes.Clone(sealed)
	tampered[saltSize+nonceSize+1] ^= 0xFF
	if _, err := Decrypt(tampered, "correct"); err == nil {
		t.Error("expected error with tampered ciphertext")
	}

	if _, err := Decrypt([]byte("too short"), "correct"); !errors.Is(err, ErrTooShort) {
		t.Errorf("err = %v, want ErrTooShort", err)
	}
}

func TestEncryptEmpty(t *testing.T) {
	sealed, err := Encrypt(nil, "pass")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	got, err := Decrypt(sealed, "pass")
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d bytes, want 0", len(got))
	}
}

func TestDecryptFile(t *testing.T) {
	dir := t.TempDir()
	encPath := filepath.Join(dir, "backup.db.enc")
	decPath := filepath.Join(dir, "restored.db")

	sealed, _ := Encrypt([]byte("db bytes"), "pass")
	if err := os.WriteFile(encPath, sealed, 0600); err != nil {
		t.Fatal(err)
	}
	if err := DecryptFile(encPath, decPath, "pass"); err != nil {
		t.Fatalf("decrypt file: %v", err)
	}
	got, _ := os.ReadFile(decPath)
	if string(got) != "db bytes" {
		t.Errorf("restored %q", got)
	}
	if err := DecryptFile(filepath.Join(dir, "missing"), decPath, "pass"); err == nil {
		t.Error("expected error for missing file")
	}
}
