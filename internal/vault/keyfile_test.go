package vault

import (
	"encoding/base64"
	"encoding/hex"
	"path/filepath"
	"testing"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	k1, err := DeriveKey("correct-horse-battery-staple")
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	k2, err := DeriveKey("correct-horse-battery-staple")
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	if string(k1) != string(k2) {
		t.Error("DeriveKey is not deterministic for the same passphrase")
	}
	if len(k1) != vaultKeyLen {
		t.Errorf("DeriveKey returned %d bytes, want %d", len(k1), vaultKeyLen)
	}
}

func TestDeriveKey_DifferentPassphrasesDiffer(t *testing.T) {
	k1, _ := DeriveKey("passphrase-one")
	k2, _ := DeriveKey("passphrase-two")
	if string(k1) == string(k2) {
		t.Error("DeriveKey produced the same key for different passphrases")
	}
}

func TestDeriveKey_RejectsEmpty(t *testing.T) {
	if _, err := DeriveKey(""); err == nil {
		t.Error("DeriveKey(\"\") should return an error")
	}
}

func TestEncryptDecryptValue_RoundTrip(t *testing.T) {
	key, err := DeriveKey("test-passphrase")
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}

	enc, err := encryptValue(key, "sk-live-abcdef123456")
	if err != nil {
		t.Fatalf("encryptValue: %v", err)
	}
	got, err := decryptValue(key, enc)
	if err != nil {
		t.Fatalf("decryptValue: %v", err)
	}
	if got != "sk-live-abcdef123456" {
		t.Errorf("round trip = %q, want sk-live-abcdef123456", got)
	}
}

func TestDecryptValue_WrongKeyFails(t *testing.T) {
	key, _ := DeriveKey("correct-passphrase")
	wrongKey, _ := DeriveKey("wrong-passphrase")

	enc, err := encryptValue(key, "top-secret")
	if err != nil {
		t.Fatalf("encryptValue: %v", err)
	}
	if _, err := decryptValue(wrongKey, enc); err == nil {
		t.Error("decryptValue should fail when given the wrong key")
	}
}

func TestSaveLoadEncryptedFile_RoundTrip(t *testing.T) {
	key, err := DeriveKey("file-test-passphrase")
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}

	entries := []Entry{
		{Name: "API_KEY", Value: "sk-live-abcdef123456"},
		{Name: "DB_PASSWORD", Value: "hunter2"},
	}

	path := filepath.Join(t.TempDir(), "vault.json")
	if err := SaveEncryptedFile(path, entries, key); err != nil {
		t.Fatalf("SaveEncryptedFile: %v", err)
	}

	got, err := LoadEncryptedFile(path, key)
	if err != nil {
		t.Fatalf("LoadEncryptedFile: %v", err)
	}
	if len(got) != len(entries) {
		t.Fatalf("got %d entries, want %d", len(got), len(entries))
	}
	for i, e := range entries {
		if got[i].Name != e.Name || got[i].Value != e.Value {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], e)
		}
	}
}

func TestLoadEncryptedFile_WrongKeyFails(t *testing.T) {
	key, _ := DeriveKey("file-passphrase")
	wrongKey, _ := DeriveKey("not-the-right-one")

	entries := []Entry{{Name: "API_KEY", Value: "sk-live-abcdef123456"}}
	path := filepath.Join(t.TempDir(), "vault.json")
	if err := SaveEncryptedFile(path, entries, key); err != nil {
		t.Fatalf("SaveEncryptedFile: %v", err)
	}

	if _, err := LoadEncryptedFile(path, wrongKey); err == nil {
		t.Error("LoadEncryptedFile should fail when given the wrong key")
	}
}

func TestDecryptValue_LegacyHexFormat(t *testing.T) {
	key, err := DeriveKey("legacy-test-passphrase")
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}

	// Build a legacy-format ciphertext the same way decryptLegacyHex
	// expects to find it: hex(iv) + ":" + hex(ciphertext||tag).
	enc, err := encryptValue(key, "legacy-secret")
	if err != nil {
		t.Fatalf("encryptValue: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	legacy := hex.EncodeToString(raw[:gcmNonceSize]) + ":" + hex.EncodeToString(raw[gcmNonceSize:])

	got, err := decryptValue(key, legacy)
	if err != nil {
		t.Fatalf("decryptValue(legacy): %v", err)
	}
	if got != "legacy-secret" {
		t.Errorf("legacy round trip = %q, want legacy-secret", got)
	}
}
