package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// keyFileSalt is the fixed scrypt salt used for deriving a vault key from
// an environment-provided passphrase. It is not a secret: scrypt's
// strength here comes from the passphrase entropy and the work factor, not
// salt secrecy. Using a fixed salt lets a host re-derive the same key on
// every process start without persisting one separately.
var keyFileSalt = []byte("agentfirewall-vault-keyfile-v1")

const (
	scryptN      = 16384
	scryptR      = 8
	scryptP      = 1
	vaultKeyLen  = 32
	gcmNonceSize = 12
)

// DeriveKey derives a 32-byte AES-256 key from a passphrase (normally read
// by the caller from an environment variable) using scrypt with the same
// cost parameters the teacher's account-credential store uses.
func DeriveKey(passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, errors.New("vault: passphrase must not be empty")
	}
	return scrypt.Key([]byte(passphrase), keyFileSalt, scryptN, scryptR, scryptP, vaultKeyLen)
}

// encryptedEntry is the on-disk JSON shape for one vault entry: the
// placeholder name in plaintext (it is not secret) and the value
// encrypted under the vault key.
type encryptedEntry struct {
	Name           string `json:"name"`
	EncryptedValue string `json:"encryptedValue"`
}

// SaveEncryptedFile writes entries to path as JSON, with every value
// encrypted under key using AES-256-GCM. The format is
// base64(nonce || ciphertext || tag), matching the teacher's at-rest
// credential encoding.
func SaveEncryptedFile(path string, entries []Entry, key []byte) error {
	out := make([]encryptedEntry, 0, len(entries))
	for _, e := range entries {
		enc, err := encryptValue(key, e.Value)
		if err != nil {
			return fmt.Errorf("vault: encrypting %q: %w", e.Name, err)
		}
		out = append(out, encryptedEntry{Name: e.Name, EncryptedValue: enc})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("vault: marshaling key file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("vault: writing key file: %w", err)
	}
	return nil
}

// LoadEncryptedFile reads and decrypts a vault key file written by
// SaveEncryptedFile, returning entries in file order.
func LoadEncryptedFile(path string, key []byte) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("vault: reading key file: %w", err)
	}

	var raw []encryptedEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("vault: parsing key file: %w", err)
	}

	entries := make([]Entry, 0, len(raw))
	for _, r := range raw {
		val, err := decryptValue(key, r.EncryptedValue)
		if err != nil {
			return nil, fmt.Errorf("vault: decrypting %q: %w", r.Name, err)
		}
		entries = append(entries, Entry{Name: r.Name, Value: val})
	}
	return entries, nil
}

func encryptValue(key []byte, plaintext string) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcmNonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(append(nonce, sealed...)), nil
}

func decryptValue(key []byte, encoded string) (string, error) {
	// Legacy hex "iv:ciphertext" form, kept for compatibility with key
	// files produced by older tooling that predates the base64 format.
	if strings.Contains(encoded, ":") {
		return decryptLegacyHex(key, encoded)
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("invalid base64: %w", err)
	}
	if len(raw) < gcmNonceSize {
		return "", errors.New("ciphertext too short")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce, sealed := raw[:gcmNonceSize], raw[gcmNonceSize:]
	plain, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("decryption failed: %w", err)
	}
	return string(plain), nil
}

func decryptLegacyHex(key []byte, encoded string) (string, error) {
	parts := strings.SplitN(encoded, ":", 2)
	if len(parts) != 2 {
		return "", errors.New("malformed legacy ciphertext")
	}
	ivHex, cipherHex := parts[0], parts[1]

	iv, err := hex.DecodeString(ivHex)
	if err != nil {
		return "", fmt.Errorf("invalid legacy iv: %w", err)
	}
	ciphertext, err := hex.DecodeString(cipherHex)
	if err != nil {
		return "", fmt.Errorf("invalid legacy ciphertext: %w", err)
	}
	if len(iv) != gcmNonceSize {
		return "", errors.New("invalid legacy iv length")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	plain, err := gcm.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("legacy decryption failed: %w", err)
	}
	return string(plain), nil
}
