package credentials

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	AlgorithmSHA256   = "sha256"
	AlgorithmArgon2ID = "argon2id"
)

// Hasher turns a plaintext password into a stored digest and checks it back.
type Hasher interface {
	Name() string
	Hash(password string) (hash, salt string, err error)
	Verify(password, hash, salt string) bool
}

// SHA256Hasher is the unsalted hex(SHA-256) format. It is kept as the default
// so stores written by earlier versions keep working.
type SHA256Hasher struct{}

func (SHA256Hasher) Name() string { return AlgorithmSHA256 }

func (SHA256Hasher) Hash(password string) (string, string, error) {
	return HashSHA256(password), "", nil
}

func (SHA256Hasher) Verify(password, hash, _ string) bool {
	return subtle.ConstantTimeCompare([]byte(HashSHA256(password)), []byte(hash)) == 1
}

// HashSHA256 returns the lowercase hex SHA-256 digest of the UTF-8 password.
func HashSHA256(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// Argon2Hasher derives a per-record salted key with argon2id.
type Argon2Hasher struct{}

const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

func (Argon2Hasher) Name() string { return AlgorithmArgon2ID }

func (Argon2Hasher) Hash(password string) (string, string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", "", fmt.Errorf("generate salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return hex.EncodeToString(key), hex.EncodeToString(salt), nil
}

func (Argon2Hasher) Verify(password, hash, salt string) bool {
	rawSalt, err := hex.DecodeString(salt)
	if err != nil || len(rawSalt) == 0 {
		return false
	}
	want, err := hex.DecodeString(hash)
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(password), rawSalt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return subtle.ConstantTimeCompare(got, want) == 1
}

// HasherFor maps a configured algorithm name to its Hasher. An empty name
// selects sha256.
func HasherFor(name string) (Hasher, error) {
	switch name {
	case "", AlgorithmSHA256:
		return SHA256Hasher{}, nil
	case AlgorithmArgon2ID:
		return Argon2Hasher{}, nil
	default:
		return nil, fmt.Errorf("unknown password hash algorithm: %s", name)
	}
}
