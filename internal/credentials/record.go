package credentials

import (
	"errors"
	"time"
)

var (
	ErrAlreadyExists = errors.New("user already exists")
	ErrNotFound      = errors.New("user not found")
	ErrWrongPassword = errors.New("wrong password")
)

// Record is a single stored account. The JSON layout matches the flat
// username -> {password_hash, created_at} document; Algorithm and Salt are
// omitted for legacy sha256 records.
type Record struct {
	Username     string    `json:"-"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
	Algorithm    string    `json:"algorithm,omitempty"`
	Salt         string    `json:"salt,omitempty"`
}

func (r Record) algorithm() string {
	if r.Algorithm == "" {
		return AlgorithmSHA256
	}
	return r.Algorithm
}
