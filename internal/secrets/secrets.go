// Package secrets reads the local secrets file, a TOML document holding the
// AI service key and, optionally, hand-provisioned user password hashes:
//
//	[openai]
//	api_key = "sk-..."
//
//	[users]
//	alice = "<hex sha256 of the password>"
package secrets

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"

	"github.com/BurntSushi/toml"
)

type Secrets struct {
	OpenAI struct {
		APIKey string `toml:"api_key"`
	} `toml:"openai"`
	Users map[string]string `toml:"users"`
}

// Load reads path. A missing file yields empty secrets; a malformed one is an
// error.
func Load(path string) (*Secrets, error) {
	s := &Secrets{}
	if path == "" {
		return s, nil
	}
	if _, err := toml.DecodeFile(path, s); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Secrets{}, nil
		}
		return nil, fmt.Errorf("read secrets %s: %w", path, err)
	}
	return s, nil
}

// UserEntry renders the [users] snippet that provisions username with the
// given password hash.
func UserEntry(username, hash string) (string, error) {
	var buf bytes.Buffer
	doc := map[string]map[string]string{"users": {username: hash}}
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}
