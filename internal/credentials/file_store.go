package credentials

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore keeps every credential record in one JSON document. Each call
// re-reads the whole document; mutations rewrite it through a temp file and a
// rename while holding an exclusive lock on <path>.lock.
type FileStore struct {
	path   string
	hasher Hasher
	now    func() time.Time
	mu     sync.Mutex
}

func NewFileStore(path string, hasher Hasher) (*FileStore, error) {
	if hasher == nil {
		hasher = SHA256Hasher{}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	// Touch file if not exists
	f, err := os.OpenFile(path, os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("touch file: %w", err)
	}
	_ = f.Close()
	return &FileStore{path: path, hasher: hasher, now: time.Now}, nil
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Register(ctx context.Context, username, password string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := lockFile(s.path+".lock", true)
	if err != nil {
		return fmt.Errorf("lock store: %w", err)
	}
	defer unlock()

	records, err := s.loadUnlocked()
	if err != nil {
		return err
	}
	if _, ok := records[username]; ok {
		return ErrAlreadyExists
	}
	hash, salt, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	rec := Record{
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
		Salt:         salt,
	}
	if s.hasher.Name() != AlgorithmSHA256 {
		rec.Algorithm = s.hasher.Name()
	}
	records[username] = rec
	if err := s.saveUnlocked(records); err != nil {
		return fmt.Errorf("persist store: %w", err)
	}
	return nil
}

func (s *FileStore) Authenticate(ctx context.Context, username, password string) error {
	rec, err := s.Get(ctx, username)
	if err != nil {
		return err
	}
	h, err := HasherFor(rec.algorithm())
	if err != nil {
		return err
	}
	if !h.Verify(password, rec.PasswordHash, rec.Salt) {
		return ErrWrongPassword
	}
	return nil
}

func (s *FileStore) Get(ctx context.Context, username string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := lockFile(s.path+".lock", false)
	if err != nil {
		return Record{}, fmt.Errorf("lock store: %w", err)
	}
	defer unlock()

	records, err := s.loadUnlocked()
	if err != nil {
		return Record{}, err
	}
	rec, ok := records[username]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// Import adds sha256 records for usernames that are not stored yet and
// reports how many were added. Existing records are left untouched.
func (s *FileStore) Import(ctx context.Context, legacy map[string]string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(legacy) == 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := lockFile(s.path+".lock", true)
	if err != nil {
		return 0, fmt.Errorf("lock store: %w", err)
	}
	defer unlock()

	records, err := s.loadUnlocked()
	if err != nil {
		return 0, err
	}
	added := 0
	now := s.now().UTC()
	for username, hash := range legacy {
		if username == "" || hash == "" {
			continue
		}
		if _, ok := records[username]; ok {
			continue
		}
		records[username] = Record{Username: username, PasswordHash: hash, CreatedAt: now}
		added++
	}
	if added == 0 {
		return 0, nil
	}
	if err := s.saveUnlocked(records); err != nil {
		return 0, fmt.Errorf("persist store: %w", err)
	}
	return added, nil
}

func (s *FileStore) loadUnlocked() (map[string]Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]Record{}, nil
		}
		return nil, fmt.Errorf("read store: %w", err)
	}
	records := map[string]Record{}
	if len(bytes.TrimSpace(data)) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode store %s: %w", s.path, err)
	}
	for name, rec := range records {
		rec.Username = name
		records[name] = rec
	}
	return records, nil
}

func (s *FileStore) saveUnlocked(records map[string]Record) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}
