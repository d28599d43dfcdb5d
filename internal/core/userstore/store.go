// Package userstore persists user credentials and per-user download
// history in a single JSON file.
package userstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Sentinel errors returned by Register and Login. The messages are part of
// the API contract: clients display them verbatim.
var (
	ErrMissingField  = errors.New("Missing username or password")
	ErrUsernameTaken = errors.New("Username already exists")
	ErrUnknownUser   = errors.New("Invalid username")
	ErrWrongPassword = errors.New("Invalid password")
)

// StorageError wraps I/O or decode failures on the backing file.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("userstore: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// User is a single stored record. The "password" key holds the bcrypt
// hash, never the plaintext.
type User struct {
	PasswordHash string   `json:"password"`
	Downloads    []string `json:"downloads"`
}

// Store is a file-backed username -> User mapping. All mutations run
// under one mutex covering the full load-mutate-flush cycle, so
// concurrent writers cannot clobber each other's updates.
type Store struct {
	path string

	mu    sync.Mutex
	users map[string]*User
}

// Open loads the store at path, creating an empty file if none exists.
func Open(path string) (*Store, error) {
	s := &Store{
		path:  path,
		users: make(map[string]*User),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if err := s.flush(); err != nil {
			return nil, err
		}
		return s, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "read", Err: err}
	}

	if err := json.Unmarshal(data, &s.users); err != nil {
		return nil, &StorageError{Op: "parse", Err: err}
	}
	return s, nil
}

// Register creates a new user with a bcrypt-hashed password.
func (s *Store) Register(username, password string) error {
	if username == "" || password == "" {
		return ErrMissingField
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[username]; ok {
		return ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return &StorageError{Op: "hash", Err: err}
	}

	s.users[username] = &User{
		PasswordHash: string(hash),
		Downloads:    []string{},
	}
	return s.flush()
}

// Login verifies the password against the stored hash. No session state
// is created; callers re-authenticate on every privileged action.
func (s *Store) Login(username, password string) error {
	if username == "" || password == "" {
		return ErrMissingField
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return ErrUnknownUser
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return ErrWrongPassword
	}
	return nil
}

// RecordDownload appends url to the user's history. Unknown usernames are
// a silent no-op, not an error. Duplicate URLs are allowed.
func (s *Store) RecordDownload(username, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return nil
	}
	user.Downloads = append(user.Downloads, url)
	return s.flush()
}

// Downloads returns a copy of the user's download history and whether the
// username exists.
func (s *Store) Downloads(username string) ([]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return nil, false
	}
	out := make([]string, len(user.Downloads))
	copy(out, user.Downloads)
	return out, true
}

// flush rewrites the whole file. Callers must hold s.mu (Open is the one
// exception, before the store is shared).
func (s *Store) flush() error {
	data, err := json.MarshalIndent(s.users, "", "    ")
	if err != nil {
		return &StorageError{Op: "encode", Err: err}
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return &StorageError{Op: "write", Err: err}
	}
	return nil
}
