package main

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"
)

const (
	maxUsernameLen = 64

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

func hashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

// verifyPassword recomputes the hash with the parameters stored alongside
// it, so old hashes keep verifying after the defaults change.
func verifyPassword(password, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, fmt.Errorf("malformed password hash")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, fmt.Errorf("malformed hash version: %w", err)
	}
	if version != argon2.Version {
		return false, fmt.Errorf("unsupported argon2 version %d", version)
	}

	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false, fmt.Errorf("malformed hash parameters: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("malformed hash salt: %w", err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("malformed hash key: %w", err)
	}

	got := argon2.IDKey([]byte(password), salt, iterations, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

// authenticate resolves the request's bearer token to a username. Malformed
// and unknown tokens are the same errUnauthorized; sessions have no expiry
// and stay valid until revoked by logout.
func (s *server) authenticate(r *http.Request) (string, error) {
	token := bearerToken(r)
	if token == "" {
		return "", errUnauthorized
	}
	if _, err := uuid.Parse(token); err != nil {
		return "", errUnauthorized
	}
	return s.store.findSessionOwner(token)
}

// createAccount registers a username and immediately mints a session, so
// registration doubles as login. Duplicate usernames are errConflict; the
// existence pre-check only shortcuts the common case, the insert itself is
// what settles races.
func (s *server) createAccount(username, password string) (string, error) {
	if username == "" || len(username) > maxUsernameLen {
		return "", fmt.Errorf("username must be 1-%d bytes: %w", maxUsernameLen, errBadRequest)
	}
	if password == "" {
		return "", fmt.Errorf("password is required: %w", errBadRequest)
	}

	taken, err := s.store.accountExists(username)
	if err != nil {
		return "", err
	}
	if taken {
		return "", fmt.Errorf("username taken: %w", errConflict)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return "", err
	}
	if err := s.store.insertAccount(username, hash); err != nil {
		return "", err
	}

	log.Printf("created account %q", username)
	return s.store.createSession(username)
}

// login verifies credentials and mints a fresh session. Unknown usernames
// and wrong passwords are indistinguishable to the caller.
func (s *server) login(username, password string) (string, error) {
	account, err := s.store.findAccount(username)
	if err != nil {
		return "", err
	}
	if account == nil {
		return "", errUnauthorized
	}

	ok, err := verifyPassword(password, account.PasswordHash)
	if err != nil {
		return "", fmt.Errorf("verify password for %q: %w", username, err)
	}
	if !ok {
		return "", errUnauthorized
	}

	return s.store.createSession(username)
}

func (s *server) logout(token string) error {
	if token == "" {
		return nil
	}
	return s.store.deleteSession(token)
}
