// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"maps"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/recipehub/internal/platform/apperr"
	"github.com/taibuivan/recipehub/internal/platform/mail"
	"github.com/taibuivan/recipehub/internal/platform/sec"
)

// # Clock

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (clock *testClock) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.now
}

func (clock *testClock) Advance(d time.Duration) {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	clock.now = clock.now.Add(d)
}

// # Users

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*User)}
}

func cloneUser(user *User) *User {
	clone := *user
	clone.NotificationPrefs = maps.Clone(user.NotificationPrefs)
	clone.PrivacySettings = maps.Clone(user.PrivacySettings)
	return &clone
}

func (repo *memUserRepo) Create(_ context.Context, user *User) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, existing := range repo.users {
		if existing.Email == user.Email {
			return apperr.DuplicateEmail()
		}
	}
	repo.users[user.ID] = cloneUser(user)
	return nil
}

func (repo *memUserRepo) FindByID(_ context.Context, id string) (*User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	user, ok := repo.users[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	return cloneUser(user), nil
}

func (repo *memUserRepo) FindActiveByEmail(_ context.Context, email string) (*User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, user := range repo.users {
		if user.Email == email && user.IsActive {
			return cloneUser(user), nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (repo *memUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, user := range repo.users {
		if user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (repo *memUserRepo) update(id string, fn func(user *User) bool) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	user, ok := repo.users[id]
	if !ok || !fn(user) {
		return apperr.NotFound("User")
	}
	return nil
}

func (repo *memUserRepo) UpdatePassword(_ context.Context, userID, hash string, at time.Time) error {
	return repo.update(userID, func(user *User) bool {
		user.PasswordHash = hash
		user.UpdatedAt = at
		return true
	})
}

func (repo *memUserRepo) TouchLastLogin(_ context.Context, userID string, at time.Time) error {
	return repo.update(userID, func(user *User) bool {
		user.LastLoginAt = &at
		return true
	})
}

func (repo *memUserRepo) MarkVerified(_ context.Context, userID string, at time.Time) error {
	return repo.update(userID, func(user *User) bool {
		user.IsVerified = true
		if user.EmailVerifiedAt == nil {
			user.EmailVerifiedAt = &at
		}
		return true
	})
}

func (repo *memUserRepo) Deactivate(_ context.Context, userID string, at time.Time) error {
	return repo.update(userID, func(user *User) bool {
		if !user.IsActive {
			return false
		}
		user.IsActive = false
		user.UpdatedAt = at
		return true
	})
}

func (repo *memUserRepo) Delete(_ context.Context, userID string) (bool, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	_, ok := repo.users[userID]
	delete(repo.users, userID)
	return ok, nil
}

func (repo *memUserRepo) UpdateNotificationPrefs(_ context.Context, userID string, prefs Preferences, at time.Time) error {
	return repo.update(userID, func(user *User) bool {
		user.NotificationPrefs = maps.Clone(prefs)
		user.UpdatedAt = at
		return true
	})
}

func (repo *memUserRepo) UpdatePrivacySettings(_ context.Context, userID string, settings Preferences, at time.Time) error {
	return repo.update(userID, func(user *User) bool {
		user.PrivacySettings = maps.Clone(settings)
		user.UpdatedAt = at
		return true
	})
}

// # Sessions

type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]*Session)}
}

func (repo *memSessionRepo) Create(_ context.Context, session *Session) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if _, ok := repo.sessions[session.TokenID]; ok {
		return apperr.DuplicateToken(errors.New("token id collision"))
	}
	clone := *session
	repo.sessions[session.TokenID] = &clone
	return nil
}

func (repo *memSessionRepo) FindByTokenID(_ context.Context, tokenID string) (*Session, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	session, ok := repo.sessions[tokenID]
	if !ok {
		return nil, apperr.NotFound("Session")
	}
	clone := *session
	return &clone, nil
}

func (repo *memSessionRepo) CheckAndTouch(_ context.Context, tokenID string, now time.Time) (bool, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	session, ok := repo.sessions[tokenID]
	if !ok || !session.ValidAt(now) {
		return false, nil
	}
	session.LastActivityAt = now
	return true, nil
}

func (repo *memSessionRepo) Revoke(_ context.Context, tokenID string) (bool, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	session, ok := repo.sessions[tokenID]
	if !ok || !session.IsActive {
		return false, nil
	}
	session.IsActive = false
	return true, nil
}

func (repo *memSessionRepo) RevokeAll(_ context.Context, userID string) (int64, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	var count int64
	for _, session := range repo.sessions {
		if session.UserID == userID && session.IsActive {
			session.IsActive = false
			count++
		}
	}
	return count, nil
}

func (repo *memSessionRepo) ListActive(_ context.Context, userID string, now time.Time) ([]Session, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	sessions := make([]Session, 0)
	for _, session := range repo.sessions {
		if session.UserID == userID && session.ValidAt(now) {
			sessions = append(sessions, *session)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastActivityAt.After(sessions[j].LastActivityAt)
	})
	return sessions, nil
}

func (repo *memSessionRepo) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	var count int64
	for tokenID, session := range repo.sessions {
		if session.ExpiresAt.Before(cutoff) {
			delete(repo.sessions, tokenID)
			count++
		}
	}
	return count, nil
}

func (repo *memSessionRepo) forUser(userID string) []Session {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	sessions := make([]Session, 0)
	for _, session := range repo.sessions {
		if session.UserID == userID {
			sessions = append(sessions, *session)
		}
	}
	return sessions
}

// # One-Time Tokens

type memTokenEntry struct {
	userID    string
	expiresAt time.Time
}

type memTokenRepo struct {
	mu      sync.Mutex
	clock   *testClock
	message string
	tokens  map[string]memTokenEntry
}

func newMemTokenRepo(clock *testClock, message string) *memTokenRepo {
	return &memTokenRepo{clock: clock, message: message, tokens: make(map[string]memTokenEntry)}
}

func (repo *memTokenRepo) Save(_ context.Context, token, userID string, ttl time.Duration) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.tokens[token] = memTokenEntry{userID: userID, expiresAt: repo.clock.Now().Add(ttl)}
	return nil
}

func (repo *memTokenRepo) Consume(_ context.Context, token string) (string, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	entry, ok := repo.tokens[token]
	delete(repo.tokens, token)
	if !ok || !repo.clock.Now().Before(entry.expiresAt) {
		return "", apperr.InvalidToken(repo.message)
	}
	return entry.userID, nil
}

// # Transactions & Mail

type passthroughTx struct{}

func (passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type recordingMailer struct {
	mu       sync.Mutex
	messages []mail.Message
}

func (mailer *recordingMailer) Send(_ context.Context, message mail.Message) error {
	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	mailer.messages = append(mailer.messages, message)
	return nil
}

func (mailer *recordingMailer) sent() []mail.Message {
	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	return append([]mail.Message(nil), mailer.messages...)
}

// # Fixture

var (
	signingKeyOnce sync.Once
	signingKey     *rsa.PrivateKey
	signingKeyErr  error
)

func testSigningKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	signingKeyOnce.Do(func() {
		signingKey, signingKeyErr = rsa.GenerateKey(rand.Reader, 2048)
	})
	require.NoError(t, signingKeyErr)
	return signingKey
}

type fixture struct {
	service  *Service
	clock    *testClock
	users    *memUserRepo
	sessions *memSessionRepo
	resets   *memTokenRepo
	verifies *memTokenRepo
	mailer   *recordingMailer
	tokens   *sec.TokenService
	metrics  *Metrics
}

type fixtureOption func(deps *Dependencies)

func newFixture(t *testing.T, options ...fixtureOption) *fixture {
	t.Helper()

	clock := newTestClock()
	f := &fixture{
		clock:    clock,
		users:    newMemUserRepo(),
		sessions: newMemSessionRepo(),
		resets:   newMemTokenRepo(clock, msgInvalidResetToken),
		verifies: newMemTokenRepo(clock, msgInvalidVerifyToken),
		mailer:   &recordingMailer{},
		tokens:   sec.NewTokenService(testSigningKey(t), "recipehub.test").WithClock(clock.Now),
		metrics:  NewMetrics(prometheus.NewRegistry()),
	}

	deps := Dependencies{
		Users:              f.users,
		Sessions:           f.sessions,
		ResetTokens:        f.resets,
		VerificationTokens: f.verifies,
		Tx:                 passthroughTx{},
		Hasher:             sec.NewHasher(4),
		Tokens:             f.tokens,
		Mailer:             f.mailer,
		AppBaseURL:         "https://recipehub.test/",
		Clock:              clock.Now,
		Metrics:            f.metrics,
	}
	for _, option := range options {
		option(&deps)
	}

	f.service = NewService(deps)
	return f
}

const annPassword = "Str0ng!Pass"

func (f *fixture) registerAnn(t *testing.T) *AuthResult {
	t.Helper()
	result, err := f.service.Register(context.Background(), RegisterInput{
		Name:      "Ann",
		Email:     "ann@example.com",
		Password:  annPassword,
		IPAddress: "203.0.113.7",
		UserAgent: "Firefox",
	})
	require.NoError(t, err)
	return result
}

func (f *fixture) loginAnn(t *testing.T, password string) (*AuthResult, error) {
	t.Helper()
	return f.service.Authenticate(context.Background(), LoginInput{
		Email:     "ann@example.com",
		Password:  password,
		IPAddress: "198.51.100.4",
		UserAgent: "Safari",
	})
}
