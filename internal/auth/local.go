package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/YnTheNerd/cleanspot/internal/storage"
)

const (
	userCollection = "users"
	minPasswordLen = 6
)

type userRecord struct {
	UID          string `json:"uid"`
	Email        string `json:"email"`
	DisplayName  string `json:"display_name"`
	PasswordHash []byte `json:"password_hash"`
	Disabled     bool   `json:"disabled"`
}

// LocalProvider implements Provider over the document store. Accounts
// are keyed by normalized email; login attempts are rate limited per
// account.
type LocalProvider struct {
	docs storage.DocumentStore

	mu       sync.Mutex
	current  *Identity
	limiters map[string]*rate.Limiter
	attempts rate.Limit
	burst    int
}

func NewLocalProvider(docs storage.DocumentStore) *LocalProvider {
	return &LocalProvider{
		docs:     docs,
		limiters: make(map[string]*rate.Limiter),
		attempts: rate.Limit(0.5), // one attempt per 2s sustained
		burst:    5,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

func (p *LocalProvider) limiterFor(email string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.limiters[email]
	if !ok {
		l = rate.NewLimiter(p.attempts, p.burst)
		p.limiters[email] = l
	}
	return l
}

func (p *LocalProvider) setCurrent(id *Identity) {
	p.mu.Lock()
	p.current = id
	p.mu.Unlock()
}

func (p *LocalProvider) Register(ctx context.Context, email, password, displayName string) (*Identity, error) {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return nil, &CodedError{Code: CodeInvalidEmail}
	}
	if len(password) < minPasswordLen {
		return nil, &CodedError{Code: CodeWeakPassword}
	}

	if _, err := p.docs.GetRecord(ctx, userCollection, email); err == nil {
		return nil, &CodedError{Code: CodeEmailInUse}
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("error checking account: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	rec := userRecord{
		UID:          uuid.NewString(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hash,
	}
	if err := p.docs.PutRecord(ctx, userCollection, email, rec.UID, rec); err != nil {
		return nil, fmt.Errorf("error storing account: %w", err)
	}

	id := &Identity{UID: rec.UID, Email: email, DisplayName: displayName}
	p.setCurrent(id)
	return id, nil
}

func (p *LocalProvider) Login(ctx context.Context, email, password string) (*Identity, error) {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return nil, &CodedError{Code: CodeInvalidEmail}
	}
	if !p.limiterFor(email).Allow() {
		return nil, &CodedError{Code: CodeTooManyRequests}
	}

	doc, err := p.docs.GetRecord(ctx, userCollection, email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, &CodedError{Code: CodeUserNotFound}
	}
	if err != nil {
		return nil, fmt.Errorf("error reading account: %w", err)
	}

	var rec userRecord
	if err := doc.Decode(&rec); err != nil {
		return nil, fmt.Errorf("error decoding account: %w", err)
	}
	if rec.Disabled {
		return nil, &CodedError{Code: CodeUserDisabled}
	}
	if bcrypt.CompareHashAndPassword(rec.PasswordHash, []byte(password)) != nil {
		return nil, &CodedError{Code: CodeWrongPassword}
	}

	id := &Identity{UID: rec.UID, Email: rec.Email, DisplayName: rec.DisplayName}
	p.setCurrent(id)
	return id, nil
}

func (p *LocalProvider) Logout(ctx context.Context) error {
	p.setCurrent(nil)
	return nil
}

// ResetPassword verifies the account exists. Delivery of the reset link
// is out of scope; the request is only logged.
func (p *LocalProvider) ResetPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return &CodedError{Code: CodeInvalidEmail}
	}
	_, err := p.docs.GetRecord(ctx, userCollection, email)
	if errors.Is(err, storage.ErrNotFound) {
		return &CodedError{Code: CodeUserNotFound}
	}
	if err != nil {
		return fmt.Errorf("error reading account: %w", err)
	}
	slog.Info("password reset requested", "email", email)
	return nil
}

func (p *LocalProvider) CurrentIdentity(ctx context.Context) (*Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, nil
}
