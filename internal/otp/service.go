package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/joescharf/shiplog/internal/mail"
	"github.com/joescharf/shiplog/internal/models"
)

// DefaultTTL is how long an issued code stays valid.
const DefaultTTL = 10 * time.Minute

const (
	codeMin   = 100000
	codeRange = 900000
)

// Notifier delivers a message to a recipient.
type Notifier interface {
	Send(ctx context.Context, msg mail.Message) error
}

// Minter turns a verified identity into a session token.
type Minter interface {
	Mint(identity string) (string, error)
}

// Config holds the settings for a Service.
type Config struct {
	// AllowList is the exact set of identities that may request a code.
	AllowList []string
	// TTL defaults to DefaultTTL.
	TTL time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
	// Generate defaults to GenerateCode.
	Generate func() (string, error)
}

// Service issues and verifies one-time codes.
type Service struct {
	store    *Store
	notifier Notifier
	minter   Minter
	allowed  map[string]struct{}
	ttl      time.Duration
	now      func() time.Time
	generate func() (string, error)
}

// NewService creates a Service. The minter may be nil, in which case every
// otherwise successful verification fails with ErrConfiguration.
func NewService(store *Store, notifier Notifier, minter Minter, cfg Config) *Service {
	s := &Service{
		store:    store,
		notifier: notifier,
		minter:   minter,
		allowed:  make(map[string]struct{}, len(cfg.AllowList)),
		ttl:      cfg.TTL,
		now:      cfg.Now,
		generate: cfg.Generate,
	}
	for _, id := range cfg.AllowList {
		s.allowed[id] = struct{}{}
	}
	if s.ttl <= 0 {
		s.ttl = DefaultTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.generate == nil {
		s.generate = GenerateCode
	}
	return s
}

// GenerateCode returns a uniformly random six digit code in [100000, 999999].
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeRange))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+codeMin, 10), nil
}

// Allowed reports whether identity is on the allow-list.
func (s *Service) Allowed(identity string) bool {
	_, ok := s.allowed[identity]
	return ok
}

// Issue creates a code for identity, stores it and sends it. When delivery
// fails the stored code is kept and ErrDelivery is returned.
func (s *Service) Issue(ctx context.Context, identity string) error {
	if identity == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if !s.Allowed(identity) {
		return ErrAuthorization
	}

	code, err := s.generate()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}

	now := s.now()
	s.store.Sweep(now)
	s.store.Put(models.PendingOTP{
		Identity:  identity,
		Code:      code,
		ExpiresAt: now.Add(s.ttl),
	})

	msg := mail.Message{
		To:      identity,
		Subject: "Your Ship Log OTP",
		Text:    fmt.Sprintf("Your OTP is: %s. It will expire in %d minutes.", code, int(s.ttl.Minutes())),
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	return nil
}

// Verify checks code for identity and, on success, consumes the pending entry
// and returns a session token.
func (s *Service) Verify(ctx context.Context, identity, code string) (string, error) {
	if identity == "" || code == "" {
		return "", fmt.Errorf("%w: email and OTP are required", ErrValidation)
	}
	if s.minter == nil {
		return "", ErrConfiguration
	}

	if err := s.store.Consume(identity, code, s.now()); err != nil {
		return "", err
	}

	token, err := s.minter.Mint(identity)
	if err != nil {
		return "", fmt.Errorf("mint session token: %w", err)
	}
	return token, nil
}
