package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/scalpapaschal-dotcom/OuterCircle/internal/metrics"
	"github.com/scalpapaschal-dotcom/OuterCircle/internal/repository"
	"github.com/scalpapaschal-dotcom/OuterCircle/pkg/logger"
	"github.com/scalpapaschal-dotcom/OuterCircle/pkg/rand"
)

// ErrCodeSpaceExhausted is returned when no free code was found within the configured number of attempts.
var ErrCodeSpaceExhausted = errors.New("no unused code found within the attempt limit")

// CodeService is an interface that defines the methods required for code management.
type CodeService interface {
	// GenerateUniqueCode returns a random code that is not registered at the time of the check.
	// It does not register the code.
	GenerateUniqueCode(ctx context.Context) (string, error)

	// NewCode generates a unique code and registers it.
	NewCode(ctx context.Context) (string, error)
}

// CodeServiceOption configures a CodeServiceImpl.
type CodeServiceOption func(*CodeServiceImpl)

// WithMaxAttempts bounds the number of candidates tried before ErrCodeSpaceExhausted is returned.
// Zero means unbounded.
func WithMaxAttempts(n int) CodeServiceOption {
	return func(s *CodeServiceImpl) {
		s.maxAttempts = n
	}
}

// WithCodeMetrics sets the collectors the service reports to.
func WithCodeMetrics(m *metrics.Metrics) CodeServiceOption {
	return func(s *CodeServiceImpl) {
		s.metrics = m
	}
}

// CodeServiceImpl implements the CodeService interface.
type CodeServiceImpl struct {
	repo        repository.MessageRepository
	alphabet    string
	length      int
	maxAttempts int
	metrics     *metrics.Metrics
}

// NewCodeService creates a new CodeServiceImpl generating codes of the given length from alphabet.
func NewCodeService(repo repository.MessageRepository, alphabet string, length int, opts ...CodeServiceOption) *CodeServiceImpl {
	s := &CodeServiceImpl{
		repo:     repo,
		alphabet: alphabet,
		length:   length,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *CodeServiceImpl) GenerateUniqueCode(ctx context.Context) (string, error) {
	attempts := 0
	return s.generate(ctx, &attempts)
}

// NewCode retries with a fresh candidate whenever the insert loses a race for the same code.
func (s *CodeServiceImpl) NewCode(ctx context.Context) (string, error) {
	attempts := 0
	for {
		code, err := s.generate(ctx, &attempts)
		if err != nil {
			return "", err
		}

		if _, err := s.repo.CreateUser(ctx, code); err != nil {
			if errors.Is(err, repository.ErrDuplicateCode) {
				s.metrics.CodeCollision(metrics.StageInsert)
				logger.Debug("Code taken at insert, retrying", "attempt", attempts)
				continue
			}
			return "", err
		}

		s.metrics.CodeIssued()
		return code, nil
	}
}

func (s *CodeServiceImpl) generate(ctx context.Context, attempts *int) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if s.maxAttempts > 0 && *attempts >= s.maxAttempts {
			return "", ErrCodeSpaceExhausted
		}
		*attempts++

		code, err := rand.StrFrom(s.alphabet, s.length)
		if err != nil {
			return "", fmt.Errorf("failed to generate code: %w", err)
		}

		exists, err := s.repo.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}

		s.metrics.CodeCollision(metrics.StageCheck)
		logger.Debug("Generated code already exists, retrying", "attempt", *attempts)
	}
}
