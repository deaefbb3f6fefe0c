package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/scalpapaschal-dotcom/OuterCircle/internal/dto"
	"github.com/scalpapaschal-dotcom/OuterCircle/internal/metrics"
	"github.com/scalpapaschal-dotcom/OuterCircle/internal/model"
	"github.com/scalpapaschal-dotcom/OuterCircle/internal/repository"
	"github.com/scalpapaschal-dotcom/OuterCircle/pkg/logger"
	"github.com/scalpapaschal-dotcom/OuterCircle/pkg/validation"
)

// Rejection reasons reported to metrics.
const (
	reasonEmptyBody       = "empty_body"
	reasonInvalidMetadata = "invalid_metadata"
	reasonUnknownCode     = "unknown_code"
	reasonInvalidCode     = "invalid_code"
)

// MessageService defines the interface for message-related operations.
type MessageService interface {
	// CodeExists reports whether code is registered. Input is normalized first; an empty code does not exist.
	CodeExists(ctx context.Context, code string) (bool, error)

	// Submit validates and stores a message for an existing code.
	Submit(ctx context.Context, submit *dto.MessageSubmitDTO) (*dto.MessageDTO, error)

	// ListAll returns every message ordered by code ascending, newest first within a code.
	ListAll(ctx context.Context) ([]*model.Message, error)

	// Delete removes the message with the given id. Deleting a missing message is not an error.
	Delete(ctx context.Context, id int64) error
}

// MessageServiceOption configures a MessageServiceImpl.
type MessageServiceOption func(*MessageServiceImpl)

// WithCodeFormat makes the service reject codes that do not have the given length and alphabet
// without asking the store.
func WithCodeFormat(alphabet string, length int) MessageServiceOption {
	return func(s *MessageServiceImpl) {
		s.alphabet = alphabet
		s.length = length
	}
}

// MessageServiceImpl implements the MessageService interface.
type MessageServiceImpl struct {
	repo     repository.MessageRepository
	metrics  *metrics.Metrics
	alphabet string
	length   int
}

// NewMessageService creates a new MessageServiceImpl. m may be nil.
func NewMessageService(repo repository.MessageRepository, m *metrics.Metrics, opts ...MessageServiceOption) *MessageServiceImpl {
	s := &MessageServiceImpl{
		repo:    repo,
		metrics: m,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// validCode reports whether a normalized code can exist at all.
func (s *MessageServiceImpl) validCode(code string) bool {
	if code == "" {
		return false
	}
	if s.alphabet == "" {
		return true
	}
	return validation.ValidateCode(code, s.alphabet, s.length) == nil
}

func (s *MessageServiceImpl) CodeExists(ctx context.Context, code string) (bool, error) {
	code = validation.NormalizeCode(code)
	if !s.validCode(code) {
		return false, nil
	}

	return s.repo.CodeExists(ctx, code)
}

func (s *MessageServiceImpl) Submit(ctx context.Context, submit *dto.MessageSubmitDTO) (*dto.MessageDTO, error) {
	if err := validation.ValidateMessageBody(submit.Message); err != nil {
		s.metrics.MessageRejected(reasonEmptyBody)
		return nil, err
	}

	sensitivity := strings.TrimSpace(submit.Sensitivity)
	delivery := strings.TrimSpace(submit.Delivery)
	if err := validation.ValidateMetadata(sensitivity, delivery); err != nil {
		s.metrics.MessageRejected(reasonInvalidMetadata)
		return nil, err
	}

	code := validation.NormalizeCode(submit.Code)
	if code == "" {
		s.metrics.MessageRejected(reasonUnknownCode)
		return nil, repository.ErrUnknownCode
	}
	if !s.validCode(code) {
		s.metrics.MessageRejected(reasonInvalidCode)
		return nil, fmt.Errorf("%w: %w", repository.ErrUnknownCode, validation.ErrInvalidCode)
	}

	message := &model.Message{
		Code:        code,
		Body:        submit.Message,
		Sensitivity: sensitivity,
		Delivery:    delivery,
	}
	if _, err := s.repo.AddMessageForCode(ctx, message); err != nil {
		if errors.Is(err, repository.ErrUnknownCode) {
			s.metrics.MessageRejected(reasonUnknownCode)
		}
		return nil, err
	}

	s.metrics.MessageSubmitted()
	logger.Info("Message stored", "id", message.ID)

	return dto.NewMessageDTO(message), nil
}

func (s *MessageServiceImpl) ListAll(ctx context.Context) ([]*model.Message, error) {
	return s.repo.GetAllMessagesGrouped(ctx)
}

func (s *MessageServiceImpl) Delete(ctx context.Context, id int64) error {
	deleted, err := s.repo.DeleteMessageByID(ctx, id)
	if err != nil {
		return err
	}

	if deleted {
		s.metrics.MessageDeleted()
		logger.Info("Message deleted", "id", id)
	}

	return nil
}
