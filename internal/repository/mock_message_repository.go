package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/scalpapaschal-dotcom/OuterCircle/internal/model"
)

// MockMessageRepository is a mock implementation of MessageRepository for testing purposes.
// It keeps users and messages in memory. The optional Fn hooks replace the default behaviour of a method.
type MockMessageRepository struct {
	mu             sync.Mutex
	Users          map[string]*model.User   // Map to store users by code
	Messages       map[int64]*model.Message // Map to store messages by ID
	LastInsertedID int64                    // To simulate auto-increment behavior
	Now            func() time.Time

	CodeExistsFn func(ctx context.Context, code string) (bool, error)
	CreateUserFn func(ctx context.Context, code string) (*model.User, error)
	AddMessageFn func(ctx context.Context, message *model.Message) (int64, error)
	GetAllFn     func(ctx context.Context) ([]*model.Message, error)
	DeleteFn     func(ctx context.Context, id int64) (bool, error)
}

// NewMockMessageRepository creates a new instance of MockMessageRepository.
func NewMockMessageRepository() *MockMessageRepository {
	return &MockMessageRepository{
		Users:    make(map[string]*model.User),
		Messages: make(map[int64]*model.Message),
		Now:      time.Now,
	}
}

// CodeExists is a mock implementation of CodeExists method.
func (m *MockMessageRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	if m.CodeExistsFn != nil {
		return m.CodeExistsFn(ctx, code)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.Users[code]
	return ok, nil
}

// CreateUser is a mock implementation of CreateUser method.
func (m *MockMessageRepository) CreateUser(ctx context.Context, code string) (*model.User, error) {
	if m.CreateUserFn != nil {
		return m.CreateUserFn(ctx, code)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.Users[code]; ok {
		return nil, ErrDuplicateCode
	}

	user := &model.User{Code: code, CreatedAt: m.Now().UTC()}
	m.Users[code] = user
	return user, nil
}

// AddMessageForCode is a mock implementation of AddMessageForCode method.
func (m *MockMessageRepository) AddMessageForCode(ctx context.Context, message *model.Message) (int64, error) {
	if m.AddMessageFn != nil {
		return m.AddMessageFn(ctx, message)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.Users[message.Code]; !ok {
		return 0, ErrUnknownCode
	}

	m.LastInsertedID++
	message.ID = m.LastInsertedID
	message.CreatedAt = m.Now().UTC()

	stored := *message
	m.Messages[message.ID] = &stored
	return message.ID, nil
}

// GetAllMessagesGrouped is a mock implementation of GetAllMessagesGrouped method.
func (m *MockMessageRepository) GetAllMessagesGrouped(ctx context.Context) ([]*model.Message, error) {
	if m.GetAllFn != nil {
		return m.GetAllFn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	messages := make([]*model.Message, 0, len(m.Messages))
	for _, msg := range m.Messages {
		stored := *msg
		messages = append(messages, &stored)
	}

	sort.Slice(messages, func(i, j int) bool {
		a, b := messages[i], messages[j]
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})

	return messages, nil
}

// DeleteMessageByID is a mock implementation of DeleteMessageByID method.
func (m *MockMessageRepository) DeleteMessageByID(ctx context.Context, id int64) (bool, error) {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.Messages[id]; !ok {
		return false, nil
	}

	delete(m.Messages, id)
	return true, nil
}

// MessageCount returns the number of stored messages.
func (m *MockMessageRepository) MessageCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.Messages)
}
