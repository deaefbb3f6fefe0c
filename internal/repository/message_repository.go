package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/scalpapaschal-dotcom/OuterCircle/internal/database"
	"github.com/scalpapaschal-dotcom/OuterCircle/internal/model"
)

var (
	// ErrStoreUnavailable wraps every storage engine error that is not one of the expected outcomes below.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrDuplicateCode is returned when a code that is already registered is inserted again.
	ErrDuplicateCode = errors.New("code already exists")
	// ErrUnknownCode is returned when a message references a code that is not registered.
	ErrUnknownCode = errors.New("code does not exist")
)

// MessageRepository is an interface that defines the methods required for code and message storage.
// Codes passed in must already be normalized to upper case.
type MessageRepository interface {
	// CodeExists reports whether a user with exactly this code is registered.
	CodeExists(ctx context.Context, code string) (exists bool, err error)

	// CreateUser registers a new code. It returns ErrDuplicateCode if the code is taken.
	CreateUser(ctx context.Context, code string) (user *model.User, err error)

	// AddMessageForCode stores a message for an existing code and returns its identifier.
	// The timestamp is assigned by the repository. It returns ErrUnknownCode if the code is not registered.
	AddMessageForCode(ctx context.Context, message *model.Message) (id int64, err error)

	// GetAllMessagesGrouped returns every message ordered by code ascending and newest first within a code.
	GetAllMessagesGrouped(ctx context.Context) (messages []*model.Message, err error)

	// DeleteMessageByID removes one message. Deleting an identifier that does not exist is not an error.
	DeleteMessageByID(ctx context.Context, id int64) (deleted bool, err error)
}

// Option configures a message repository.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock sets the function used to timestamp new users and messages.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func newOptions(opts []Option) *options {
	o := &options{now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func storeError(op string, err error) error {
	return fmt.Errorf("failed to %s: %w: %w", op, ErrStoreUnavailable, err)
}

// MessageRepositoryImpl implements the MessageRepository interface with database/sql.
type MessageRepositoryImpl struct {
	db  database.Database
	now func() time.Time
}

// NewMessageRepository creates a new MessageRepositoryImpl instance with the provided database.
func NewMessageRepository(db database.Database, opts ...Option) *MessageRepositoryImpl {
	o := newOptions(opts)
	return &MessageRepositoryImpl{
		db:  db,
		now: o.now,
	}
}

func (mr *MessageRepositoryImpl) CodeExists(ctx context.Context, code string) (bool, error) {
	query := "SELECT 1 FROM users WHERE user_code = $1"

	row, err := mr.db.QueryRowContext(ctx, query, code)
	if err != nil {
		return false, storeError("check code", err)
	}

	var one int
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, storeError("check code", err)
	}

	return true, nil
}

func (mr *MessageRepositoryImpl) CreateUser(ctx context.Context, code string) (*model.User, error) {
	query := "INSERT INTO users (user_code, created_at) VALUES ($1, $2)"

	user := &model.User{
		Code:      code,
		CreatedAt: mr.now().UTC(),
	}

	if _, err := mr.db.ExecContext(ctx, query, user.Code, user.CreatedAt); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrDuplicateCode
		}
		return nil, storeError("create user", err)
	}

	return user, nil
}

func (mr *MessageRepositoryImpl) AddMessageForCode(ctx context.Context, message *model.Message) (int64, error) {
	message.CreatedAt = mr.now().UTC()

	err := database.WithTx(ctx, mr.db, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM users WHERE user_code = $1", message.Code).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUnknownCode
		}
		if err != nil {
			return err
		}

		query := `
			INSERT INTO messages (user_code, message, sensitivity, delivery, timestamp_utc)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`
		return tx.QueryRowContext(ctx, query,
			message.Code,
			message.Body,
			nullString(message.Sensitivity),
			nullString(message.Delivery),
			message.CreatedAt,
		).Scan(&message.ID)
	})
	if err != nil {
		if errors.Is(err, ErrUnknownCode) || database.IsForeignKeyViolation(err) {
			return 0, ErrUnknownCode
		}
		return 0, storeError("add message", err)
	}

	return message.ID, nil
}

func (mr *MessageRepositoryImpl) GetAllMessagesGrouped(ctx context.Context) ([]*model.Message, error) {
	query := `
		SELECT id, user_code, message, sensitivity, delivery, timestamp_utc
		FROM messages
		ORDER BY user_code ASC, timestamp_utc DESC, id DESC
	`

	rows, err := mr.db.QueryContext(ctx, query)
	if err != nil {
		return nil, storeError("get all messages", err)
	}
	defer rows.Close()

	messages := make([]*model.Message, 0)
	for rows.Next() {
		var (
			m           model.Message
			sensitivity sql.NullString
			delivery    sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.Code, &m.Body, &sensitivity, &delivery, &m.CreatedAt); err != nil {
			return nil, storeError("scan message row", err)
		}
		m.Sensitivity = sensitivity.String
		m.Delivery = delivery.String
		m.CreatedAt = m.CreatedAt.UTC()
		messages = append(messages, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, storeError("read message rows", err)
	}

	return messages, nil
}

func (mr *MessageRepositoryImpl) DeleteMessageByID(ctx context.Context, id int64) (bool, error) {
	query := "DELETE FROM messages WHERE id = $1"

	result, err := mr.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, storeError("delete message", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, storeError("delete message", err)
	}

	return affected > 0, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
