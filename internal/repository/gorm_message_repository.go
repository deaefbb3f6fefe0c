package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/scalpapaschal-dotcom/OuterCircle/internal/database"
	"github.com/scalpapaschal-dotcom/OuterCircle/internal/model"
)

type userRecord struct {
	Code      string    `gorm:"column:user_code;primaryKey;size:16"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (userRecord) TableName() string {
	return "users"
}

type messageRecord struct {
	ID          int64      `gorm:"column:id;primaryKey;autoIncrement"`
	UserCode    string     `gorm:"column:user_code;size:16;not null;index:idx_messages_user_code_timestamp,priority:1"`
	User        userRecord `gorm:"foreignKey:UserCode;references:Code;constraint:OnDelete:CASCADE"`
	Body        string     `gorm:"column:message;type:text;not null"`
	Sensitivity *string    `gorm:"column:sensitivity;size:50"`
	Delivery    *string    `gorm:"column:delivery;size:50"`
	Timestamp   time.Time  `gorm:"column:timestamp_utc;not null;index:idx_messages_user_code_timestamp,priority:2"`
	CreatedAt   time.Time  `gorm:"column:created_at;not null"`
}

func (messageRecord) TableName() string {
	return "messages"
}

// GormMessageRepository implements the MessageRepository interface with gorm.
type GormMessageRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormMessageRepository creates a new GormMessageRepository with the provided gorm handle.
func NewGormMessageRepository(db *gorm.DB, opts ...Option) *GormMessageRepository {
	o := newOptions(opts)
	return &GormMessageRepository{
		db:  db,
		now: o.now,
	}
}

// Migrate creates or updates the users and messages tables.
func (gr *GormMessageRepository) Migrate(ctx context.Context) error {
	if err := gr.db.WithContext(ctx).AutoMigrate(&userRecord{}, &messageRecord{}); err != nil {
		return storeError("migrate schema", err)
	}
	return nil
}

func (gr *GormMessageRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := gr.db.WithContext(ctx).Model(&userRecord{}).Where("user_code = ?", code).Count(&count).Error; err != nil {
		return false, storeError("check code", err)
	}

	return count > 0, nil
}

func (gr *GormMessageRepository) CreateUser(ctx context.Context, code string) (*model.User, error) {
	record := &userRecord{
		Code:      code,
		CreatedAt: gr.now().UTC(),
	}

	if err := gr.db.WithContext(ctx).Create(record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || database.IsUniqueViolation(err) {
			return nil, ErrDuplicateCode
		}
		return nil, storeError("create user", err)
	}

	return &model.User{
		Code:      record.Code,
		CreatedAt: record.CreatedAt,
	}, nil
}

func (gr *GormMessageRepository) AddMessageForCode(ctx context.Context, message *model.Message) (int64, error) {
	message.CreatedAt = gr.now().UTC()

	err := gr.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&userRecord{}).Where("user_code = ?", message.Code).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrUnknownCode
		}

		record := &messageRecord{
			UserCode:    message.Code,
			Body:        message.Body,
			Sensitivity: optionalString(message.Sensitivity),
			Delivery:    optionalString(message.Delivery),
			Timestamp:   message.CreatedAt,
			CreatedAt:   message.CreatedAt,
		}
		if err := tx.Omit(clause.Associations).Create(record).Error; err != nil {
			return err
		}

		message.ID = record.ID
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrUnknownCode) || errors.Is(err, gorm.ErrForeignKeyViolated) || database.IsForeignKeyViolation(err) {
			return 0, ErrUnknownCode
		}
		return 0, storeError("add message", err)
	}

	return message.ID, nil
}

func (gr *GormMessageRepository) GetAllMessagesGrouped(ctx context.Context) ([]*model.Message, error) {
	var records []messageRecord
	err := gr.db.WithContext(ctx).
		Order("user_code ASC").
		Order("timestamp_utc DESC").
		Order("id DESC").
		Find(&records).Error
	if err != nil {
		return nil, storeError("get all messages", err)
	}

	messages := make([]*model.Message, 0, len(records))
	for _, r := range records {
		m := &model.Message{
			ID:        r.ID,
			Code:      r.UserCode,
			Body:      r.Body,
			CreatedAt: r.Timestamp.UTC(),
		}
		if r.Sensitivity != nil {
			m.Sensitivity = *r.Sensitivity
		}
		if r.Delivery != nil {
			m.Delivery = *r.Delivery
		}
		messages = append(messages, m)
	}

	return messages, nil
}

func (gr *GormMessageRepository) DeleteMessageByID(ctx context.Context, id int64) (bool, error) {
	result := gr.db.WithContext(ctx).Delete(&messageRecord{}, id)
	if result.Error != nil {
		return false, storeError("delete message", result.Error)
	}

	return result.RowsAffected > 0, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
