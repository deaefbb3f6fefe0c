package dto

import (
	"time"

	"github.com/scalpapaschal-dotcom/OuterCircle/internal/model"
)

// MessageSubmitDTO represents a data transfer object (DTO) for a message submission request.
type MessageSubmitDTO struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	Sensitivity string `json:"sensitivity"`
	Delivery    string `json:"delivery"`
}

// MessageDTO represents a data transfer object (DTO) for a stored message.
type MessageDTO struct {
	ID           int64     `json:"id"`
	Code         string    `json:"code"`
	Message      string    `json:"message"`
	Sensitivity  string    `json:"sensitivity,omitempty"`
	Delivery     string    `json:"delivery,omitempty"`
	TimestampUTC time.Time `json:"timestamp_utc"`
}

// MessageGroupDTO represents all messages addressed to one code, newest first.
type MessageGroupDTO struct {
	Code     string        `json:"code"`
	Messages []*MessageDTO `json:"messages"`
}

// NewMessageDTO converts a stored message into its DTO.
func NewMessageDTO(m *model.Message) *MessageDTO {
	return &MessageDTO{
		ID:           m.ID,
		Code:         m.Code,
		Message:      m.Body,
		Sensitivity:  m.Sensitivity,
		Delivery:     m.Delivery,
		TimestampUTC: m.CreatedAt.UTC(),
	}
}

// GroupMessages partitions messages into one group per code in a single pass.
// The input must already be ordered by code, which is what the message repository guarantees;
// the order of groups and of messages inside a group is preserved.
func GroupMessages(messages []*model.Message) []*MessageGroupDTO {
	groups := make([]*MessageGroupDTO, 0)

	var current *MessageGroupDTO
	for _, m := range messages {
		if current == nil || current.Code != m.Code {
			current = &MessageGroupDTO{
				Code:     m.Code,
				Messages: make([]*MessageDTO, 0, 1),
			}
			groups = append(groups, current)
		}
		current.Messages = append(current.Messages, NewMessageDTO(m))
	}

	return groups
}
