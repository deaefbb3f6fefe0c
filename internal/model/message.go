package model

import "time"

// Message represents a single anonymous submission addressed to a code.
type Message struct {
	ID          int64     `json:"id"`
	Code        string    `json:"code"`
	Body        string    `json:"message"`
	Sensitivity string    `json:"sensitivity,omitempty"`
	Delivery    string    `json:"delivery,omitempty"`
	CreatedAt   time.Time `json:"timestamp_utc"`
}
