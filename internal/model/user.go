package model

import "time"

// User represents a registered access code. The code is the only identifier a submitter has.
type User struct {
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
}
