package dto

// ErrorDTO represents a data transfer object (DTO) for an error.
type ErrorDTO struct {
	Error string `json:"error"`
}
