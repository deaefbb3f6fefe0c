package dto

// CodeDTO represents a data transfer object (DTO) for an access code.
type CodeDTO struct {
	Code string `json:"code"`
}

// LoginDTO represents a data transfer object (DTO) for a request to enter an existing code.
type LoginDTO struct {
	Code string `json:"code"`
}

// HealthDTO represents a data transfer object (DTO) for the health check response.
type HealthDTO struct {
	Status string `json:"status"`
}
