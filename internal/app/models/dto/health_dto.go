package dto

// HealthResponse reports service and dependency status
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}
