package advice

import "time"

// AdviceID identifier type
type AdviceID string

// Advice is AI generated fix guidance for one check, stored for auditing and retrieval
type Advice struct {
	ID        AdviceID  `json:"id"`
	TenantID  string    `json:"tenant_id"`
	CheckID   string    `json:"check_id"`
	Model     string    `json:"model,omitempty"`
	Result    string    `json:"result"` // JSON string from AI
	CreatedAt time.Time `json:"created_at"`
}
