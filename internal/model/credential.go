package model

type CredentialStatus string

const (
	CredentialStatusAlive CredentialStatus = "alive"
	CredentialStatusDead  CredentialStatus = "dead"
)

// Credential is a long-lived secret exchangeable for short-lived
// inference tokens. The secret never leaves the exchange path: it is
// excluded from JSON and only accepted on create.
type Credential struct {
	ID           int              `json:"id" gorm:"primaryKey"`
	Label        string           `json:"label" gorm:"unique;not null"`
	Secret       string           `json:"-" gorm:"not null"`
	Status       CredentialStatus `json:"status" gorm:"default:'alive'"`
	LastTestedAt int64            `json:"last_tested_at"`
	LastUsedAt   int64            `json:"last_used_at"`
	UseCount     int64            `json:"use_count"`
}

type CredentialCreateRequest struct {
	Label  string `json:"label" binding:"required"`
	Secret string `json:"secret" binding:"required"`
}

// CredentialInfo is the caller-facing view. No secret field at all, so
// a future marshalling change cannot leak it.
type CredentialInfo struct {
	ID           int              `json:"id"`
	Label        string           `json:"label"`
	Status       CredentialStatus `json:"status"`
	LastTestedAt int64            `json:"last_tested_at"`
	LastUsedAt   int64            `json:"last_used_at"`
	UseCount     int64            `json:"use_count"`
}

func (c *Credential) Info() CredentialInfo {
	return CredentialInfo{
		ID:           c.ID,
		Label:        c.Label,
		Status:       c.Status,
		LastTestedAt: c.LastTestedAt,
		LastUsedAt:   c.LastUsedAt,
		UseCount:     c.UseCount,
	}
}
