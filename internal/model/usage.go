package model

// UsageRecord counts requests per user, model and calendar day.
// Day is "2006-01-02" in the configured quota timezone. The composite
// primary key gives the one-row-per-day invariant; increments go
// through a single upsert statement, never read-modify-write.
type UsageRecord struct {
	UserID  string `json:"user_id" gorm:"primaryKey;size:64"`
	ModelID string `json:"model_id" gorm:"primaryKey;size:128"`
	Day     string `json:"day" gorm:"primaryKey;size:10"`
	Count   int    `json:"count" gorm:"not null;default:0"`
}
