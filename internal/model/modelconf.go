package model

// ModelConfig is a per-model override record. Tier empty means
// "classify by pattern", DailyLimit nil means "derive from tier",
// DailyLimit 0 means unlimited.
type ModelConfig struct {
	ID          string `json:"id" gorm:"primaryKey"`
	Tier        string `json:"tier"`
	DailyLimit  *int   `json:"daily_limit"`
	Enabled     bool   `json:"enabled" gorm:"default:true"`
	IsDefault   bool   `json:"is_default" gorm:"default:false"`
	CustomLabel string `json:"custom_label"`
	SortOrder   int    `json:"sort_order" gorm:"default:0"`
}

// ModelConfigUpsertRequest patches a record: nil fields keep the
// current value, a non-nil empty Tier clears the override.
type ModelConfigUpsertRequest struct {
	ID          string  `json:"id" binding:"required"`
	Tier        *string `json:"tier"`
	DailyLimit  *int    `json:"daily_limit"`
	Enabled     *bool   `json:"enabled"`
	IsDefault   *bool   `json:"is_default"`
	CustomLabel string  `json:"custom_label"`
	SortOrder   *int    `json:"sort_order"`
}
