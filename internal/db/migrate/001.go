package migrate

import (
	"fmt"

	"gorm.io/gorm"
)

func init() {
	RegisterAfterAutoMigration(Migration{
		Version: 1,
		Up:      repairDuplicateDefaultModelConfig,
	})
}

// 001: rows written before the single-default invariant was enforced
// can carry more than one is_default flag. Keep the first by sort
// order, clear the rest.
func repairDuplicateDefaultModelConfig(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("db is nil")
	}

	var ids []string
	if err := db.Table("model_configs").Where("is_default = ?", true).
		Order("sort_order, id").Pluck("id", &ids).Error; err != nil {
		return fmt.Errorf("failed to list default model configs: %w", err)
	}
	if len(ids) <= 1 {
		return nil
	}
	if err := db.Table("model_configs").Where("id IN ?", ids[1:]).
		Update("is_default", false).Error; err != nil {
		return fmt.Errorf("failed to clear duplicate default model configs: %w", err)
	}
	return nil
}
