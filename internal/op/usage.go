package op

import (
	"context"
	"errors"

	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/db"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UsageCount reads today's counter for (user, model). Missing row
// means zero, not an error.
func UsageCount(ctx context.Context, userID, modelID, day string) (int, error) {
	var rec model.UsageRecord
	err := db.GetDB().WithContext(ctx).
		Where("user_id = ? AND model_id = ? AND day = ?", userID, modelID, day).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return rec.Count, nil
}

// UsageIncrement creates or bumps the day's counter in one statement.
// Concurrent increments can never lose updates to a read-modify-write
// race because there is no read.
func UsageIncrement(ctx context.Context, userID, modelID, day string) error {
	return db.GetDB().WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "model_id"}, {Name: "day"}},
		DoUpdates: clause.Assignments(map[string]any{
			"count": gorm.Expr("count + 1"),
		}),
	}).Create(&model.UsageRecord{
		UserID:  userID,
		ModelID: modelID,
		Day:     day,
		Count:   1,
	}).Error
}

// UsageStore adapts the op layer to quota.UsageStore.
type UsageStore struct{}

func (UsageStore) Count(ctx context.Context, userID, modelID, day string) (int, error) {
	return UsageCount(ctx, userID, modelID, day)
}

func (UsageStore) Increment(ctx context.Context, userID, modelID, day string) error {
	return UsageIncrement(ctx, userID, modelID, day)
}
