package op

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/db"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/model"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/tier"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/utils/cache"
)

var modelConfCache = cache.New[string, model.ModelConfig](16)

// tierResolver is rebuilt whenever the override table changes, so the
// quota path never compiles patterns per request.
var tierResolver atomic.Pointer[tier.Resolver]

func init() {
	tierResolver.Store(tier.NewResolver(nil))
}

func modelConfRefreshCache(ctx context.Context) error {
	var configs []model.ModelConfig
	if err := db.GetDB().WithContext(ctx).Find(&configs).Error; err != nil {
		return fmt.Errorf("failed to load model configs: %w", err)
	}
	modelConfCache.Clear()
	for _, mc := range configs {
		modelConfCache.Set(mc.ID, mc)
	}
	rebuildTierResolver()
	return nil
}

func rebuildTierResolver() {
	overrides := make(map[string]tier.Override, modelConfCache.Len())
	for id, mc := range modelConfCache.GetAll() {
		o := tier.Override{DailyLimit: mc.DailyLimit}
		if mc.Tier != "" {
			t := tier.Tier(mc.Tier)
			o.Tier = &t
		}
		overrides[id] = o
	}
	tierResolver.Store(tier.NewResolver(overrides))
}

// TierResolver returns the resolver for the current override table.
func TierResolver() *tier.Resolver {
	return tierResolver.Load()
}

func ModelConfigList(ctx context.Context) ([]model.ModelConfig, error) {
	configs := make([]model.ModelConfig, 0, modelConfCache.Len())
	for _, mc := range modelConfCache.GetAll() {
		configs = append(configs, mc)
	}
	sort.Slice(configs, func(i, j int) bool {
		if configs[i].SortOrder != configs[j].SortOrder {
			return configs[i].SortOrder < configs[j].SortOrder
		}
		return configs[i].ID < configs[j].ID
	})
	return configs, nil
}

func validTier(t string) bool {
	switch tier.Tier(t) {
	case "", tier.TierFree, tier.TierStandard, tier.TierHeavy:
		return true
	}
	return false
}

// mergeModelConfig applies the request's set fields onto mc. Nil
// pointer fields (and an empty CustomLabel) keep the current value; a
// non-nil empty Tier clears the override back to pattern
// classification.
func mergeModelConfig(mc model.ModelConfig, req *model.ModelConfigUpsertRequest) (model.ModelConfig, error) {
	if req.Tier != nil {
		if !validTier(*req.Tier) {
			return mc, fmt.Errorf("invalid tier: %s", *req.Tier)
		}
		mc.Tier = *req.Tier
	}
	if req.DailyLimit != nil {
		mc.DailyLimit = req.DailyLimit
	}
	if req.Enabled != nil {
		mc.Enabled = *req.Enabled
	}
	if req.IsDefault != nil {
		mc.IsDefault = *req.IsDefault
	}
	if req.CustomLabel != "" {
		mc.CustomLabel = req.CustomLabel
	}
	if req.SortOrder != nil {
		mc.SortOrder = *req.SortOrder
	}
	return mc, nil
}

// ModelConfigUpsert creates or patches one override record. Setting
// is_default clears the flag on every other record in the same
// transaction, keeping the at-most-one-default invariant.
func ModelConfigUpsert(req *model.ModelConfigUpsertRequest, ctx context.Context) (*model.ModelConfig, error) {
	mc, exists := modelConfCache.Get(req.ID)
	if !exists {
		mc = model.ModelConfig{ID: req.ID, Enabled: true}
	}
	mc, err := mergeModelConfig(mc, req)
	if err != nil {
		return nil, err
	}

	tx := db.GetDB().WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()
	if mc.IsDefault {
		if err := tx.Model(&model.ModelConfig{}).Where("id <> ?", mc.ID).
			Update("is_default", false).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if err := tx.Save(&mc).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if mc.IsDefault {
		for id, other := range modelConfCache.GetAll() {
			if id != mc.ID && other.IsDefault {
				other.IsDefault = false
				modelConfCache.Set(id, other)
			}
		}
	}
	modelConfCache.Set(mc.ID, mc)
	rebuildTierResolver()
	return &mc, nil
}

func ModelConfigDelete(id string, ctx context.Context) error {
	if _, ok := modelConfCache.Get(id); !ok {
		return fmt.Errorf("model config not found")
	}
	if err := db.GetDB().WithContext(ctx).Delete(&model.ModelConfig{ID: id}).Error; err != nil {
		return err
	}
	modelConfCache.Del(id)
	rebuildTierResolver()
	return nil
}
