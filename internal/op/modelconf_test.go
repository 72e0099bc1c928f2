package op

import (
	"testing"

	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/model"
)

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func TestMergeModelConfig_PartialPatch(t *testing.T) {
	existing := model.ModelConfig{
		ID:         "claude-opus-4",
		Tier:       "heavy",
		DailyLimit: intPtr(5),
		Enabled:    true,
		SortOrder:  1,
	}

	// Patching sort_order alone must not touch the tier override.
	got, err := mergeModelConfig(existing, &model.ModelConfigUpsertRequest{
		ID:        "claude-opus-4",
		SortOrder: intPtr(7),
	})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if got.Tier != "heavy" {
		t.Errorf("tier cleared by unrelated patch: %q", got.Tier)
	}
	if got.SortOrder != 7 {
		t.Errorf("sort_order = %d, want 7", got.SortOrder)
	}
	if got.DailyLimit == nil || *got.DailyLimit != 5 {
		t.Errorf("daily_limit changed by unrelated patch: %v", got.DailyLimit)
	}
}

func TestMergeModelConfig_ExplicitTierClear(t *testing.T) {
	existing := model.ModelConfig{ID: "m", Tier: "heavy", Enabled: true}

	got, err := mergeModelConfig(existing, &model.ModelConfigUpsertRequest{
		ID:   "m",
		Tier: strPtr(""),
	})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if got.Tier != "" {
		t.Errorf("tier = %q, want cleared", got.Tier)
	}
}

func TestMergeModelConfig_InvalidTier(t *testing.T) {
	if _, err := mergeModelConfig(model.ModelConfig{ID: "m"}, &model.ModelConfigUpsertRequest{
		ID:   "m",
		Tier: strPtr("platinum"),
	}); err == nil {
		t.Fatal("expected an error for an unknown tier")
	}
}
