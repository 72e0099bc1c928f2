package handlers

import (
	"net/http"

	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/model"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/op"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/server/middleware"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/server/resp"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/server/router"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/tier"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

func init() {
	router.Group("/api/v1/model", middleware.Auth(), middleware.RequireJSON()).
		GET("/list", listModelConfig).
		POST("/upsert", upsertModelConfig).
		DELETE("/delete/:id", deleteModelConfig)
}

type modelConfigView struct {
	model.ModelConfig
	EffectiveTier  tier.Tier `json:"effective_tier"`
	EffectiveLimit int       `json:"effective_limit"`
}

func listModelConfig(c *gin.Context) {
	configs, err := op.ModelConfigList(c.Request.Context())
	if err != nil {
		resp.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	resolver := op.TierResolver()
	views := lo.Map(configs, func(mc model.ModelConfig, _ int) modelConfigView {
		return modelConfigView{
			ModelConfig:    mc,
			EffectiveTier:  resolver.Classify(mc.ID),
			EffectiveLimit: resolver.DailyLimit(mc.ID),
		}
	})
	resp.Success(c, views)
}

func upsertModelConfig(c *gin.Context) {
	var req model.ModelConfigUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrInvalidJSON)
		return
	}
	mc, err := op.ModelConfigUpsert(&req, c.Request.Context())
	if err != nil {
		resp.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	resp.Success(c, mc)
}

func deleteModelConfig(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		resp.Error(c, http.StatusBadRequest, resp.ErrInvalidParam)
		return
	}
	if err := op.ModelConfigDelete(id, c.Request.Context()); err != nil {
		resp.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	resp.Success(c, nil)
}
