package handlers

import (
	"errors"
	"net/http"

	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/rotation"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/server/middleware"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/server/resp"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/server/router"
	"github.com/gin-gonic/gin"
)

func init() {
	router.Group("/api/v1/quota", middleware.Auth(), middleware.RequireJSON()).
		GET("/check", checkQuota).
		POST("/record", recordUsage)
	router.Group("/api/v1/token", middleware.Auth()).
		GET("", acquireToken)
}

func checkQuota(c *gin.Context) {
	userID := c.Query("user_id")
	modelID := c.Query("model_id")
	if userID == "" || modelID == "" {
		resp.Error(c, http.StatusBadRequest, resp.ErrInvalidParam)
		return
	}
	isAdmin := c.Query("admin") == "true"
	resp.Success(c, quotaLedger.Check(c.Request.Context(), userID, modelID, isAdmin))
}

type recordUsageRequest struct {
	UserID  string `json:"user_id" binding:"required"`
	ModelID string `json:"model_id" binding:"required"`
}

// recordUsage fires the increment and returns immediately; the
// outcome is intentionally not reported.
func recordUsage(c *gin.Context) {
	var req recordUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrInvalidJSON)
		return
	}
	quotaLedger.Record(req.UserID, req.ModelID)
	resp.Success(c, nil)
}

func acquireToken(c *gin.Context) {
	token, err := rotationManager.AcquireToken(c.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, rotation.ErrAllCredentialsDead):
			resp.Error(c, http.StatusServiceUnavailable, err.Error())
		case errors.Is(err, rotation.ErrNoCredentials):
			resp.Error(c, http.StatusInternalServerError, err.Error())
		default:
			resp.Error(c, http.StatusBadGateway, err.Error())
		}
		return
	}
	resp.Success(c, map[string]any{
		"token":         token.Value,
		"expires_at":    token.ExpiresAt.Unix(),
		"credential_id": token.CredentialID,
	})
}
