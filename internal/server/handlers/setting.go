package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/model"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/op"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/server/middleware"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/server/resp"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/server/router"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/task"
	"github.com/gin-gonic/gin"
)

func init() {
	router.Group("/api/v1/setting", middleware.Auth(), middleware.RequireJSON()).
		GET("/list", listSetting).
		POST("/update", updateSetting)
}

func listSetting(c *gin.Context) {
	settings, err := op.SettingList(c.Request.Context())
	if err != nil {
		resp.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	resp.Success(c, settings)
}

func updateSetting(c *gin.Context) {
	var req model.Setting
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrInvalidJSON)
		return
	}
	if err := req.Validate(); err != nil {
		resp.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := op.SettingSetString(req.Key, req.Value); err != nil {
		resp.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	applyTaskInterval(req.Key, req.Value)
	resp.Success(c, nil)
}

// applyTaskInterval pushes interval setting changes to the running
// task without a restart.
func applyTaskInterval(key model.SettingKey, value string) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return
	}
	switch key {
	case model.SettingKeyCredentialSaveInterval:
		task.Update(task.TaskCredentialSave, time.Duration(n)*time.Minute)
	case model.SettingKeyCredentialTestInterval:
		task.Update(task.TaskCredentialTest, time.Duration(n)*time.Hour)
	}
}
