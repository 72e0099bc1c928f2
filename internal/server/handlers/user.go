package handlers

import (
	"net/http"

	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/model"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/op"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/server/auth"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/server/middleware"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/server/resp"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/server/router"
	"github.com/gin-gonic/gin"
)

func init() {
	router.Group("/api/v1/auth", middleware.RequireJSON()).
		POST("/login", login)
	router.Group("/api/v1/user", middleware.Auth(), middleware.RequireJSON()).
		POST("/change_password", changePassword).
		POST("/change_username", changeUsername)
}

func login(c *gin.Context) {
	var req model.UserLogin
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrInvalidJSON)
		return
	}
	if err := op.UserVerify(req.Username, req.Password); err != nil {
		resp.Error(c, http.StatusUnauthorized, resp.ErrUnauthorized)
		return
	}
	token, expireAt, err := auth.GenerateJWTToken(req.Expire)
	if err != nil {
		resp.Error(c, http.StatusInternalServerError, resp.ErrInternalServer)
		return
	}
	resp.Success(c, model.UserLoginResponse{Token: token, ExpireAt: expireAt})
}

func changePassword(c *gin.Context) {
	var req model.UserChangePassword
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrInvalidJSON)
		return
	}
	if err := op.UserChangePassword(req.OldPassword, req.NewPassword); err != nil {
		resp.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	resp.Success(c, nil)
}

func changeUsername(c *gin.Context) {
	var req model.UserChangeUsername
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrInvalidJSON)
		return
	}
	if err := op.UserChangeUsername(req.NewUsername); err != nil {
		resp.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	resp.Success(c, nil)
}
