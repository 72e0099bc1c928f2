package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/model"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/op"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/server/middleware"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/server/resp"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/server/router"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/utils/log"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

func init() {
	router.Group("/api/v1/credential", middleware.Auth(), middleware.RequireJSON()).
		POST("/create", createCredential).
		GET("/list", listCredential).
		DELETE("/delete/:id", deleteCredential).
		POST("/test/:id", testCredential).
		POST("/test", testAllCredentials)
}

// createCredential enrolls a secret and validates it immediately. The
// row is created either way; a bad secret shows up as status dead
// instead of an opaque rejection.
func createCredential(c *gin.Context) {
	var req model.CredentialCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrInvalidJSON)
		return
	}

	cred := model.Credential{
		Label:        req.Label,
		Secret:       req.Secret,
		Status:       model.CredentialStatusAlive,
		LastTestedAt: time.Now().Unix(),
	}
	if err := rotationManager.Validate(c.Request.Context(), req.Secret); err != nil {
		log.Warnf("enrollment validation failed for credential %s: %v", req.Label, err)
		cred.Status = model.CredentialStatusDead
	}

	if err := op.CredentialCreate(&cred, c.Request.Context()); err != nil {
		resp.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	resp.Success(c, cred.Info())
}

func listCredential(c *gin.Context) {
	creds, err := op.CredentialList(c.Request.Context())
	if err != nil {
		resp.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	infos := lo.Map(creds, func(cred model.Credential, _ int) model.CredentialInfo {
		return cred.Info()
	})
	resp.Success(c, infos)
}

func deleteCredential(c *gin.Context) {
	idNum, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrInvalidParam)
		return
	}
	if err := op.CredentialDelete(idNum, c.Request.Context()); err != nil {
		resp.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	resp.Success(c, nil)
}

func testCredential(c *gin.Context) {
	idNum, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrInvalidParam)
		return
	}
	status, testErr := rotationManager.Test(c.Request.Context(), idNum)
	if status == "" {
		resp.Error(c, http.StatusNotFound, resp.ErrResourceNotFound)
		return
	}
	result := map[string]any{"id": idNum, "status": status}
	if testErr != nil {
		result["error"] = testErr.Error()
	}
	resp.Success(c, result)
}

func testAllCredentials(c *gin.Context) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		rotationManager.TestAll(ctx)
	}()
	resp.Success(c, nil)
}
