package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/YnTheNerd/cleanspot/internal/auth"
)

type credentialsRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": auth.MsgBadCredentials})
		return
	}

	identity, err := h.provider.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		var coded *auth.CodedError
		if errors.As(err, &coded) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": auth.LoginMessage(coded.Code)})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": auth.MsgLoginFailed})
		return
	}

	h.session.Set(identity)
	c.JSON(http.StatusOK, identity)
}

func (h *Handler) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": auth.MsgRegisterFailed})
		return
	}

	identity, err := h.provider.Register(c.Request.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		var coded *auth.CodedError
		if errors.As(err, &coded) {
			c.JSON(http.StatusBadRequest, gin.H{"error": auth.RegisterMessage(coded.Code)})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": auth.MsgRegisterFailed})
		return
	}

	h.session.Set(identity)
	c.JSON(http.StatusCreated, identity)
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.provider.Logout(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": auth.MsgLoginFailed})
		return
	}
	h.session.Set(nil)
	c.Status(http.StatusNoContent)
}

func (h *Handler) resetPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": auth.MsgInvalidEmail})
		return
	}

	// Always accept so the response does not reveal whether an
	// account exists.
	if err := h.provider.ResetPassword(c.Request.Context(), req.Email); err != nil {
		var coded *auth.CodedError
		if errors.As(err, &coded) && coded.Code == auth.CodeInvalidEmail {
			c.JSON(http.StatusBadRequest, gin.H{"error": auth.MsgInvalidEmail})
			return
		}
	}
	c.Status(http.StatusNoContent)
}
