package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"shop-api/internal/domain"
	"shop-api/internal/service"
)

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		recordAuthAttempt("register", false)
		if errors.Is(err, domain.ErrConflict) {
			abortWithError(c, http.StatusConflict, "Customer already exists")
			return
		}
		h.writeError(c, err)
		return
	}

	recordAuthAttempt("register", true)
	c.JSON(http.StatusCreated, sessionToResponse(session))
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	// a body that cannot be read is a failed login like any other
	if err := c.ShouldBindJSON(&req); err != nil {
		recordAuthAttempt("login", false)
		h.writeError(c, domain.ErrInvalidCredentials)
		return
	}

	session, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		recordAuthAttempt("login", false)
		h.writeError(c, err)
		return
	}

	recordAuthAttempt("login", true)
	c.JSON(http.StatusOK, sessionToResponse(session))
}
