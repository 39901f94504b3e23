package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"shop-api/internal/domain"
	"shop-api/internal/service"
)

type updateCustomerRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email" binding:"omitempty,email"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6,max=72"`
}

func (h *Handler) currentCustomer(c *gin.Context) {
	c.JSON(http.StatusOK, customerToResponse(identityFrom(c)))
}

func (h *Handler) getCustomer(c *gin.Context) {
	customer, err := h.customers.Get(c.Request.Context(), resourceID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, customerToResponse(customer))
}

func (h *Handler) updateCustomer(c *gin.Context) {
	var req updateCustomerRequest
	if !bindJSON(c, &req) {
		return
	}

	customer, err := h.customers.UpdateProfile(c.Request.Context(), resourceID(c), service.ProfileUpdate{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			abortWithError(c, http.StatusConflict, "Customer already exists")
			return
		}
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, customerToResponse(customer))
}

func (h *Handler) changePassword(c *gin.Context) {
	var req changePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.customers.ChangePassword(c.Request.Context(), resourceID(c), req.CurrentPassword, req.NewPassword); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) deleteCustomer(c *gin.Context) {
	if err := h.customers.Delete(c.Request.Context(), resourceID(c)); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
