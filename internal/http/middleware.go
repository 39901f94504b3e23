package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"shop-api/internal/auth"
	"shop-api/internal/domain"
)

const (
	identityKey   = "identity"
	resourceIDKey = "resourceID"
)

// OwnerResolver reports which customer owns the resource with the given id.
// Implementations return domain.ErrNotFound for unknown ids.
type OwnerResolver interface {
	OwnerOf(ctx context.Context, id int64) (int64, error)
}

// requireAuth admits requests carrying a valid bearer token for a customer
// that still exists. Every rejection gets the same 401 body.
func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			recordAuthAttempt("token", false)
			abortUnauthorized(c)
			return
		}

		customer, err := h.auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			recordAuthAttempt("token", false)
			if errors.Is(err, domain.ErrUnauthorized) {
				h.logger.WithError(err).Debug("bearer token rejected")
				abortUnauthorized(c)
				return
			}
			h.writeError(c, err)
			return
		}

		recordAuthAttempt("token", true)
		c.Set(identityKey, customer)
		c.Next()
	}
}

// requireOwner loads the owner of the :id resource and lets the request
// through only when it matches the authenticated customer. Unknown ids are
// reported as 404 before ownership is considered.
func (h *Handler) requireOwner(resolver OwnerResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}

		ownerID, err := resolver.OwnerOf(c.Request.Context(), id)
		if err != nil {
			h.writeError(c, err)
			return
		}

		identity := identityFrom(c)
		if identity == nil || !auth.Owns(identity.ID, ownerID) {
			abortWithError(c, http.StatusForbidden, "Forbidden resource")
			return
		}

		c.Set(resourceIDKey, id)
		c.Next()
	}
}

func identityFrom(c *gin.Context) *domain.Customer {
	value, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	customer, _ := value.(*domain.Customer)
	return customer
}

func resourceID(c *gin.Context) int64 {
	return c.GetInt64(resourceIDKey)
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		abortWithError(c, http.StatusBadRequest, []string{"id must be a positive integer"})
		return 0, false
	}
	return id, true
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := h.logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
		})
		if identity := identityFrom(c); identity != nil {
			entry = entry.WithField("customer_id", identity.ID)
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("request failed")
		default:
			entry.Info("request")
		}
	}
}
