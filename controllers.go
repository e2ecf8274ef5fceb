package main

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// API holds the dependencies shared by every route handler.
type API struct {
	store  Store
	tokens *TokenIssuer
	alerts *AlertHub
	log    *slog.Logger
}

func NewAPI(store Store, tokens *TokenIssuer, alerts *AlertHub, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{store: store, tokens: tokens, alerts: alerts, log: logger}
}

// -----------------------------
// Helper functions
// -----------------------------

func jsonError(c *gin.Context, code int, msg string) {
	c.JSON(code, gin.H{"error": msg})
}

// serverError logs the cause and answers with the generic 500 body.
func (a *API) serverError(c *gin.Context, msg string, err error) {
	a.log.Error(msg,
		"error", err,
		"method", c.Request.Method,
		"path", c.FullPath(),
		"request_id", c.GetString(requestIDKey),
	)
	jsonError(c, http.StatusInternalServerError, "Server error")
}

// parseIDParam reads a positive integer path parameter. On failure it has
// already written a 400 response.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id64, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id64 == 0 {
		jsonError(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return uint(id64), true
}

// currentUser returns the identity AuthMiddleware attached to the request.
func currentUser(c *gin.Context) (AuthenticatedUser, bool) {
	v, exists := c.Get(contextUserKey)
	if !exists {
		return AuthenticatedUser{}, false
	}
	u, ok := v.(AuthenticatedUser)
	return u, ok
}
