package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	validAlertStatuses = map[string]bool{AlertStatusSent: true, AlertStatusPending: true, AlertStatusFailed: true}
	validAlertTypes    = map[string]bool{AlertTypeSMS: true, AlertTypeEmail: true, AlertTypeBroadcast: true}
)

type CreateAlertRequest struct {
	Title     string `json:"title" binding:"required"`
	Message   string `json:"message"`
	Status    string `json:"status"`
	Type      string `json:"type"`
	Recipient string `json:"recipient"`
	Sender    string `json:"sender"`
}

func (a *API) ListAlerts(c *gin.Context) {
	alerts, err := a.store.ListAlerts(c.Request.Context(), 0)
	if err != nil {
		a.serverError(c, "failed to list alerts", err)
		return
	}
	c.JSON(http.StatusOK, alerts)
}

func (a *API) CreateAlert(c *gin.Context) {
	var body CreateAlertRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	title := strings.TrimSpace(body.Title)
	if title == "" {
		jsonError(c, http.StatusBadRequest, "title is required")
		return
	}

	status := defaultString(body.Status, AlertStatusSent)
	if !validAlertStatuses[status] {
		jsonError(c, http.StatusBadRequest, "status must be one of: Sent, Pending, Failed")
		return
	}
	alertType := defaultString(body.Type, AlertTypeBroadcast)
	if !validAlertTypes[alertType] {
		jsonError(c, http.StatusBadRequest, "type must be one of: SMS, Email, Broadcast")
		return
	}

	sender := strings.TrimSpace(body.Sender)
	if me, ok := currentUser(c); ok && sender == "" {
		sender = me.Name
	}

	alert := Alert{
		Title:     title,
		Message:   body.Message,
		Status:    status,
		Type:      alertType,
		Recipient: body.Recipient,
		Sender:    sender,
		Timestamp: time.Now().UTC(),
	}

	if err := a.store.CreateAlert(c.Request.Context(), &alert); err != nil {
		a.serverError(c, "failed to create alert", err)
		return
	}

	if a.alerts != nil {
		a.alerts.Publish(alert)
	}

	c.JSON(http.StatusCreated, gin.H{"id": alert.ID})
}

func defaultString(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}
