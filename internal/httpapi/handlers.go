// Package httpapi is the thin transport shell: parse/validate input, call
// internal services, return JSON. No business logic here.
package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"voca-platform/internal/audit"
	"voca-platform/internal/leads"
	"voca-platform/internal/reconciler"
	"voca-platform/internal/reporting"
	"voca-platform/internal/store"
	"voca-platform/internal/telephony"
	"voca-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
type Handlers struct {
	Store      store.Store
	Reconciler *reconciler.Reconciler
	Reporting  *reporting.Service
	Audit      *audit.Service
}

func (h Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Bridge returns the ExoML that connects an answered telephony leg into
// the voice-AI session named by joinUrl. Exotel fetches this URL itself;
// it is public by necessity.
func (h Handlers) Bridge(c *gin.Context) {
	joinURL := c.Query("joinUrl")
	if joinURL == "" {
		c.String(http.StatusBadRequest, "Missing joinUrl")
		return
	}
	doc, err := telephony.RenderBridge(joinURL)
	if err != nil {
		c.String(http.StatusInternalServerError, "bridge render failed")
		return
	}
	c.Data(http.StatusOK, "application/xml", []byte(doc))
}

// VoiceAIWebhook receives call lifecycle events from the voice-AI
// provider. Only call.ended mutates state.
func (h Handlers) VoiceAIWebhook(c *gin.Context) {
	var ev reconciler.Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	if err := h.Reconciler.HandleEvent(c.Request.Context(), ev); err != nil {
		if errors.Is(err, reconciler.ErrMissingCallID) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "callId required"})
			return
		}
		logger.FromGin(c).Error("webhook processing failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

// TelephonyStatusCallback logs Exotel terminal status updates. No state
// effect; the lifecycle is driven by the voice-AI webhook.
func (h Handlers) TelephonyStatusCallback(c *gin.Context) {
	form, err := telephony.ParseStatusCallback(c.Request)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}
	logger.FromGin(c).Info("telephony status callback",
		"call_sid", form.CallSid,
		"event_type", form.EventType,
		"status", form.Status,
	)
	c.Status(http.StatusOK)
}

// UploadLeads ingests a CSV of leads (Name, Phone). Rows missing either
// field are silently skipped.
func (h Handlers) UploadLeads(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	defer f.Close()

	parsed, err := leads.ParseCSV(f, time.Now())
	if err != nil {
		logger.FromGin(c).Error("csv parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Failed to parse CSV"})
		return
	}

	count, err := h.Store.InsertLeads(c.Request.Context(), parsed)
	if err != nil {
		logger.FromGin(c).Error("lead insert failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to store leads"})
		return
	}

	h.Audit.Record(c.Request.Context(), audit.EventTypeLeadsImported, "", "", fmt.Sprintf("imported %d leads", count))
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Successfully added %d leads", count),
		"count":   count,
	})
}

// StartCampaign marks every pending lead ready for dispatch.
func (h Handlers) StartCampaign(c *gin.Context) {
	count, err := h.Store.BulkTransition(c.Request.Context(), leads.StatusPending, leads.StatusReady)
	if err != nil {
		logger.FromGin(c).Error("campaign start failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "campaign start failed"})
		return
	}
	h.Audit.Record(c.Request.Context(), audit.EventTypeCampaignStarted, "", "", fmt.Sprintf("activated %d leads", count))
	c.JSON(http.StatusOK, gin.H{
		"message":         "Campaign started",
		"leads_activated": count,
	})
}

func (h Handlers) Dashboard(c *gin.Context) {
	dash, err := h.Reporting.Dashboard(c.Request.Context())
	if err != nil {
		logger.FromGin(c).Error("dashboard query failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "dashboard query failed"})
		return
	}
	c.JSON(http.StatusOK, dash)
}
