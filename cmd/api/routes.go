package main

import (
	"voca-platform/internal/httpapi"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers) {
	r.GET("/healthz", h.Health)

	// Provider-facing endpoints (public by necessity: Exotel and Ultravox
	// call them directly).
	// NOTE: in production these should be protected by provider signature
	// validation or network-level allow-listing.
	r.GET("/connect-to-uv", h.Bridge)
	r.POST("/connect-to-uv", h.Bridge)
	r.POST("/webhook/ultravox", h.VoiceAIWebhook)
	r.POST("/webhook/exotel_status", h.TelephonyStatusCallback)

	// Dashboard API.
	api := r.Group("/api")
	{
		api.POST("/upload", h.UploadLeads)
		api.POST("/start_campaign", h.StartCampaign)
		api.GET("/dashboard", h.Dashboard)
	}
}
