package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"reqsync/internal/models"
	"reqsync/storage/store"
)

var mobilePattern = regexp.MustCompile(`^07[7-9]\d{8}$`)

// Submitter is the ingestion entry point the handler forwards new requests to
type Submitter interface {
	Submit(ctx context.Context, payload models.Payload) (*models.Record, error)
}

// RequestHandler serves the request submission and local listing API
type RequestHandler struct {
	svc       Submitter
	store     store.Store
	remoteURL string
	logger    *log.Logger
}

// NewRequestHandler creates a new RequestHandler
func NewRequestHandler(svc Submitter, s store.Store, remoteURL string, l *log.Logger) *RequestHandler {
	return &RequestHandler{svc: svc, store: s, remoteURL: remoteURL, logger: l}
}

// Register mounts the routes under /api
func (h *RequestHandler) Register(r gin.IRouter) {
	api := r.Group("/api")
	api.POST("/requests", h.SubmitRequest)
	api.GET("/local-requests", h.ListRequests)
	api.GET("/local-requests/:id", h.GetRequest)
	api.GET("/health", h.HealthCheck)
}

type submitRequest struct {
	Name     string `json:"name"`
	Mobile   string `json:"mobile"`
	Type     string `json:"type"`
	Location string `json:"location"`
	Size     string `json:"size"`
	Price    string `json:"price"`
	SaleType string `json:"saleType"`
	Notes    string `json:"notes"`
}

func (r submitRequest) payload() models.Payload {
	return models.Payload{
		Name:     strings.TrimSpace(r.Name),
		Mobile:   strings.Join(strings.Fields(r.Mobile), ""),
		Type:     strings.TrimSpace(r.Type),
		Location: strings.TrimSpace(r.Location),
		Size:     strings.TrimSpace(r.Size),
		Price:    strings.TrimSpace(r.Price),
		SaleType: strings.TrimSpace(r.SaleType),
		Notes:    strings.TrimSpace(r.Notes),
	}
}

// SubmitRequest handles POST /api/requests
func (h *RequestHandler) SubmitRequest(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, "invalid JSON body")
		return
	}

	p := req.payload()
	if p.Name == "" || p.Mobile == "" {
		h.respondError(c, http.StatusBadRequest, "name and mobile are required")
		return
	}
	if !mobilePattern.MatchString(p.Mobile) {
		h.respondError(c, http.StatusBadRequest, "mobile must be an 11 digit number starting with 077, 078 or 079")
		return
	}

	rec, err := h.svc.Submit(c.Request.Context(), p)
	if err != nil {
		h.logger.Printf("HTTP Handler: submission failed: %v", err)
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrCapacityExceeded) {
			status = http.StatusInsufficientStorage
		}
		h.respondError(c, status, "request could not be saved")
		return
	}

	message := "Request saved locally, it will be forwarded when the admin system is reachable"
	if rec.SyncedToRemote {
		message = "Request saved and forwarded to the admin system"
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": message,
		"data":    rec,
		"synced":  rec.SyncedToRemote,
	})
}

// ListRequests handles GET /api/local-requests[?sync=pending|synced|rejected]
func (h *RequestHandler) ListRequests(c *gin.Context) {
	filter := models.SyncState(c.Query("sync"))
	if filter != "" && !filter.Valid() {
		h.respondError(c, http.StatusBadRequest, "sync must be one of pending, synced, rejected")
		return
	}

	records, err := h.store.List(c.Request.Context())
	if err != nil {
		h.logger.Printf("HTTP Handler: listing failed: %v", err)
		h.respondError(c, http.StatusInternalServerError, "records could not be read")
		return
	}

	data := make([]models.Record, 0, len(records))
	for _, rec := range records {
		if filter == "" || rec.SyncState == filter {
			data = append(data, rec)
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(data), "data": data})
}

// GetRequest handles GET /api/local-requests/:id
func (h *RequestHandler) GetRequest(c *gin.Context) {
	rec, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		h.respondError(c, http.StatusNotFound, "request not found")
		return
	}
	if err != nil {
		h.logger.Printf("HTTP Handler: get failed: %v", err)
		h.respondError(c, http.StatusInternalServerError, "record could not be read")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": rec})
}

// HealthCheck handles GET /api/health
func (h *RequestHandler) HealthCheck(c *gin.Context) {
	records, err := h.store.List(c.Request.Context())
	if err != nil {
		h.logger.Printf("HTTP Handler: health listing failed: %v", err)
		h.respondError(c, http.StatusServiceUnavailable, "record store unavailable")
		return
	}

	counts := map[string]int{
		"total":                     len(records),
		string(models.SyncPending):  0,
		string(models.SyncSynced):   0,
		string(models.SyncRejected): 0,
	}
	for _, rec := range records {
		counts[string(rec.SyncState)]++
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"records":   counts,
		"remote":    h.remoteURL,
	})
}

func (h *RequestHandler) respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": message})
}
