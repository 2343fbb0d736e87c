package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/flipnews/app/feed"
	"github.com/lysyi3m/flipnews/app/pipeline"
	"github.com/lysyi3m/flipnews/app/store"
)

func NewHandler(deps Dependencies) *Handler {
	generator := deps.Generator
	if generator == nil {
		generator = feed.NewGenerator()
	}

	probe := deps.Probe
	if probe == nil {
		probe = NewHostProbe()
	}

	return &Handler{
		syncer:      deps.Syncer,
		topics:      deps.Topics,
		preferences: deps.Preferences,
		notes:       deps.Notes,
		visuals:     deps.Visuals,
		dataset:     deps.Dataset,
		generator:   generator,
		sources:     deps.Sources,
		runs:        deps.Runs,
		scheduler:   deps.Scheduler,
		probe:       probe,
		dataDir:     deps.DataDir,
		baseURL:     deps.BaseURL,
		version:     deps.Version,
		syncTimeout: deps.SyncTimeout,
	}
}

func (h *Handler) Sync(c *gin.Context) {
	var req SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}
	if req.Topics == nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "topics must be an array"})
		return
	}

	topics, err := h.topics.Resolve(req.Topics)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if h.syncTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.syncTimeout)
		defer cancel()
	}

	report, err := h.syncer.Sync(ctx, topics)
	if err != nil {
		response := gin.H{
			"success": false,
			"error":   err.Error(),
		}

		var stepErr *pipeline.StepError
		if errors.As(err, &stepErr) {
			response["step"] = stepErr.Step
		}
		if report != nil {
			response["crawlOutput"] = report.CrawlOutput
		}

		slog.Error("Sync failed", "topics", topics, "error", err)
		c.JSON(http.StatusInternalServerError, response)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "Preferences updated and news synced.",
		"crawlOutput": report.CrawlOutput,
		"syncOutput":  report.PublishOutput,
		"itemCount":   report.ItemCount,
	})
}

func (h *Handler) GetNote(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "News ID is required"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"note": h.notes.Get(id)})
}

func (h *Handler) SaveNote(c *gin.Context) {
	var req NoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.NewsID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "News ID is required"})
		return
	}

	if err := h.notes.Set(req.NewsID, req.Note); err != nil {
		slog.Error("Failed to save note", "news_id", req.NewsID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save note"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Note saved"})
}

func (h *Handler) GetVisuals(c *gin.Context) {
	settings, err := h.visuals.Get()
	if err != nil {
		slog.Error("Failed to load visual settings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load settings"})
		return
	}

	c.JSON(http.StatusOK, settings)
}

func (h *Handler) UpdateVisuals(c *gin.Context) {
	var patch store.VisualSettings
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	settings, err := h.visuals.Update(patch)
	if err != nil {
		slog.Error("Failed to save visual settings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save settings"})
		return
	}

	c.JSON(http.StatusOK, settings)
}

func (h *Handler) GetNews(c *gin.Context) {
	items, err := h.dataset.Read()
	if err != nil {
		slog.Error("Failed to read published dataset", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load news"})
		return
	}

	c.Header("X-Feed-Items", strconv.Itoa(len(items)))
	c.JSON(http.StatusOK, items)
}

func (h *Handler) GetNewsRSS(c *gin.Context) {
	items, err := h.dataset.Read()
	if err != nil {
		slog.Error("Failed to read published dataset", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	channel := feed.ChannelInfo{
		Title:       "FlipNews",
		Link:        h.baseURL,
		Description: "Your personalized news feed",
		Generator:   "FlipNews/" + h.version,
	}
	if h.baseURL != "" {
		channel.SelfLink = h.baseURL + "/news.rss"
	}

	rss, err := h.generator.Run(channel, items)
	if err != nil {
		slog.Error("RSS generation error", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(items)))

	c.String(http.StatusOK, rss)
}

func (h *Handler) GetTopics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"topics": h.topics.Names()})
}

func (h *Handler) GetPreferences(c *gin.Context) {
	prefs, err := h.preferences.Read()
	if err != nil {
		slog.Error("Failed to read preferences", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load preferences"})
		return
	}

	c.JSON(http.StatusOK, prefs)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   h.version,
	}

	if items, err := h.dataset.Read(); err == nil {
		health["published_items"] = len(items)
	}

	c.JSON(http.StatusOK, health)
}
