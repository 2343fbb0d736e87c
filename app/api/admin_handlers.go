package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/flipnews/app/database"
	"github.com/lysyi3m/flipnews/app/tasks"
)

const (
	defaultSyncListLimit = 20
	maxSyncListLimit     = 200
)

func (h *Handler) AdminStatus(c *gin.Context) {
	status := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format("2006-01-02 15:04:05"),
		"status":    "Healthy",
		"version":   h.version,
	}

	ctx := c.Request.Context()

	if usage, err := h.probe.Disk(ctx, h.dataDir); err == nil {
		status["disk_usage"] = usage
	} else {
		slog.Warn("Disk usage unavailable", "path", h.dataDir, "error", err)
	}

	if usage, err := h.probe.Memory(ctx); err == nil {
		status["memory_usage"] = usage
	} else {
		slog.Warn("Memory usage unavailable", "error", err)
	}

	if h.sources != nil {
		if count, err := h.sources.Count(); err == nil {
			status["sources_count"] = count
		}
	}

	if items, err := h.dataset.Read(); err == nil {
		status["published_items"] = len(items)
	}

	if h.runs != nil {
		if last, err := h.runs.Last(); err == nil && last != nil {
			status["last_sync"] = last
		}
	}

	if h.syncer != nil {
		if busy, ok := h.syncer.(interface{ Busy() bool }); ok {
			status["syncing"] = busy.Busy()
		}
	}

	c.JSON(http.StatusOK, status)
}

func (h *Handler) AdminListSources(c *gin.Context) {
	if h.sources == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Source registry unavailable"})
		return
	}

	sources, err := h.sources.List()
	if err != nil {
		slog.Error("Database error", "operation", "list_sources", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, sources)
}

func (h *Handler) AdminAddSource(c *gin.Context) {
	if h.sources == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Source registry unavailable"})
		return
	}

	var req SourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name and URL required"})
		return
	}

	name := strings.TrimSpace(req.Name)
	rawURL := strings.TrimSpace(req.URL)
	if name == "" || rawURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name and URL required"})
		return
	}

	if err := validateSourceURL(rawURL); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.sources.Upsert(name, rawURL)
	if err != nil {
		slog.Error("Database error", "operation", "upsert_source", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if created {
		slog.Info("Source added", "source", name, "url", rawURL)
	} else {
		slog.Info("Source updated", "source", name, "url", rawURL)
	}

	c.JSON(http.StatusCreated, gin.H{"message": fmt.Sprintf("Source %s added", name)})
}

func (h *Handler) AdminRemoveSource(c *gin.Context) {
	if h.sources == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Source registry unavailable"})
		return
	}

	name := c.Param("name")

	removed, err := h.sources.Delete(name)
	if err != nil {
		slog.Error("Database error", "operation", "delete_source", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "Source not found"})
		return
	}

	slog.Info("Source removed", "source", name)
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Source %s removed", name)})
}

func (h *Handler) AdminListSyncs(c *gin.Context) {
	if h.runs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Sync history unavailable"})
		return
	}

	limit := defaultSyncListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxSyncListLimit)
	}

	runs, err := h.runs.Recent(limit)
	if err != nil {
		slog.Error("Database error", "operation", "recent_syncs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"syncs": runs,
		"total": len(runs),
	})
}

func (h *Handler) AdminEnqueueSync(c *gin.Context) {
	if h.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Task scheduler unavailable"})
		return
	}

	taskID, err := h.scheduler.EnqueueSync(database.TriggerAdmin)
	if err != nil {
		slog.Error("Error enqueueing sync task", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to enqueue sync task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Sync task enqueued",
		"task":    gin.H{"id": taskID, "type": tasks.TaskTypeSyncFeed},
	})
}

func (h *Handler) AdminEnqueueSourceCrawl(c *gin.Context) {
	if h.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Task scheduler unavailable"})
		return
	}

	taskID, err := h.scheduler.EnqueueSourceCrawl(database.TriggerAdmin)
	if err != nil {
		slog.Error("Error enqueueing source crawl task", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to enqueue source crawl task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Source crawl task enqueued",
		"task":    gin.H{"id": taskID, "type": tasks.TaskTypeCrawlSources},
	})
}

func validateSourceURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.New("URL must be an absolute http(s) URL")
	}
	return nil
}
