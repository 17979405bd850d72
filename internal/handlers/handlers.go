package handlers

import (
	"net/http"
	"strconv"
	"time"

	"printfarm-backend/internal/models"
	"printfarm-backend/internal/services"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	printerService *services.PrinterService
	statsService   *services.PrinterStatsService
	projectService *services.ProjectService
	syncService    *services.SyncService

	// nil when no collector endpoint is configured
	collector services.CollectorFunc

	officeHours  services.OfficeHours
	launchWindow services.LaunchWindow

	bambuIntervalSeconds  int
	elegooIntervalSeconds int
}

func NewHandler(printerService *services.PrinterService, statsService *services.PrinterStatsService, projectService *services.ProjectService, syncService *services.SyncService, collector services.CollectorFunc, officeHours services.OfficeHours, launchWindow services.LaunchWindow, bambuIntervalSeconds, elegooIntervalSeconds int) *Handler {
	return &Handler{
		printerService:        printerService,
		statsService:          statsService,
		projectService:        projectService,
		syncService:           syncService,
		collector:             collector,
		officeHours:           officeHours,
		launchWindow:          launchWindow,
		bambuIntervalSeconds:  bambuIntervalSeconds,
		elegooIntervalSeconds: elegooIntervalSeconds,
	}
}

// SyncPrinters ingests a Bambu collector result set and runs a sync cycle.
// The MQTT fetch itself happens outside this service; this endpoint receives
// the normalized snapshots.
func (h *Handler) SyncPrinters(c *gin.Context) {
	h.ingestSync(c, h.bambuIntervalSeconds)
}

// ElegooSync ingests a status push from the local Elegoo hub.
func (h *Handler) ElegooSync(c *gin.Context) {
	h.ingestSync(c, h.elegooIntervalSeconds)
}

func (h *Handler) ingestSync(c *gin.Context, intervalSeconds int) {
	var req models.PrinterSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if len(req.Printers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "No printers in payload",
		})
		return
	}

	now := time.Now()
	snapshots := make([]models.PrinterSnapshot, 0, len(req.Printers))
	for i := range req.Printers {
		snapshots = append(snapshots, req.Printers[i].ToSnapshot(now))
	}

	summary, err := h.syncService.RunCycle(snapshots, intervalSeconds)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Sync failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// TriggerSync runs a collector-driven sync cycle on demand; it is the cron
// alternative to the in-process scheduler.
func (h *Handler) TriggerSync(c *gin.Context) {
	if h.collector == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "No collector configured",
		})
		return
	}

	snapshots, err := h.collector(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Collector fetch failed",
			"details": err.Error(),
		})
		return
	}

	summary, err := h.syncService.RunCycle(snapshots, h.bambuIntervalSeconds)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Sync failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// EstimatePrintTime estimates print duration from model volume and material,
// plus completion times for a job queued now: the print launches at the next
// launch-window start and runs around the clock; optional post-processing
// minutes are then worked off during office hours.
func (h *Handler) EstimatePrintTime(c *gin.Context) {
	volume, err := strconv.ParseFloat(c.Query("volume"), 64)
	if err != nil || volume <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Query parameter 'volume' must be a positive number (cm3)",
		})
		return
	}

	material := c.DefaultQuery("material", "PLA")
	minutes := services.EstimatePrintMinutes(volume, material)

	now := time.Now()
	printDoneAt := services.EstimateQueuedCompletion(now, minutes, h.launchWindow)

	resp := gin.H{
		"material":          material,
		"volume_cm3":        volume,
		"estimated_minutes": minutes,
		"print_done_at":     printDoneAt,
	}

	if pp := c.Query("postprocess_minutes"); pp != "" {
		ppMinutes, err := strconv.Atoi(pp)
		if err != nil || ppMinutes < 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Query parameter 'postprocess_minutes' must be a non-negative integer",
			})
			return
		}
		resp["ready_at"] = h.officeHours.AddWorkMinutes(printDoneAt, ppMinutes)
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetPrinters(c *gin.Context) {
	printers, err := h.printerService.GetAllPrinters()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get printers",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"printers": printers,
		"count":    len(printers),
	})
}

func (h *Handler) GetPrinterJobs(c *gin.Context) {
	printerID := c.Param("id")
	if printerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Printer ID is required",
		})
		return
	}

	jobs, err := h.printerService.GetPrinterJobs(printerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get printer jobs",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

func (h *Handler) GetPrinterStats(c *gin.Context) {
	printerID := c.Param("id")
	if printerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Printer ID is required",
		})
		return
	}

	from := c.Query("from")
	to := c.Query("to")
	if from == "" || to == "" {
		// Default to the last 30 days
		now := time.Now()
		to = now.Format("2006-01-02")
		from = now.AddDate(0, 0, -30).Format("2006-01-02")
	}

	stats, err := h.statsService.GetDailyStats(printerID, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get printer stats",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats": stats,
		"from":  from,
		"to":    to,
	})
}

func (h *Handler) GetProjects(c *gin.Context) {
	projects, err := h.projectService.GetAllProjects()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get projects",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"projects": projects,
		"count":    len(projects),
	})
}

func (h *Handler) GetProject(c *gin.Context) {
	projectID := c.Param("id")
	if projectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Project ID is required",
		})
		return
	}

	summary, err := h.projectService.GetProjectSummary(projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get project",
			"details": err.Error(),
		})
		return
	}
	if summary == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Project not found",
		})
		return
	}

	c.JSON(http.StatusOK, summary)
}
