package http

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/docuflow/report-routing/internal/application/port"
	"github.com/docuflow/report-routing/internal/application/service"
	appwf "github.com/docuflow/report-routing/internal/application/workflow"
	domainwf "github.com/docuflow/report-routing/internal/domain/workflow"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	engine        appwf.Engine
	reportService service.ReportService
	blobStorage   port.BlobStorage
	logger        *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	engine appwf.Engine,
	reportService service.ReportService,
	blobStorage port.BlobStorage,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		engine:        engine,
		reportService: reportService,
		blobStorage:   blobStorage,
		logger:        logger,
	}
}

// Response represents a standard JSON envelope
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// CreateReportRequest is the body of POST /api/reports
type CreateReportRequest struct {
	LetterNumber string                   `json:"letter_number"`
	Subject      string                   `json:"subject" binding:"required"`
	Sender       string                   `json:"sender"`
	Service      string                   `json:"service"`
	AgendaNumber string                   `json:"agenda_number"`
	LetterDate   string                   `json:"letter_date"`
	AgendaDate   string                   `json:"agenda_date"`
	Priority     string                   `json:"priority"`
	Attachments  []CreateReportAttachment `json:"attachments"`
}

// CreateReportAttachment references a previously uploaded file
type CreateReportAttachment struct {
	FileName string `json:"file_name" binding:"required"`
	FileURL  string `json:"file_url" binding:"required"`
	Size     int64  `json:"size"`
}

// TransitionRequest is the body of POST /api/workflow/transitions
type TransitionRequest struct {
	ReportID       string   `json:"report_id" binding:"required"`
	TransitionType string   `json:"transition_type" binding:"required"`
	CoordinatorID  string   `json:"coordinator_id"`
	StaffID        string   `json:"staff_id"`
	TodoList       []string `json:"todo_list"`
	Notes          string   `json:"notes"`
}

// UploadResponse is the result of POST /api/upload
type UploadResponse struct {
	URL      string `json:"url"`
	FileName string `json:"file_name"`
	Size     int64  `json:"size"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"status":  "healthy",
			"service": "report-routing",
			"time":    time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// CreateReport handles POST /api/reports
func (h *Handlers) CreateReport(c *gin.Context) {
	var req CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	input := service.CreateReportInput{
		LetterNumber: req.LetterNumber,
		Subject:      req.Subject,
		Sender:       req.Sender,
		Service:      req.Service,
		AgendaNumber: req.AgendaNumber,
		Priority:     req.Priority,
	}
	if d, ok := parseDate(req.LetterDate); ok {
		input.LetterDate = &d
	}
	if d, ok := parseDate(req.AgendaDate); ok {
		input.AgendaDate = &d
	}
	for _, att := range req.Attachments {
		input.Attachments = append(input.Attachments, service.AttachmentInput{
			FileName: att.FileName,
			FileURL:  att.FileURL,
			Size:     att.Size,
		})
	}

	report, err := h.reportService.Create(c.Request.Context(), currentActor(c), input)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: report})
}

// ListReports handles GET /api/reports
func (h *Handlers) ListReports(c *gin.Context) {
	limit, offset := pagination(c)

	reports, err := h.reportService.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: reports})
}

// GetReport handles GET /api/reports/:id
func (h *Handlers) GetReport(c *gin.Context) {
	detail, err := h.reportService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: detail})
}

// GetReportHistory handles GET /api/reports/:id/history
func (h *Handlers) GetReportHistory(c *gin.Context) {
	detail, err := h.reportService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: detail.History})
}

// GetReportAssignments handles GET /api/reports/:id/assignments
func (h *Handlers) GetReportAssignments(c *gin.Context) {
	detail, err := h.reportService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: detail.Assignments})
}

// ApplyTransition handles POST /api/workflow/transitions
func (h *Handlers) ApplyTransition(c *gin.Context) {
	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	actor := currentActor(c)
	result, err := h.engine.ApplyTransition(
		c.Request.Context(),
		req.ReportID,
		domainwf.Kind(req.TransitionType),
		actor.ID,
		domainwf.Role(actor.Role),
		appwf.TransitionPayload{
			CoordinatorID: req.CoordinatorID,
			StaffID:       req.StaffID,
			TodoList:      req.TodoList,
			Notes:         req.Notes,
		},
	)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// AvailableTransitions handles GET /api/workflow/transitions?report_id=...
func (h *Handlers) AvailableTransitions(c *gin.Context) {
	reportID := c.Query("report_id")
	if reportID == "" {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "report_id is required"})
		return
	}

	detail, err := h.reportService.Get(c.Request.Context(), reportID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	actor := currentActor(c)
	kinds := h.engine.AvailableTransitions(
		domainwf.Status(detail.Report.Status),
		domainwf.Role(actor.Role),
	)

	c.JSON(http.StatusOK, Response{Success: true, Data: kinds})
}

// Upload handles POST /api/upload
func (h *Handlers) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "no file provided"})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("Failed to read upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "upload failed"})
		return
	}

	blob, err := h.blobStorage.Store(c.Request.Context(), content, header.Filename)
	if err != nil {
		h.logger.Error("Failed to store upload",
			zap.String("file_name", header.Filename),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "upload failed"})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: UploadResponse{
		URL:      blob.URL,
		FileName: blob.FileName,
		Size:     blob.Size,
	}})
}

// respondError maps the engine error taxonomy onto HTTP status codes
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch appwf.KindOf(err) {
	case appwf.ErrorNotFound:
		status = http.StatusNotFound
	case appwf.ErrorUnauthorized:
		status = http.StatusUnauthorized
	case appwf.ErrorForbidden:
		status = http.StatusForbidden
	case appwf.ErrorInvalidInput:
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.Error(err))
	}

	c.JSON(status, Response{Success: false, Error: errMessage(err)})
}

// errMessage prefers the structured message over the wrapped chain
func errMessage(err error) string {
	if wfErr, ok := err.(*appwf.Error); ok {
		return wfErr.Message
	}
	return err.Error()
}

// pagination reads limit/offset query params with sane bounds
func pagination(c *gin.Context) (limit, offset int) {
	limit, offset = 20, 0
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}

// parseDate accepts the date-only wire format used by the intake form
func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}
