package handler

import (
	"errors"
	"net/http"

	"formgateway/internal/model"
	"formgateway/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/useinsider/go-pkg/inslogger"
)

const (
	msgInvalidPayload     = "Invalid request payload"
	msgSubmitted          = "Form submitted successfully"
	msgUpdated            = "Record updated"
	msgEmailExists        = "Email already exists"
	msgEmailNotFound      = "Email not found"
	msgRecordNotFound     = "Record not found"
	msgSubmissionFailed   = "Submission failed"
	msgFetchFailed        = "Failed to fetch submissions"
	msgLookupFailed       = "Lookup failed"
	msgUpdateFailed       = "Update failed"
	msgServerRunning      = "Server is running"
	msgServerRunningExtra = "Form API is active"
)

// SubmissionHandler serves the form API. Business failures answer 200 with
// success=false, malformed bodies 400, and record store failures 502.
type SubmissionHandler struct {
	intakeService service.IntakeService
	logger        inslogger.Interface
}

func NewSubmissionHandler(intakeService service.IntakeService, logger inslogger.Interface) *SubmissionHandler {
	return &SubmissionHandler{
		intakeService: intakeService,
		logger:        logger,
	}
}

// Health reports that the server is up. It never contacts the record store.
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} model.HealthResponse
// @Router / [get]
func (h *SubmissionHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, model.HealthResponse{
		Status:  msgServerRunning,
		Message: msgServerRunningExtra,
	})
}

// SubmitForm stores a new submission unless its email is already known.
// @Summary Submit a form
// @Description Validate a submission, reject duplicate emails and store it
// @Tags submissions
// @Accept json
// @Accept x-www-form-urlencoded
// @Produce json
// @Param submission body model.SubmitFormRequest true "Form submission"
// @Success 200 {object} model.Response
// @Failure 400 {object} model.Response
// @Failure 502 {object} model.Response
// @Router /api/submit-form [post]
func (h *SubmissionHandler) SubmitForm(c *gin.Context) {
	var req model.SubmitFormRequest
	if err := c.ShouldBind(&req); err != nil {
		h.invalidPayload(c, err)
		return
	}

	record, err := h.intakeService.Submit(c.Request.Context(), req.Submission())
	if err != nil {
		h.writeError(c, err, msgSubmissionFailed)
		return
	}

	item := model.NewSubmissionItem(record)
	c.JSON(http.StatusOK, model.Response{
		Success: true,
		Message: msgSubmitted,
		Item:    &item,
	})
}

// GetSubmissions lists every stored submission, newest first.
// @Summary List submissions
// @Tags submissions
// @Produce json
// @Success 200 {object} model.Response{data=[]model.SubmissionItem}
// @Failure 502 {object} model.Response
// @Router /api/get-submissions [get]
func (h *SubmissionHandler) GetSubmissions(c *gin.Context) {
	records, err := h.intakeService.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err, msgFetchFailed)
		return
	}

	items := make([]model.SubmissionItem, 0, len(records))
	for _, r := range records {
		items = append(items, model.NewSubmissionItem(r))
	}
	total := len(items)

	c.JSON(http.StatusOK, model.Response{
		Success: true,
		Data:    items,
		Total:   &total,
	})
}

// GetByEmail returns the submission stored under an email.
// @Summary Look up a submission by email
// @Tags submissions
// @Accept json
// @Produce json
// @Param request body model.GetByEmailRequest true "Email to look up"
// @Success 200 {object} model.Response{data=model.ContactDetails}
// @Failure 400 {object} model.Response
// @Failure 502 {object} model.Response
// @Router /api/get-by-email [post]
func (h *SubmissionHandler) GetByEmail(c *gin.Context) {
	var req model.GetByEmailRequest
	if err := c.ShouldBind(&req); err != nil {
		h.invalidPayload(c, err)
		return
	}

	record, err := h.intakeService.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		h.writeError(c, err, msgLookupFailed)
		return
	}

	c.JSON(http.StatusOK, model.Response{
		Success: true,
		Data:    model.NewContactDetails(record),
	})
}

// UpdateRecord overwrites name, email, phone and message of a record.
// @Summary Update a submission
// @Description Full overwrite: fields left out of the request are stored empty
// @Tags submissions
// @Accept json
// @Produce json
// @Param request body model.UpdateRecordRequest true "Record id and new fields"
// @Success 200 {object} model.Response
// @Failure 400 {object} model.Response
// @Failure 502 {object} model.Response
// @Router /api/update-record [post]
func (h *SubmissionHandler) UpdateRecord(c *gin.Context) {
	var req model.UpdateRecordRequest
	if err := c.ShouldBind(&req); err != nil {
		h.invalidPayload(c, err)
		return
	}

	if err := h.intakeService.Update(c.Request.Context(), req.ID, req.Fields()); err != nil {
		h.writeError(c, err, msgUpdateFailed)
		return
	}

	c.JSON(http.StatusOK, model.Response{
		Success: true,
		Message: msgUpdated,
	})
}

func (h *SubmissionHandler) invalidPayload(c *gin.Context, err error) {
	h.logger.Warnf("Invalid request payload on %s: %v", c.FullPath(), err)
	c.JSON(http.StatusBadRequest, model.Response{Error: msgInvalidPayload})
}

// writeError maps service errors to responses. Store details stay in the logs.
func (h *SubmissionHandler) writeError(c *gin.Context, err error, storeFailure string) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusOK, model.Response{Error: validationErr.Message})
	case errors.Is(err, service.ErrEmailExists):
		c.JSON(http.StatusOK, model.Response{Error: msgEmailExists})
	case errors.Is(err, service.ErrEmailNotFound):
		c.JSON(http.StatusOK, model.Response{Error: msgEmailNotFound})
	case errors.Is(err, service.ErrRecordNotFound):
		c.JSON(http.StatusOK, model.Response{Error: msgRecordNotFound})
	default:
		h.logger.Errorf("Request %s %s failed (request id %s): %v", c.Request.Method, c.FullPath(), c.GetString(requestIDKey), err)
		c.JSON(http.StatusBadGateway, model.Response{Error: storeFailure})
	}
}
