// Copyright (C) 2025 Veracity AI (oss@veracity.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package veracity

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/VeracityAI/veracity/tracestore"
)

// Handlers contains the HTTP handlers for the Veracity service.
type Handlers struct {
	svc    *Service
	logger *slog.Logger
}

// NewHandlers creates handlers for the given service.
func NewHandlers(svc *Service, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{svc: svc, logger: logger}
}

// HandleValidate handles POST /v1/veracity/validate.
//
// Description:
//
//	Runs the full validation pipeline over a candidate answer and its
//	evidence and returns the trust decision. The decision is always a
//	200 when the pipeline ran; a blocked answer is reported through
//	critical_failure and the fallback text, not through an HTTP error.
//
// Request Body:
//
//	ValidateRequest
//
// Response:
//
//	200 OK: ValidateResponse
//	400 Bad Request: Validation error
//	500 Internal Server Error: Processing error
func (h *Handlers) HandleValidate(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := h.logger.With("request_id", requestID, "handler", "HandleValidate")

	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	logger.Info("validation requested",
		"answer_len", len(req.Answer),
		"evidence_count", len(req.Evidence),
		"philosophical", req.IsPhilosophical,
	)

	outcome, err := h.svc.Validate(c.Request.Context(), req.toInput())
	if err != nil {
		logger.Error("validation failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "VALIDATION_FAILED",
		})
		return
	}

	logger.Info("validation complete",
		"trace_id", outcome.TraceID,
		"epistemic_state", string(outcome.EpistemicState),
		"confidence", outcome.Confidence,
		"critical_failure", outcome.CriticalFailure,
	)

	c.JSON(http.StatusOK, newValidateResponse(outcome))
}

// HandleGetTrace handles GET /v1/veracity/traces/:id.
//
// Description:
//
//	Returns the full recorded trace of a past run: every phase, every
//	validator result, and the final decision summary. Traces expire
//	after the configured retention; an expired trace is a 404.
//
// Path Parameters:
//
//	id: Trace ID returned by a validate call (required)
//
// Response:
//
//	200 OK: TraceResponse
//	404 Not Found: Unknown or expired trace
//	500 Internal Server Error: Store fault
func (h *Handlers) HandleGetTrace(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := h.logger.With("request_id", requestID, "handler", "HandleGetTrace")

	traceID := c.Param("id")
	trace, err := h.svc.GetTrace(c.Request.Context(), traceID)
	if err != nil {
		if errors.Is(err, tracestore.ErrTraceNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error: "trace not found or expired",
				Code:  "TRACE_NOT_FOUND",
			})
			return
		}
		if errors.Is(err, ErrEmptyTraceID) {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: err.Error(),
				Code:  "INVALID_TRACE_ID",
			})
			return
		}
		logger.Error("trace lookup failed", "trace_id", traceID, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "TRACE_LOOKUP_FAILED",
		})
		return
	}

	c.JSON(http.StatusOK, newTraceResponse(trace))
}

// HandleStats handles GET /v1/veracity/stats.
func (h *Handlers) HandleStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Stats())
}

// HandleHealth handles GET /health. Always 200 while the process runs.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: ServiceVersion,
	})
}

// HandleReady handles GET /ready. 503 until the trace store answers.
func (h *Handlers) HandleReady(c *gin.Context) {
	storeOK := h.svc.StoreOK(c.Request.Context())
	resp := ReadyResponse{Ready: storeOK, StoreOK: storeOK}

	if !resp.Ready {
		c.Header("Retry-After", "10")
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// newTraceResponse maps a stored trace onto the wire type.
func newTraceResponse(trace *tracestore.Trace) TraceResponse {
	phases := make([]PhaseResponse, 0, len(trace.Phases))
	for _, phase := range trace.Phases {
		results := make([]ValidatorResultResponse, 0, len(phase.Results))
		for _, r := range phase.Results {
			results = append(results, ValidatorResultResponse{
				ValidatorName: r.ValidatorName,
				Passed:        r.Passed,
				ReasonCodes:   r.ReasonCodes,
				Score:         r.Score,
				ElapsedMs:     r.Elapsed.Milliseconds(),
			})
		}
		phases = append(phases, PhaseResponse{
			PhaseIndex: phase.PhaseIndex,
			Results:    results,
		})
	}

	return TraceResponse{
		TraceID:            trace.TraceID,
		CreatedAt:          trace.CreatedAt,
		Phases:             phases,
		Confidence:         trace.Final.Confidence,
		EpistemicState:     string(trace.Final.EpistemicState),
		CriticalFailure:    trace.Final.CriticalFailure,
		FinalAnswerExcerpt: trace.Final.FinalAnswerExcerpt,
		ReasonCodes:        trace.Final.ReasonCodes,
		ElapsedMs:          trace.Elapsed.Milliseconds(),
	}
}

// getOrCreateRequestID gets or creates a request ID.
func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}
