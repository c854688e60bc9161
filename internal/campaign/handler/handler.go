// Package handler exposes the campaign over HTTP: dispatch triggers,
// provider webhooks, and lead snapshots.
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"dialer_backend/internal/campaign/domain"
	"dialer_backend/internal/campaign/service"
	"dialer_backend/internal/campaign/transport"
	"dialer_backend/internal/vapi"
	"dialer_backend/platform/apperr"
	"dialer_backend/platform/httpkit"
	"dialer_backend/platform/validator"
)

const (
	msgInvalidRequest    = "invalid request"
	msgValidationFailed  = "validation failed"
	msgMalformedReport   = "malformed end-of-call report"
	msgReportReceived    = "Report received successfully"
	msgNoActiveNumbers   = "No active phone numbers available."
	msgCallsDispatched   = "Calls made successfully"
	msgFillMissingQueued = "Missing cells fill process started"
)

// FillMissingEnqueuer hands the backfill job to the background worker.
type FillMissingEnqueuer interface {
	EnqueueFillMissing(ctx context.Context) error
}

// Handler handles HTTP requests for the campaign.
type Handler struct {
	dispatcher   *service.Dispatcher
	reconciler   *service.Reconciler
	supplemental *service.Supplemental
	enqueuer     FillMissingEnqueuer
	val          *validator.Validator
	webhookGuard gin.HandlerFunc
}

// New creates the campaign handler. enqueuer may be nil; the fill-missing
// endpoint then runs the scan inline.
func New(dispatcher *service.Dispatcher, reconciler *service.Reconciler, supplemental *service.Supplemental, enqueuer FillMissingEnqueuer, val *validator.Validator, webhookSecret string) *Handler {
	return &Handler{
		dispatcher:   dispatcher,
		reconciler:   reconciler,
		supplemental: supplemental,
		enqueuer:     enqueuer,
		val:          val,
		webhookGuard: WebhookSecret(webhookSecret),
	}
}

// RegisterRoutes registers campaign routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/calls/dispatch", h.Dispatch)
	rg.POST("/calls", h.SingleCall)
	rg.POST("/calls/report", h.webhookGuard, h.Report)
	rg.POST("/tools/:tool", h.webhookGuard, h.ToolCall)
	rg.GET("/leads", h.Leads)
	rg.POST("/leads/fill-missing", h.FillMissing)
}

// Dispatch starts a bounded batch of outbound calls.
// POST /api/v1/calls/dispatch
func (h *Handler) Dispatch(c *gin.Context) {
	var req transport.DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	outcomes, err := h.dispatcher.Dispatch(c.Request.Context(), req.NumberOfCalls)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoCapacity):
			httpkit.HandleError(c, apperr.BadRequest(msgNoActiveNumbers))
		case errors.Is(err, domain.ErrUpstreamUnavailable):
			httpkit.HandleError(c, apperr.Unavailable(err.Error()))
		default:
			httpkit.HandleError(c, apperr.Internal(err.Error()))
		}
		return
	}

	httpkit.OK(c, transport.DispatchResponse{
		Message: msgCallsDispatched,
		Results: outcomes,
	})
}

// SingleCall places one ad-hoc call.
// POST /api/v1/calls
func (h *Handler) SingleCall(c *gin.Context) {
	var req transport.SingleCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.dispatcher.PlaceCall(c.Request.Context(), req.PhoneNumberID, vapi.Customer{
		Name:      req.Customer.Name,
		Number:    req.Customer.Number,
		Extension: req.Customer.Extension,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrProviderRejected):
			httpkit.HandleError(c, apperr.BadRequest(err.Error()))
		case errors.Is(err, domain.ErrProviderThrottled):
			httpkit.HandleError(c, apperr.TooManyRequests(err.Error()))
		default:
			httpkit.HandleError(c, apperr.Unavailable(err.Error()))
		}
		return
	}

	httpkit.OK(c, gin.H{
		"message":             "Call made successfully",
		"phoneCallProviderId": result.PhoneCallProviderID,
		"callId":              result.CallID,
	})
}

// Report receives the provider's end-of-call webhook.
// POST /api/v1/calls/report
func (h *Handler) Report(c *gin.Context) {
	var req transport.EndOfCallReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgMalformedReport, nil)
		return
	}

	report, err := reportFromRequest(req)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgMalformedReport, nil)
		return
	}

	err = h.reconciler.Reconcile(c.Request.Context(), report)
	switch {
	case err == nil, errors.Is(err, domain.ErrUnmatchedReport):
		// An unmatched report is a no-op, not an error: the provider may
		// report calls outside this sheet's leads.
		httpkit.OK(c, gin.H{"message": msgReportReceived})
	case errors.Is(err, domain.ErrMalformedReport):
		httpkit.HandleError(c, apperr.BadRequest(msgMalformedReport))
	default:
		// Metrics or store unavailable: nothing was written. A non-2xx
		// lets the provider redeliver and the retry writes once.
		httpkit.HandleError(c, apperr.Unavailable(err.Error()))
	}
}

// ToolCall receives an in-call tool invocation and writes its answer cell.
// POST /api/v1/tools/:tool
func (h *Handler) ToolCall(c *gin.Context) {
	var req transport.ToolCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	answer, err := toolAnswerFromRequest(c.Param("tool"), req)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	written, err := h.supplemental.ApplyToolAnswer(c.Request.Context(), answer)
	switch {
	case err == nil, errors.Is(err, domain.ErrUnmatchedReport):
		httpkit.OK(c, transport.ToolCallResponse{
			Message:         "Data received successfully",
			UpdatedArgument: written,
		})
	case errors.Is(err, service.ErrUnknownTool), errors.Is(err, domain.ErrMalformedReport):
		httpkit.HandleError(c, apperr.BadRequest(err.Error()))
	default:
		httpkit.HandleError(c, apperr.Unavailable(err.Error()))
	}
}

// Leads returns the raw lead snapshot.
// GET /api/v1/leads
func (h *Handler) Leads(c *gin.Context) {
	rows, err := h.dispatcher.Snapshot(c.Request.Context())
	if err != nil {
		httpkit.HandleError(c, apperr.Unavailable(err.Error()))
		return
	}
	httpkit.OK(c, transport.LeadsResponse{Rows: rows})
}

// FillMissing starts the supplemental backfill.
// POST /api/v1/leads/fill-missing
func (h *Handler) FillMissing(c *gin.Context) {
	if h.enqueuer != nil {
		if err := h.enqueuer.EnqueueFillMissing(c.Request.Context()); err != nil {
			httpkit.HandleError(c, apperr.Internal(err.Error()))
			return
		}
		httpkit.JSON(c, http.StatusAccepted, gin.H{"message": msgFillMissingQueued})
		return
	}

	filled, err := h.supplemental.FillMissing(c.Request.Context())
	if err != nil {
		httpkit.HandleError(c, apperr.Unavailable(err.Error()))
		return
	}
	httpkit.OK(c, gin.H{"message": msgFillMissingQueued, "cells": filled})
}

func reportFromRequest(req transport.EndOfCallReportRequest) (domain.EndOfCallReport, error) {
	msg := req.Message
	if msg == nil || msg.Call == nil || msg.Call.PhoneCallProviderID == "" || msg.EndedReason == "" {
		return domain.EndOfCallReport{}, domain.ErrMalformedReport
	}

	report := domain.EndOfCallReport{
		PhoneCallProviderID: msg.Call.PhoneCallProviderID,
		EndedReason:         msg.EndedReason,
		Cost:                msg.Cost,
	}
	if msg.Artifact != nil {
		report.RecordingURL = msg.Artifact.RecordingURL
	}
	return report, nil
}

func toolAnswerFromRequest(tool string, req transport.ToolCallRequest) (domain.ToolCallAnswer, error) {
	msg := req.Message
	if msg == nil || msg.Call == nil || msg.Call.PhoneCallProviderID == "" || len(msg.ToolCallList) == 0 {
		return domain.ToolCallAnswer{}, domain.ErrMalformedReport
	}

	fn := msg.ToolCallList[0].Function
	if fn == nil {
		return domain.ToolCallAnswer{}, domain.ErrMalformedReport
	}

	return domain.ToolCallAnswer{
		PhoneCallProviderID: msg.Call.PhoneCallProviderID,
		Tool:                tool,
		Value:               argumentValue(fn, tool),
	}, nil
}

// argumentValue picks the answer out of the tool arguments: the argument
// named after the webhook's function, then after the route's tool, then
// the sole argument when there is exactly one.
func argumentValue(fn *transport.ToolCallFunction, tool string) string {
	for _, key := range []string{fn.Name, tool} {
		if key == "" {
			continue
		}
		if raw, ok := fn.Arguments[key]; ok && raw != nil {
			return fmt.Sprint(raw)
		}
	}
	if len(fn.Arguments) == 1 {
		for _, raw := range fn.Arguments {
			if raw != nil {
				return fmt.Sprint(raw)
			}
		}
	}
	return ""
}
