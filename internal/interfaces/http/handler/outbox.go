package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/application/event"
)

// OutboxHandler exposes the event outbox to administrators
type OutboxHandler struct {
	BaseHandler
	outboxService *event.OutboxService
}

// NewOutboxHandler creates a new outbox handler
func NewOutboxHandler(outboxService *event.OutboxService) *OutboxHandler {
	return &OutboxHandler{
		outboxService: outboxService,
	}
}

// RetryAllResponse counts the entries requeued by a retry-all
type RetryAllResponse struct {
	Count int64 `json:"count"`
}

// DeadLetters godoc
// @ID           listOutboxDeadLetters
// @Summary      List dead letter entries
// @Description  Events that exhausted their broker delivery attempts
// @Tags         outbox
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} APIResponse[event.DeadLetterPage]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/system/outbox/dead [get]
func (h *OutboxHandler) DeadLetters(c *gin.Context) {
	var filter event.DeadLetterQuery
	if !h.bindQuery(c, &filter) {
		return
	}

	result, err := h.outboxService.ListDead(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Get godoc
// @ID           getOutboxEntry
// @Summary      Get an outbox entry
// @Tags         outbox
// @Produce      json
// @Param        id path string true "Outbox entry ID" format(uuid)
// @Success      200 {object} APIResponse[event.OutboxEntryView]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/system/outbox/{id} [get]
func (h *OutboxHandler) Get(c *gin.Context) {
	id, ok := h.pathUUID(c, "id", "entry")
	if !ok {
		return
	}

	entry, err := h.outboxService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// Retry godoc
// @ID           retryOutboxEntry
// @Summary      Requeue a dead letter entry
// @Tags         outbox
// @Produce      json
// @Param        id path string true "Outbox entry ID" format(uuid)
// @Success      200 {object} APIResponse[event.OutboxEntryView]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/system/outbox/{id}/retry [post]
func (h *OutboxHandler) Retry(c *gin.Context) {
	id, ok := h.pathUUID(c, "id", "entry")
	if !ok {
		return
	}

	entry, err := h.outboxService.Requeue(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// RetryAll godoc
// @ID           retryAllOutboxEntries
// @Summary      Requeue every dead letter entry
// @Tags         outbox
// @Produce      json
// @Success      200 {object} APIResponse[RetryAllResponse]
// @Security     BearerAuth
// @Router       /admin/system/outbox/dead/retry-all [post]
func (h *OutboxHandler) RetryAll(c *gin.Context) {
	count, err := h.outboxService.RequeueAllDead(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, RetryAllResponse{Count: count})
}

// Stats godoc
// @ID           getOutboxStats
// @Summary      Outbox counts by status
// @Tags         outbox
// @Produce      json
// @Success      200 {object} APIResponse[event.OutboxStats]
// @Security     BearerAuth
// @Router       /admin/system/outbox/stats [get]
func (h *OutboxHandler) Stats(c *gin.Context) {
	stats, err := h.outboxService.Stats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}
