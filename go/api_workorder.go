package workorderserver

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	wohttpmapper "github.com/Apurer/go-gin-workorders/internal/domains/workorders/adapters/http/mapper"
	wotypes "github.com/Apurer/go-gin-workorders/internal/domains/workorders/application/types"
	"github.com/Apurer/go-gin-workorders/internal/domains/workorders/domain"
	woports "github.com/Apurer/go-gin-workorders/internal/domains/workorders/ports"
)

// WorkOrderAPI wires HTTP transport with the work order service.
type WorkOrderAPI struct {
	service woports.Service
}

// NewWorkOrderAPI creates a WorkOrderAPI backed by the provided service.
func NewWorkOrderAPI(service woports.Service) WorkOrderAPI {
	return WorkOrderAPI{service: service}
}

// Post /v1/work-orders
// Create a work order from the contractor intake form
func (api *WorkOrderAPI) CreateWorkOrder(c *gin.Context) {
	var payload wohttpmapper.CreateWorkOrderRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	actor := actorFrom(c)
	created, err := api.service.Create(c.Request.Context(), wohttpmapper.ToCreateInput(actor, payload))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.Header("Location", "/v1/work-orders/"+created.WorkOrder.ID)
	c.JSON(http.StatusCreated, wohttpmapper.FromProjection(created, actor))
}

// Get /v1/work-orders
// List work orders, optionally filtered by status and acceptor
func (api *WorkOrderAPI) ListWorkOrders(c *gin.Context) {
	statuses, err := wohttpmapper.ParseStatusFilters(c.QueryArray("status"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	input := wotypes.ListWorkOrdersInput{Statuses: statuses, AcceptedBy: c.Query("accepted_by")}
	result, err := api.service.List(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, wohttpmapper.FromProjectionList(result, actorFrom(c)))
}

// Get /v1/work-orders/:id
// Fetch one work order with its items
func (api *WorkOrderAPI) GetWorkOrder(c *gin.Context) {
	order, err := api.service.GetByID(c.Request.Context(), wotypes.WorkOrderIdentifier{ID: c.Param("id")})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, wohttpmapper.FromProjection(order, actorFrom(c)))
}

// Put /v1/work-orders/:id/status
// Accept, decline, complete or cancel a work order
func (api *WorkOrderAPI) UpdateStatus(c *gin.Context) {
	var payload wohttpmapper.StatusRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	event, err := wohttpmapper.StatusEvent(payload.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	api.transition(c, wotypes.TransitionInput{ID: c.Param("id"), Event: event})
}

// Put /v1/work-orders/:id/refer
// Refer a part to the consultant and supplier approval chain
func (api *WorkOrderAPI) Refer(c *gin.Context) {
	var payload wohttpmapper.ReferRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	api.transition(c, wotypes.TransitionInput{
		ID:              c.Param("id"),
		Event:           domain.EventRefer,
		SupplyItem:      payload.SupplyItem,
		ItemDescription: payload.ItemDescription,
	})
}

// Put /v1/work-orders/:id/approve
// Pass or fail the consultant or supplier gate
func (api *WorkOrderAPI) Approve(c *gin.Context) {
	var payload wohttpmapper.ApproveRequest
	// An empty body means approve.
	if err := c.ShouldBindJSON(&payload); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	event, err := wohttpmapper.ApprovalEvent(actorFrom(c).Role, payload.Decision)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	api.transition(c, wotypes.TransitionInput{ID: c.Param("id"), Event: event})
}

// Post /v1/work-orders/:id/items
// Attach a priced line item and recompute the quote
func (api *WorkOrderAPI) AddItem(c *gin.Context) {
	var payload wohttpmapper.LineItemRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	actor := actorFrom(c)
	updated, err := api.service.AddItem(c.Request.Context(), wohttpmapper.ToAddItemInput(c.Param("id"), actor, payload))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, wohttpmapper.FromProjection(updated, actor))
}

// Post /v1/work-orders/:id/paint-codes
// Attach paint metadata while the order is editable
func (api *WorkOrderAPI) AddPaintCode(c *gin.Context) {
	var payload wohttpmapper.PaintCodeRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	actor := actorFrom(c)
	updated, err := api.service.AddPaintCode(c.Request.Context(), wohttpmapper.ToAddPaintCodeInput(c.Param("id"), actor, payload))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, wohttpmapper.FromProjection(updated, actor))
}

func (api *WorkOrderAPI) transition(c *gin.Context, input wotypes.TransitionInput) {
	input.Actor = actorFrom(c)
	updated, err := api.service.Transition(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, wohttpmapper.FromProjection(updated, input.Actor))
}
