package workorderserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
	// Public routes skip actor identification.
	Public bool
}

// ApiHandleFunctions groups the handlers exposed by the server.
type ApiHandleFunctions struct {
	// Routes for the WorkOrderAPI part of the API
	WorkOrderAPI WorkOrderAPI
}

// NewRouterWithGinEngine adds routes to an existing gin engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		handlers := []gin.HandlerFunc{route.HandlerFunc}
		if !route.Public {
			handlers = []gin.HandlerFunc{RequireActor(), route.HandlerFunc}
		}
		router.Handle(route.Method, route.Pattern, handlers...)
	}
	return router
}

// DefaultHandleFunc answers routes that have no handler wired.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

func getRoutes(handleFunctions ApiHandleFunctions) []Route {
	api := &handleFunctions.WorkOrderAPI
	return []Route{
		{
			Name:        "Ping",
			Method:      http.MethodGet,
			Pattern:     "/ping",
			HandlerFunc: Ping,
			Public:      true,
		},
		{
			Name:        "CreateWorkOrder",
			Method:      http.MethodPost,
			Pattern:     "/v1/work-orders",
			HandlerFunc: api.CreateWorkOrder,
		},
		{
			Name:        "ListWorkOrders",
			Method:      http.MethodGet,
			Pattern:     "/v1/work-orders",
			HandlerFunc: api.ListWorkOrders,
		},
		{
			Name:        "GetWorkOrder",
			Method:      http.MethodGet,
			Pattern:     "/v1/work-orders/:id",
			HandlerFunc: api.GetWorkOrder,
		},
		{
			Name:        "UpdateWorkOrderStatus",
			Method:      http.MethodPut,
			Pattern:     "/v1/work-orders/:id/status",
			HandlerFunc: api.UpdateStatus,
		},
		{
			Name:        "ReferWorkOrder",
			Method:      http.MethodPut,
			Pattern:     "/v1/work-orders/:id/refer",
			HandlerFunc: api.Refer,
		},
		{
			Name:        "ApproveWorkOrder",
			Method:      http.MethodPut,
			Pattern:     "/v1/work-orders/:id/approve",
			HandlerFunc: api.Approve,
		},
		{
			Name:        "AddLineItem",
			Method:      http.MethodPost,
			Pattern:     "/v1/work-orders/:id/items",
			HandlerFunc: api.AddItem,
		},
		{
			Name:        "AddPaintCode",
			Method:      http.MethodPost,
			Pattern:     "/v1/work-orders/:id/paint-codes",
			HandlerFunc: api.AddPaintCode,
		},
	}
}

// Ping is the liveness probe.
func Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
