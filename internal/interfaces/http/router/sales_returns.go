package router

import (
	"github.com/gin-gonic/gin"

	"github.com/retailbill/backend/internal/interfaces/http/handler"
)

// PermissionGuard builds a middleware enforcing a single permission
// string. A nil guard leaves every route open, which is how
// single-counter deployments without the RBAC layer run.
type PermissionGuard func(permission string) gin.HandlerFunc

// SalesReturns wires the sales return endpoints into a DomainGroup.
func SalesReturns(h *handler.SalesReturnHandler, guard PermissionGuard) *DomainGroup {
	require := func(permission string, handlerFn gin.HandlerFunc) []gin.HandlerFunc {
		if guard == nil {
			return []gin.HandlerFunc{handlerFn}
		}
		return []gin.HandlerFunc{guard(permission), handlerFn}
	}

	dg := NewDomainGroup("/sales-returns")
	dg.POST("", require("returns:create", h.Create)...)
	dg.GET("", require("returns:read", h.List)...)
	dg.GET("/pending-approval", require("returns:read", h.ListPendingApproval)...)
	dg.GET("/number/:return_number", require("returns:read", h.GetByReturnNumber)...)
	dg.GET("/sales-record/:sales_record_id", require("returns:read", h.ListBySalesRecord)...)
	dg.GET("/stats/dashboard", require("returns:read", h.GetStats)...)
	dg.GET("/:id", require("returns:read", h.GetByID)...)
	dg.PUT("/:id", require("returns:update", h.Update)...)
	dg.DELETE("/:id", require("returns:delete", h.Delete)...)
	dg.GET("/:id/approvals", require("returns:read", h.ListApprovals)...)
	dg.POST("/:id/items", require("returns:update", h.AddItem)...)
	dg.PUT("/:id/items/:item_id", require("returns:update", h.UpdateItem)...)
	dg.DELETE("/:id/items/:item_id", require("returns:update", h.RemoveItem)...)
	dg.POST("/:id/submit", require("returns:submit", h.Submit)...)
	dg.POST("/:id/approve", require("returns:approve", h.Approve)...)
	dg.POST("/:id/reject", require("returns:approve", h.Reject)...)
	dg.POST("/:id/complete", require("returns:complete", h.Complete)...)
	dg.POST("/:id/cancel", require("returns:cancel", h.Cancel)...)
	return dg
}
