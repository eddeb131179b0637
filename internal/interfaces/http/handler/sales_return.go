package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	returnapp "github.com/retailbill/backend/internal/application/returns"
	"github.com/retailbill/backend/internal/interfaces/http/middleware"
)

// SalesReturnHandler handles sales return API endpoints
type SalesReturnHandler struct {
	BaseHandler
	returnService *returnapp.SalesReturnService
}

// NewSalesReturnHandler creates a new SalesReturnHandler
func NewSalesReturnHandler(returnService *returnapp.SalesReturnService) *SalesReturnHandler {
	return &SalesReturnHandler{
		returnService: returnService,
	}
}

// getActor resolves the acting user from JWT claims, falling back to
// headers in development
func getActor(c *gin.Context) (returnapp.Actor, error) {
	userID, err := getUserID(c)
	if err != nil {
		return returnapp.Actor{}, err
	}
	name := middleware.GetJWTUsername(c)
	if name == "" {
		name = c.GetHeader("X-User-Name")
	}
	return returnapp.Actor{ID: userID, Name: name}, nil
}

// Create godoc
//
//	@ID				createSalesReturn
//	@Summary		Create a sales return
//	@Description	Create a new draft sales return against an invoiced sale
//	@Tags			sales-returns
//	@Accept			json
//	@Produce		json
//	@Param			request	body		returnapp.CreateSalesReturnRequest	true	"Sales return creation request"
//	@Success		201		{object}	APIResponse[returnapp.SalesReturnResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/sales-returns [post]
func (h *SalesReturnHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req returnapp.CreateSalesReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if userID, err := getUserID(c); err == nil {
		req.CreatedBy = &userID
	}

	sr, err := h.returnService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, sr)
}

// GetByID godoc
//
//	@ID				getSalesReturn
//	@Summary		Get sales return by ID
//	@Tags			sales-returns
//	@Produce		json
//	@Param			id	path		string	true	"Sales Return ID"	format(uuid)
//	@Success		200	{object}	APIResponse[returnapp.SalesReturnResponse]
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/sales-returns/{id} [get]
func (h *SalesReturnHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	returnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return ID format")
		return
	}

	sr, err := h.returnService.GetByID(c.Request.Context(), tenantID, returnID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, sr)
}

// GetByReturnNumber godoc
//
//	@ID				getSalesReturnByNumber
//	@Summary		Get sales return by return number
//	@Tags			sales-returns
//	@Produce		json
//	@Param			return_number	path		string	true	"Return Number"	example:"SR-2026-00001"
//	@Success		200				{object}	APIResponse[returnapp.SalesReturnResponse]
//	@Failure		404				{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/sales-returns/number/{return_number} [get]
func (h *SalesReturnHandler) GetByReturnNumber(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	returnNumber := c.Param("return_number")
	if returnNumber == "" {
		h.BadRequest(c, "Return number is required")
		return
	}

	sr, err := h.returnService.GetByReturnNumber(c.Request.Context(), tenantID, returnNumber)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, sr)
}

// List godoc
//
//	@ID				listSalesReturns
//	@Summary		List sales returns
//	@Description	Paginated sales return list with filtering on status, customer, dates and amounts
//	@Tags			sales-returns
//	@Produce		json
//	@Param			search		query		string	false	"Search term (return number, customer name, invoice number)"
//	@Param			status		query		string	false	"Return status"	Enums(DRAFT, PENDING_APPROVAL, APPROVED, REJECTED, COMPLETED, CANCELLED)
//	@Param			page		query		int		false	"Page number"	default(1)
//	@Param			page_size	query		int		false	"Page size"		default(20)	maximum(100)
//	@Success		200			{object}	APIResponse[[]returnapp.SalesReturnListItemResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/sales-returns [get]
func (h *SalesReturnHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var filter returnapp.SalesReturnListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	items, total, err := h.returnService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// ListPendingApproval godoc
//
//	@ID				listPendingSalesReturns
//	@Summary		List sales returns awaiting approval
//	@Tags			sales-returns
//	@Produce		json
//	@Success		200	{object}	APIResponse[[]returnapp.SalesReturnListItemResponse]
//	@Security		BearerAuth
//	@Router			/sales-returns/pending-approval [get]
func (h *SalesReturnHandler) ListPendingApproval(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var filter returnapp.SalesReturnListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	items, total, err := h.returnService.ListPendingApproval(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// ListBySalesRecord godoc
//
//	@ID				listSalesReturnsBySalesRecord
//	@Summary		List returns raised against a sales record
//	@Tags			sales-returns
//	@Produce		json
//	@Param			sales_record_id	path		string	true	"Sales Record ID"	format(uuid)
//	@Success		200				{object}	APIResponse[[]returnapp.SalesReturnListItemResponse]
//	@Security		BearerAuth
//	@Router			/sales-returns/sales-record/{sales_record_id} [get]
func (h *SalesReturnHandler) ListBySalesRecord(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	salesRecordID, err := uuid.Parse(c.Param("sales_record_id"))
	if err != nil {
		h.BadRequest(c, "Invalid sales record ID format")
		return
	}

	items, err := h.returnService.ListBySalesRecord(c.Request.Context(), tenantID, salesRecordID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, items)
}

// ListApprovals godoc
//
//	@ID				listSalesReturnApprovals
//	@Summary		Get the approval audit history of a return
//	@Tags			sales-returns
//	@Produce		json
//	@Param			id	path		string	true	"Sales Return ID"	format(uuid)
//	@Success		200	{object}	APIResponse[[]returnapp.ReturnApprovalResponse]
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/sales-returns/{id}/approvals [get]
func (h *SalesReturnHandler) ListApprovals(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	returnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return ID format")
		return
	}

	history, err := h.returnService.ListApprovals(c.Request.Context(), tenantID, returnID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, history)
}

// GetStats godoc
//
//	@ID				getSalesReturnStats
//	@Summary		Return dashboard statistics
//	@Description	Counts by status plus settled refund totals per refund type over a window
//	@Tags			sales-returns
//	@Produce		json
//	@Param			from	query		string	false	"Window start (ISO 8601, default 30 days ago)"	format(date-time)
//	@Param			to		query		string	false	"Window end (ISO 8601, default now)"			format(date-time)
//	@Success		200		{object}	APIResponse[returnapp.ReturnStatsResponse]
//	@Security		BearerAuth
//	@Router			/sales-returns/stats/dashboard [get]
func (h *SalesReturnHandler) GetStats(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	to := time.Now()
	from := to.AddDate(0, 0, -30)
	if v := c.Query("from"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			h.BadRequest(c, "Invalid 'from' timestamp, expected RFC 3339")
			return
		}
		from = parsed
	}
	if v := c.Query("to"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			h.BadRequest(c, "Invalid 'to' timestamp, expected RFC 3339")
			return
		}
		to = parsed
	}

	stats, err := h.returnService.GetStats(c.Request.Context(), tenantID, from, to)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, stats)
}

// Update godoc
//
//	@ID				updateSalesReturn
//	@Summary		Update a sales return
//	@Description	Update header fields of a sales return (only allowed in DRAFT status)
//	@Tags			sales-returns
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string								true	"Sales Return ID"	format(uuid)
//	@Param			request	body		returnapp.UpdateSalesReturnRequest	true	"Sales return update request"
//	@Success		200		{object}	APIResponse[returnapp.SalesReturnResponse]
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/sales-returns/{id} [put]
func (h *SalesReturnHandler) Update(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	returnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return ID format")
		return
	}

	var req returnapp.UpdateSalesReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	sr, err := h.returnService.Update(c.Request.Context(), tenantID, returnID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, sr)
}

// Delete godoc
//
//	@ID				deleteSalesReturn
//	@Summary		Delete a draft sales return
//	@Tags			sales-returns
//	@Param			id	path	string	true	"Sales Return ID"	format(uuid)
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Failure		409	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/sales-returns/{id} [delete]
func (h *SalesReturnHandler) Delete(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	returnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return ID format")
		return
	}

	if err := h.returnService.Delete(c.Request.Context(), tenantID, returnID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// AddItem godoc
//
//	@ID				addSalesReturnItem
//	@Summary		Add an item to a draft return
//	@Tags			sales-returns
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string							true	"Sales Return ID"	format(uuid)
//	@Param			request	body		returnapp.AddReturnItemRequest	true	"Item to add"
//	@Success		200		{object}	APIResponse[returnapp.SalesReturnResponse]
//	@Failure		409		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/sales-returns/{id}/items [post]
func (h *SalesReturnHandler) AddItem(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	returnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return ID format")
		return
	}

	var req returnapp.AddReturnItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	sr, err := h.returnService.AddItem(c.Request.Context(), tenantID, returnID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, sr)
}

// UpdateItem godoc
//
//	@ID				updateSalesReturnItem
//	@Summary		Update an item on a draft return
//	@Tags			sales-returns
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string								true	"Sales Return ID"	format(uuid)
//	@Param			item_id	path		string								true	"Item ID"			format(uuid)
//	@Param			request	body		returnapp.UpdateReturnItemRequest	true	"Item update"
//	@Success		200		{object}	APIResponse[returnapp.SalesReturnResponse]
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/sales-returns/{id}/items/{item_id} [put]
func (h *SalesReturnHandler) UpdateItem(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	returnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return ID format")
		return
	}

	itemID, err := uuid.Parse(c.Param("item_id"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	var req returnapp.UpdateReturnItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	sr, err := h.returnService.UpdateItem(c.Request.Context(), tenantID, returnID, itemID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, sr)
}

// RemoveItem godoc
//
//	@ID				removeSalesReturnItem
//	@Summary		Remove an item from a draft return
//	@Tags			sales-returns
//	@Produce		json
//	@Param			id		path		string	true	"Sales Return ID"	format(uuid)
//	@Param			item_id	path		string	true	"Item ID"			format(uuid)
//	@Success		200		{object}	APIResponse[returnapp.SalesReturnResponse]
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/sales-returns/{id}/items/{item_id} [delete]
func (h *SalesReturnHandler) RemoveItem(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	returnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return ID format")
		return
	}

	itemID, err := uuid.Parse(c.Param("item_id"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	sr, err := h.returnService.RemoveItem(c.Request.Context(), tenantID, returnID, itemID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, sr)
}

// Submit godoc
//
//	@ID				submitSalesReturn
//	@Summary		Submit a return for approval
//	@Tags			sales-returns
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Sales Return ID"	format(uuid)
//	@Param			request	body		returnapp.SubmitReturnRequest	false	"Submission comments"
//	@Success		200		{object}	APIResponse[returnapp.SalesReturnResponse]
//	@Failure		409		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/sales-returns/{id}/submit [post]
func (h *SalesReturnHandler) Submit(c *gin.Context) {
	h.transition(c, func(ctx *gin.Context, tenantID, returnID uuid.UUID, actor returnapp.Actor) (*returnapp.SalesReturnResponse, error) {
		var req returnapp.SubmitReturnRequest
		if err := bindOptionalJSON(ctx, &req); err != nil {
			return nil, err
		}
		return h.returnService.Submit(ctx.Request.Context(), tenantID, returnID, actor, req)
	})
}

// Approve godoc
//
//	@ID				approveSalesReturn
//	@Summary		Approve a pending return
//	@Description	Approves the return and settles the refund: points credit for POINTS refunds, restock for good-condition items. Any settlement failure rolls the approval back and is retryable.
//	@Tags			sales-returns
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string							true	"Sales Return ID"	format(uuid)
//	@Param			request	body		returnapp.ApproveReturnRequest	false	"Approval note"
//	@Success		200		{object}	APIResponse[returnapp.SalesReturnResponse]
//	@Failure		409		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/sales-returns/{id}/approve [post]
func (h *SalesReturnHandler) Approve(c *gin.Context) {
	h.transition(c, func(ctx *gin.Context, tenantID, returnID uuid.UUID, actor returnapp.Actor) (*returnapp.SalesReturnResponse, error) {
		var req returnapp.ApproveReturnRequest
		if err := bindOptionalJSON(ctx, &req); err != nil {
			return nil, err
		}
		return h.returnService.Approve(ctx.Request.Context(), tenantID, returnID, actor, req)
	})
}

// Reject godoc
//
//	@ID				rejectSalesReturn
//	@Summary		Reject a return
//	@Tags			sales-returns
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string							true	"Sales Return ID"	format(uuid)
//	@Param			request	body		returnapp.RejectReturnRequest	true	"Rejection reason"
//	@Success		200		{object}	APIResponse[returnapp.SalesReturnResponse]
//	@Failure		409		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/sales-returns/{id}/reject [post]
func (h *SalesReturnHandler) Reject(c *gin.Context) {
	h.transition(c, func(ctx *gin.Context, tenantID, returnID uuid.UUID, actor returnapp.Actor) (*returnapp.SalesReturnResponse, error) {
		var req returnapp.RejectReturnRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			return nil, &bindError{err: err}
		}
		return h.returnService.Reject(ctx.Request.Context(), tenantID, returnID, actor, req)
	})
}

// Complete godoc
//
//	@ID				completeSalesReturn
//	@Summary		Complete an approved return
//	@Tags			sales-returns
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string							true	"Sales Return ID"	format(uuid)
//	@Param			request	body		returnapp.CompleteReturnRequest	false	"Completion notes"
//	@Success		200		{object}	APIResponse[returnapp.SalesReturnResponse]
//	@Failure		409		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/sales-returns/{id}/complete [post]
func (h *SalesReturnHandler) Complete(c *gin.Context) {
	h.transition(c, func(ctx *gin.Context, tenantID, returnID uuid.UUID, actor returnapp.Actor) (*returnapp.SalesReturnResponse, error) {
		var req returnapp.CompleteReturnRequest
		if err := bindOptionalJSON(ctx, &req); err != nil {
			return nil, err
		}
		return h.returnService.Complete(ctx.Request.Context(), tenantID, returnID, actor, req)
	})
}

// Cancel godoc
//
//	@ID				cancelSalesReturn
//	@Summary		Cancel a return
//	@Description	Cancels a return from any non-terminal state. Cancelling after approval does not reverse settlement; a compensating event is emitted instead.
//	@Tags			sales-returns
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string							true	"Sales Return ID"	format(uuid)
//	@Param			request	body		returnapp.CancelReturnRequest	false	"Cancellation reason"
//	@Success		200		{object}	APIResponse[returnapp.SalesReturnResponse]
//	@Failure		409		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/sales-returns/{id}/cancel [post]
func (h *SalesReturnHandler) Cancel(c *gin.Context) {
	h.transition(c, func(ctx *gin.Context, tenantID, returnID uuid.UUID, actor returnapp.Actor) (*returnapp.SalesReturnResponse, error) {
		var req returnapp.CancelReturnRequest
		if err := bindOptionalJSON(ctx, &req); err != nil {
			return nil, err
		}
		return h.returnService.Cancel(ctx.Request.Context(), tenantID, returnID, actor, req)
	})
}

// transition factors the shared plumbing of the lifecycle endpoints:
// tenant and id parsing, actor resolution, error mapping.
func (h *SalesReturnHandler) transition(
	c *gin.Context,
	invoke func(ctx *gin.Context, tenantID, returnID uuid.UUID, actor returnapp.Actor) (*returnapp.SalesReturnResponse, error),
) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	returnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return ID format")
		return
	}

	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Acting user could not be resolved")
		return
	}

	sr, err := invoke(c, tenantID, returnID, actor)
	if err != nil {
		if _, ok := err.(*bindError); ok {
			h.BadRequest(c, err.Error())
			return
		}
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, sr)
}

// bindError marks a body binding failure so transition() can map it to
// 400 instead of 500
type bindError struct{ err error }

func (e *bindError) Error() string { return e.err.Error() }

// bindOptionalJSON binds the JSON body if one was sent; an empty body
// leaves the request at its zero value
func bindOptionalJSON(c *gin.Context, obj any) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(obj); err != nil {
		return &bindError{err: err}
	}
	return nil
}
