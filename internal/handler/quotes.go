package handler

import (
	"net/http"
	"strconv"

	"amexing/internal/dto"
	"amexing/internal/infra"
	"amexing/internal/repository"
	"amexing/internal/service"

	"github.com/gin-gonic/gin"
)

// QuotesHandler serves quote reads, the save path, the revision audit trail
// and the PDF export.
type QuotesHandler struct {
	svc     service.QuoteService
	quotes  repository.QuoteRepository
	pdfPath string
}

func NewQuotesHandler(svc service.QuoteService, quotes repository.QuoteRepository, pdfPath string) *QuotesHandler {
	return &QuotesHandler{svc: svc, quotes: quotes, pdfPath: pdfPath}
}

// GetQuote handles GET /v1/quotes/:id.
func (h *QuotesHandler) GetQuote(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	quote, err := h.svc.GetQuote(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

// UpdateServiceItems handles PUT /v1/quotes/:id/service-items. Prices are
// re-pinned and totals recomputed server-side before persisting.
func (h *QuotesHandler) UpdateServiceItems(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateServiceItemsRequest
	if !bindAndValidate(c, &req) {
		return
	}

	actor := actorFrom(c)
	quote, err := h.svc.UpdateServiceItems(c.Request.Context(), actor, id, req.ServiceItems)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

// ListRevisions handles GET /v1/quotes/:id/revisions.
func (h *QuotesHandler) ListRevisions(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	revisions, err := h.quotes.ListRevisions(c.Request.Context(), id, limit)
	if err != nil {
		fail(c, err)
		return
	}

	out := make([]gin.H, 0, len(revisions))
	for _, r := range revisions {
		out = append(out, gin.H{
			"id":        r.ID.String(),
			"quoteId":   r.QuoteID.String(),
			"savedBy":   r.SavedBy,
			"snapshot":  r.Snapshot,
			"createdAt": r.CreatedAt.Format("2006-01-02T15:04:05Z"),
		})
	}
	c.JSON(http.StatusOK, out)
}

// ExportPDF handles GET /v1/quotes/:id/pdf.
func (h *QuotesHandler) ExportPDF(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	quote, err := h.quotes.FindByID(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	path, err := infra.GenerateQuotePDF(quote, h.pdfPath)
	if err != nil {
		fail(c, err)
		return
	}
	c.FileAttachment(path, "cotizacion_"+id.String()+".pdf")
}
