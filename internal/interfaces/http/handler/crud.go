package handler

import (
	"strconv"
	"strings"

	"github.com/estatecrm/backend/internal/application/crud"
	"github.com/estatecrm/backend/internal/domain/record"
	"github.com/estatecrm/backend/internal/domain/registry"
	"github.com/estatecrm/backend/internal/domain/shared"
	"github.com/estatecrm/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CrudHandler serves the uniform record operations for every registered
// entity. The :entity route segment selects the collection.
type CrudHandler struct {
	Base
	registry *registry.Registry
	service  *crud.Service
}

// NewCrudHandler creates the generic record handler.
func NewCrudHandler(base Base, reg *registry.Registry, service *crud.Service) *CrudHandler {
	return &CrudHandler{Base: base, registry: reg, service: service}
}

// resolve maps the :entity segment to its descriptor, writing the 404
// envelope when the entity is unknown.
func (h *CrudHandler) resolve(c *gin.Context) (registry.Descriptor, bool) {
	desc, err := h.registry.Resolve(c.Param("entity"))
	if err != nil {
		h.handleError(c, err)
		return registry.Descriptor{}, false
	}
	return desc, true
}

func (h *CrudHandler) recordID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.handleError(c, shared.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

// listQuery binds the shared filter grammar from the query string.
func listQuery(c *gin.Context) record.ListQuery {
	q := record.DefaultListQuery()
	if page, err := strconv.Atoi(c.Query("page")); err == nil {
		q.Page = page
	}
	if items, err := strconv.Atoi(c.Query("items")); err == nil {
		q.PageSize = items
	}
	if sortBy := c.Query("sortBy"); sortBy != "" {
		q.SortBy = sortBy
	}
	if sortDir := c.Query("sortDir"); sortDir != "" {
		q.SortDir = sortDir
	}
	q.FilterField = c.Query("filter")
	q.FilterValue = c.Query("equal")
	q.Q = c.Query("q")
	if fields := c.Query("fields"); fields != "" {
		for _, f := range strings.Split(fields, ",") {
			if f = strings.TrimSpace(f); f != "" {
				q.Fields = append(q.Fields, f)
			}
		}
	}
	return q
}

// Create inserts a new record from the request body attributes.
func (h *CrudHandler) Create(c *gin.Context) {
	desc, ok := h.resolve(c)
	if !ok {
		return
	}

	var attrs map[string]any
	if err := c.ShouldBindJSON(&attrs); err != nil {
		h.badRequest(c, "Request body must be a JSON object")
		return
	}

	rec, err := h.service.Create(c.Request.Context(), desc, attrs, middleware.GetPrincipal(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.created(c, rec, "Successfully created the document")
}

// Read fetches one record by id.
func (h *CrudHandler) Read(c *gin.Context) {
	desc, ok := h.resolve(c)
	if !ok {
		return
	}
	id, ok := h.recordID(c)
	if !ok {
		return
	}

	rec, err := h.service.Read(c.Request.Context(), desc, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.ok(c, rec, "Successfully found the document")
}

// Update merges the body attributes into the record.
func (h *CrudHandler) Update(c *gin.Context) {
	desc, ok := h.resolve(c)
	if !ok {
		return
	}
	id, ok := h.recordID(c)
	if !ok {
		return
	}

	var attrs map[string]any
	if err := c.ShouldBindJSON(&attrs); err != nil {
		h.badRequest(c, "Request body must be a JSON object")
		return
	}

	rec, err := h.service.Update(c.Request.Context(), desc, id, attrs, middleware.GetPrincipal(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.ok(c, rec, "Successfully updated the document")
}

// Delete removes the record, soft or hard per the entity descriptor.
func (h *CrudHandler) Delete(c *gin.Context) {
	desc, ok := h.resolve(c)
	if !ok {
		return
	}
	id, ok := h.recordID(c)
	if !ok {
		return
	}

	rec, err := h.service.Delete(c.Request.Context(), desc, id, middleware.GetPrincipal(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.ok(c, rec, "Successfully deleted the document")
}

// List returns one page of records with pagination metadata.
func (h *CrudHandler) List(c *gin.Context) {
	desc, ok := h.resolve(c)
	if !ok {
		return
	}

	page, err := h.service.List(c.Request.Context(), desc, listQuery(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.paginated(c, page.Result, page.Pagination, "Successfully found all documents")
}

// ListAll returns every record without pagination metadata.
func (h *CrudHandler) ListAll(c *gin.Context) {
	desc, ok := h.resolve(c)
	if !ok {
		return
	}

	records, err := h.service.ListAll(c.Request.Context(), desc)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.ok(c, records, "Successfully found all documents")
}

// Search returns records matching the free-text query.
func (h *CrudHandler) Search(c *gin.Context) {
	desc, ok := h.resolve(c)
	if !ok {
		return
	}

	records, err := h.service.Search(c.Request.Context(), desc, listQuery(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.ok(c, records, "Successfully found all documents")
}

// Filter returns records matching the equality filter.
func (h *CrudHandler) Filter(c *gin.Context) {
	desc, ok := h.resolve(c)
	if !ok {
		return
	}

	records, err := h.service.Filter(c.Request.Context(), desc, listQuery(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.ok(c, records, "Successfully found all documents")
}

// Summary returns the filtered count beside the total count.
func (h *CrudHandler) Summary(c *gin.Context) {
	desc, ok := h.resolve(c)
	if !ok {
		return
	}

	summary, err := h.service.GetSummary(c.Request.Context(), desc, c.Query("filter"), c.Query("equal"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.ok(c, summary, "Successfully fetched the summary")
}
