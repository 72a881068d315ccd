package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/adbmx/crm/internal/api/metrics"
	"github.com/adbmx/crm/internal/core/domain"
	"github.com/adbmx/crm/internal/core/ports"
)

// entityRequest is a typed request body that fills a record of type T.
type entityRequest[T any] interface {
	apply(record *T)
}

// EntityHandler serves the REST resource of one CRM table.
type EntityHandler[T any, R entityRequest[T]] struct {
	entity      string
	statusParam string
	service     ports.EntityService[T]
}

func NewClientHandler(svc ports.EntityService[domain.Client]) *EntityHandler[domain.Client, clientRequest] {
	return &EntityHandler[domain.Client, clientRequest]{entity: "cliente", statusParam: "estado", service: svc}
}

func NewContactHandler(svc ports.EntityService[domain.Contact]) *EntityHandler[domain.Contact, contactRequest] {
	return &EntityHandler[domain.Contact, contactRequest]{entity: "contacto", service: svc}
}

func NewOpportunityHandler(svc ports.EntityService[domain.Opportunity]) *EntityHandler[domain.Opportunity, opportunityRequest] {
	return &EntityHandler[domain.Opportunity, opportunityRequest]{entity: "oportunidad", statusParam: "etapa", service: svc}
}

func NewTaskHandler(svc ports.EntityService[domain.Task]) *EntityHandler[domain.Task, taskRequest] {
	return &EntityHandler[domain.Task, taskRequest]{entity: "tarea", statusParam: "estado", service: svc}
}

// List handles GET /api/<resource>?q=&<status>=&clienteId=&page=&limit=.
func (h *EntityHandler[T, R]) List(c echo.Context) error {
	var filter ports.ListFilter
	b := echo.QueryParamsBinder(c).
		String("q", &filter.Search).
		String("prioridad", &filter.Priority).
		Uint("clienteId", &filter.ClientID).
		Int("page", &filter.Page).
		Int("limit", &filter.Limit)
	if h.statusParam != "" {
		b = b.String(h.statusParam, &filter.Status)
	}
	if err := b.BindError(); err != nil {
		return fmt.Errorf("%w: parámetros de consulta inválidos", domain.ErrValidation)
	}

	page, err := h.service.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listResponse[T]{
		Data: page.Items,
		Pagination: pagination{
			Page:       page.Page,
			Limit:      page.Limit,
			Total:      page.Total,
			TotalPages: page.TotalPages,
		},
	})
}

// Get handles GET /api/<resource>/:id.
func (h *EntityHandler[T, R]) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	record, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, record)
}

// Create handles POST /api/<resource>.
func (h *EntityHandler[T, R]) Create(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req R
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	record := new(T)
	req.apply(record)
	created, err := h.service.Create(c.Request().Context(), actor, record)
	if err != nil {
		return err
	}
	metrics.EntityMutationsTotal.WithLabelValues(h.entity, string(domain.ActionCreated)).Inc()
	return c.JSON(http.StatusCreated, created)
}

// Update handles PUT /api/<resource>/:id. The body replaces the record.
func (h *EntityHandler[T, R]) Update(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req R
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	record := new(T)
	req.apply(record)
	updated, err := h.service.Update(c.Request().Context(), actor, id, record)
	if err != nil {
		return err
	}
	metrics.EntityMutationsTotal.WithLabelValues(h.entity, string(domain.ActionUpdated)).Inc()
	return c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /api/<resource>/:id.
func (h *EntityHandler[T, R]) Delete(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), actor, id); err != nil {
		return err
	}
	metrics.EntityMutationsTotal.WithLabelValues(h.entity, string(domain.ActionDeleted)).Inc()
	return c.JSON(http.StatusOK, messageResponse{Success: true, Message: fmt.Sprintf("%s eliminado", h.entity)})
}

// Register mounts the five CRUD routes on g.
func (h *EntityHandler[T, R]) Register(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}
