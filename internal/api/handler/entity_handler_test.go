package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/adbmx/crm/internal/core/domain"
	"github.com/adbmx/crm/internal/core/ports"
)

type stubEntityService[T any] struct {
	listFn   func(ctx context.Context, filter ports.ListFilter) (*ports.Page[T], error)
	getFn    func(ctx context.Context, id uint) (*T, error)
	createFn func(ctx context.Context, actor ports.Actor, entity *T) (*T, error)
	updateFn func(ctx context.Context, actor ports.Actor, id uint, entity *T) (*T, error)
	deleteFn func(ctx context.Context, actor ports.Actor, id uint) error
}

func (s *stubEntityService[T]) List(ctx context.Context, filter ports.ListFilter) (*ports.Page[T], error) {
	return s.listFn(ctx, filter)
}

func (s *stubEntityService[T]) Get(ctx context.Context, id uint) (*T, error) {
	return s.getFn(ctx, id)
}

func (s *stubEntityService[T]) Create(ctx context.Context, actor ports.Actor, entity *T) (*T, error) {
	return s.createFn(ctx, actor, entity)
}

func (s *stubEntityService[T]) Update(ctx context.Context, actor ports.Actor, id uint, entity *T) (*T, error) {
	return s.updateFn(ctx, actor, id, entity)
}

func (s *stubEntityService[T]) Delete(ctx context.Context, actor ports.Actor, id uint) error {
	return s.deleteFn(ctx, actor, id)
}

func TestEntityHandler_List_BindsFilter(t *testing.T) {
	e := newEcho()
	svc := &stubEntityService[domain.Task]{
		listFn: func(ctx context.Context, filter ports.ListFilter) (*ports.Page[domain.Task], error) {
			want := ports.ListFilter{Search: "llamar", Status: "pendiente", Priority: "alta", ClientID: 4, Page: 2, Limit: 5}
			if filter != want {
				t.Fatalf("unexpected filter: %+v", filter)
			}
			return &ports.Page[domain.Task]{
				Items: []domain.Task{{Title: "Llamar a ACME"}},
				Total: 6, Page: 2, Limit: 5, TotalPages: 2,
			}, nil
		},
	}
	h := NewTaskHandler(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/tareas?q=llamar&estado=pendiente&prioridad=alta&clienteId=4&page=2&limit=5", nil)
	c := e.NewContext(req, rec)

	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp struct {
		Data       []domain.Task `json:"data"`
		Pagination pagination    `json:"pagination"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp.Data) != 1 || resp.Pagination.Total != 6 || resp.Pagination.TotalPages != 2 {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestEntityHandler_List_OpportunityUsesStageParam(t *testing.T) {
	e := newEcho()
	svc := &stubEntityService[domain.Opportunity]{
		listFn: func(ctx context.Context, filter ports.ListFilter) (*ports.Page[domain.Opportunity], error) {
			if filter.Status != "ganado" {
				t.Fatalf("expected etapa to bind into Status, got %q", filter.Status)
			}
			return &ports.Page[domain.Opportunity]{Items: []domain.Opportunity{}, Page: 1, Limit: 20}, nil
		},
	}
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/oportunidades?etapa=ganado&estado=ignored", nil), httptest.NewRecorder())

	if err := NewOpportunityHandler(svc).List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
}

func TestEntityHandler_List_BadQuery(t *testing.T) {
	e := newEcho()
	h := NewClientHandler(&stubEntityService[domain.Client]{})
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/clientes?page=abc", nil), httptest.NewRecorder())

	if err := h.List(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestEntityHandler_Create(t *testing.T) {
	e := newEcho()
	svc := &stubEntityService[domain.Client]{
		createFn: func(ctx context.Context, actor ports.Actor, c *domain.Client) (*domain.Client, error) {
			if actor.UserID != 3 || actor.Role != domain.RoleSalesperson {
				t.Fatalf("unexpected actor: %+v", actor)
			}
			if c.Name != "ACME" || c.Email != "ventas@acme.mx" || c.PotentialValue != 1500 {
				t.Fatalf("unexpected client: %+v", c)
			}
			c.ID = 11
			return c, nil
		},
	}
	h := NewClientHandler(svc)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/clientes", `{"nombre":" ACME ","email":"ventas@acme.mx","valorPotencial":1500}`), rec)
	withActor(c, 3, domain.RoleSalesperson)

	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var got domain.Client
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got.ID != 11 {
		t.Fatalf("expected id 11, got %d", got.ID)
	}
}

func TestEntityHandler_Create_ValidationFailure(t *testing.T) {
	e := newEcho()
	h := NewClientHandler(&stubEntityService[domain.Client]{})
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/clientes", `{"email":"not-an-email","estado":"vip"}`), httptest.NewRecorder())
	withActor(c, 3, domain.RoleUser)

	err := h.Create(c)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	for _, field := range []string{"nombre", "email", "estado"} {
		if !strings.Contains(err.Error(), field+" ") {
			t.Fatalf("expected %q in %q", field, err.Error())
		}
	}
}

func TestEntityHandler_Create_ParsesDates(t *testing.T) {
	e := newEcho()
	svc := &stubEntityService[domain.Task]{
		createFn: func(ctx context.Context, actor ports.Actor, task *domain.Task) (*domain.Task, error) {
			if task.DueDate == nil || task.DueDate.Format("2006-01-02") != "2026-11-02" {
				t.Fatalf("unexpected due date: %v", task.DueDate)
			}
			if task.RemindAt != nil {
				t.Fatalf("empty date must stay nil, got %v", task.RemindAt)
			}
			return task, nil
		},
	}
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/tareas",
		`{"titulo":"Enviar propuesta","fechaVencimiento":"2026-11-02","fechaRecordatorio":""}`), httptest.NewRecorder())
	withActor(c, 3, domain.RoleUser)

	if err := NewTaskHandler(svc).Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
}

func TestEntityHandler_Get_BadID(t *testing.T) {
	e := newEcho()
	h := NewContactHandler(&stubEntityService[domain.Contact]{})
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("abc")

	if err := h.Get(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestEntityHandler_Get_NotFound(t *testing.T) {
	e := newEcho()
	h := NewContactHandler(&stubEntityService[domain.Contact]{
		getFn: func(ctx context.Context, id uint) (*domain.Contact, error) {
			return nil, domain.ErrNotFound
		},
	})
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("99")

	if err := h.Get(c); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEntityHandler_Update(t *testing.T) {
	e := newEcho()
	svc := &stubEntityService[domain.Opportunity]{
		updateFn: func(ctx context.Context, actor ports.Actor, id uint, o *domain.Opportunity) (*domain.Opportunity, error) {
			if id != 5 || o.Stage != domain.StageWon || o.Value != 9000 {
				t.Fatalf("unexpected update %d %+v", id, o)
			}
			o.ID = id
			return o, nil
		},
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPut, "/", `{"titulo":"Licencias","valor":9000,"etapa":"ganado","probabilidad":100}`), rec)
	c.SetParamNames("id")
	c.SetParamValues("5")
	withActor(c, 1, domain.RoleAdmin)

	if err := NewOpportunityHandler(svc).Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestEntityHandler_Delete(t *testing.T) {
	e := newEcho()
	var deleted uint
	svc := &stubEntityService[domain.Client]{
		deleteFn: func(ctx context.Context, actor ports.Actor, id uint) error {
			deleted = id
			return nil
		},
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("8")
	withActor(c, 1, domain.RoleAdmin)

	if err := NewClientHandler(svc).Delete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if deleted != 8 {
		t.Fatalf("expected id 8 deleted, got %d", deleted)
	}
	var resp messageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !resp.Success || resp.Message != "cliente eliminado" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestEntityHandler_Delete_Forbidden(t *testing.T) {
	e := newEcho()
	svc := &stubEntityService[domain.Client]{
		deleteFn: func(ctx context.Context, actor ports.Actor, id uint) error {
			return domain.ErrForbidden
		},
	}
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("8")
	withActor(c, 2, domain.RoleUser)

	if err := NewClientHandler(svc).Delete(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
