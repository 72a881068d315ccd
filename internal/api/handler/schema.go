package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/adbmx/crm/internal/core/domain"
)

// errorResponse documents the error envelope rendered by the API error handler.
type errorResponse struct {
	Success bool   `json:"success" example:"false"`
	Error   string `json:"error"   example:"Credenciales inválidas"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// --- Auth ---

type loginRequest struct {
	Email    string `json:"email"    example:"admin@adbmx.com"`
	Password string `json:"password" example:"admin123"`
}

// userSummary is the profile returned at login.
type userSummary struct {
	ID     uint   `json:"id"`
	Name   string `json:"nombre"`
	Email  string `json:"email"`
	Role   string `json:"rol"`
	Active bool   `json:"activo"`
}

func toUserSummary(u *domain.User) userSummary {
	return userSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, Active: u.Active}
}

type loginResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	User    userSummary `json:"user"`
	Token   string      `json:"token"`
}

type verifyResponse struct {
	Success bool         `json:"success"`
	User    *domain.User `json:"user"`
}

type statusResponse struct {
	Message   string `json:"message"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// --- Users ---

type createUserRequest struct {
	Name     string `json:"nombre"   validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"rol"      validate:"omitempty,oneof=admin usuario vendedor"`
}

type setActiveRequest struct {
	Active *bool `json:"activo" validate:"required"`
}

type dataResponse[T any] struct {
	Data T `json:"data"`
}

// --- CRM lists ---

type pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

type listResponse[T any] struct {
	Data       []T        `json:"data"`
	Pagination pagination `json:"pagination"`
}

type dashboardResponse struct {
	Stats          domain.DashboardStats `json:"stats"`
	RecentActivity []domain.Activity     `json:"actividadReciente"`
}

// --- CRM records ---

// date accepts RFC 3339 timestamps and plain YYYY-MM-DD dates as sent by
// HTML date inputs. An empty string means no date.
type date struct{ time.Time }

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"}

func (d *date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("fecha inválida %q", s)
}

func (d *date) ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.UTC()
	return &t
}

type clientRequest struct {
	Name           string  `json:"nombre"         validate:"required"`
	Email          string  `json:"email"          validate:"required,email"`
	Phone          string  `json:"telefono"`
	Company        string  `json:"empresa"`
	Industry       string  `json:"industria"`
	Address        string  `json:"direccion"`
	Status         string  `json:"estado"         validate:"omitempty,oneof=prospecto cliente inactivo perdido"`
	PotentialValue float64 `json:"valorPotencial" validate:"gte=0"`
	Source         string  `json:"fuente"`
	Notes          string  `json:"notas"`
}

func (r clientRequest) apply(c *domain.Client) {
	c.Name = strings.TrimSpace(r.Name)
	c.Email = strings.TrimSpace(r.Email)
	c.Phone = r.Phone
	c.Company = r.Company
	c.Industry = r.Industry
	c.Address = r.Address
	c.Status = domain.ClientStatus(r.Status)
	c.PotentialValue = r.PotentialValue
	c.Source = r.Source
	c.Notes = r.Notes
}

type contactRequest struct {
	Name       string `json:"nombre"       validate:"required"`
	Email      string `json:"email"        validate:"omitempty,email"`
	Phone      string `json:"telefono"`
	Position   string `json:"puesto"`
	Department string `json:"departamento"`
	IsPrimary  bool   `json:"esPrincipal"`
	ClientID   *uint  `json:"clienteId"`
}

func (r contactRequest) apply(c *domain.Contact) {
	c.Name = strings.TrimSpace(r.Name)
	c.Email = strings.TrimSpace(r.Email)
	c.Phone = r.Phone
	c.Position = r.Position
	c.Department = r.Department
	c.IsPrimary = r.IsPrimary
	c.ClientID = r.ClientID
}

type opportunityRequest struct {
	Title       string  `json:"titulo"       validate:"required"`
	Description string  `json:"descripcion"`
	Value       float64 `json:"valor"        validate:"gte=0"`
	Stage       string  `json:"etapa"        validate:"omitempty,oneof=nuevo calificado propuesta negociacion ganado perdido"`
	Probability int     `json:"probabilidad" validate:"gte=0,lte=100"`
	CloseDate   *date   `json:"fechaCierre"`
	Notes       string  `json:"notas"`
	ClientID    *uint   `json:"clienteId"`
	UserID      *uint   `json:"usuarioId"`
}

func (r opportunityRequest) apply(o *domain.Opportunity) {
	o.Title = strings.TrimSpace(r.Title)
	o.Description = r.Description
	o.Value = r.Value
	o.Stage = domain.OpportunityStage(r.Stage)
	o.Probability = r.Probability
	o.CloseDate = r.CloseDate.ptr()
	o.Notes = r.Notes
	o.ClientID = r.ClientID
	o.UserID = r.UserID
}

type taskRequest struct {
	Title       string `json:"titulo"            validate:"required"`
	Description string `json:"descripcion"`
	Type        string `json:"tipo"              validate:"omitempty,oneof=llamada email reunion seguimiento otro"`
	Priority    string `json:"prioridad"         validate:"omitempty,oneof=baja media alta urgente"`
	Status      string `json:"estado"            validate:"omitempty,oneof=pendiente en_progreso completada cancelada"`
	DueDate     *date  `json:"fechaVencimiento"`
	RemindAt    *date  `json:"fechaRecordatorio"`
	ClientID    *uint  `json:"clienteId"`
	UserID      *uint  `json:"usuarioId"`
}

func (r taskRequest) apply(t *domain.Task) {
	t.Title = strings.TrimSpace(r.Title)
	t.Description = r.Description
	t.Type = domain.TaskType(r.Type)
	t.Priority = domain.TaskPriority(r.Priority)
	t.Status = domain.TaskStatus(r.Status)
	t.DueDate = r.DueDate.ptr()
	t.RemindAt = r.RemindAt.ptr()
	t.ClientID = r.ClientID
	t.UserID = r.UserID
}
