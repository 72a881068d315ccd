package domain

import (
	"fmt"
	"time"
)

// Base carries the identity and audit columns shared by every CRM record.
type Base struct {
	ID        uint      `json:"id"        gorm:"primaryKey"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b *Base) GetID() uint { return b.ID }

// ClientStatus is the commercial state of a client.
type ClientStatus string

const (
	ClientProspect ClientStatus = "prospecto"
	ClientActive   ClientStatus = "cliente"
	ClientInactive ClientStatus = "inactivo"
	ClientLost     ClientStatus = "perdido"
)

func (s ClientStatus) Valid() bool {
	switch s {
	case ClientProspect, ClientActive, ClientInactive, ClientLost:
		return true
	}
	return false
}

// Client is a company or person the sales team works with.
type Client struct {
	Base
	Name           string       `json:"nombre"         gorm:"not null"`
	Email          string       `json:"email"          gorm:"not null"`
	Phone          string       `json:"telefono"`
	Company        string       `json:"empresa"`
	Industry       string       `json:"industria"`
	Address        string       `json:"direccion"      gorm:"type:text"`
	Status         ClientStatus `json:"estado"         gorm:"type:varchar(20);not null;index"`
	PotentialValue float64      `json:"valorPotencial" gorm:"type:decimal(12,2)"`
	Source         string       `json:"fuente"`
	Notes          string       `json:"notas"          gorm:"type:text"`

	Contacts      []Contact     `json:"-" gorm:"foreignKey:ClientID;constraint:OnDelete:SET NULL"`
	Opportunities []Opportunity `json:"-" gorm:"foreignKey:ClientID;constraint:OnDelete:SET NULL"`
	Tasks         []Task        `json:"-" gorm:"foreignKey:ClientID;constraint:OnDelete:SET NULL"`
}

func (Client) TableName() string { return "clientes" }

func (c *Client) Label() string { return c.Name }

// Normalize applies defaults and rejects values outside the known sets.
func (c *Client) Normalize() error {
	if c.Status == "" {
		c.Status = ClientProspect
	}
	if !c.Status.Valid() {
		return fmt.Errorf("%w: estado %q no es válido", ErrValidation, c.Status)
	}
	if c.PotentialValue < 0 {
		return fmt.Errorf("%w: valorPotencial no puede ser negativo", ErrValidation)
	}
	return nil
}

// Contact is a person that works at a client.
type Contact struct {
	Base
	Name       string `json:"nombre"       gorm:"not null"`
	Email      string `json:"email"`
	Phone      string `json:"telefono"`
	Position   string `json:"puesto"`
	Department string `json:"departamento"`
	IsPrimary  bool   `json:"esPrincipal"`
	ClientID   *uint  `json:"clienteId"    gorm:"index"`
}

func (Contact) TableName() string { return "contactos" }

func (c *Contact) Label() string { return c.Name }

func (c *Contact) Normalize() error { return nil }

// OpportunityStage is the position of an opportunity in the sales funnel.
type OpportunityStage string

const (
	StageNew         OpportunityStage = "nuevo"
	StageQualified   OpportunityStage = "calificado"
	StageProposal    OpportunityStage = "propuesta"
	StageNegotiation OpportunityStage = "negociacion"
	StageWon         OpportunityStage = "ganado"
	StageLost        OpportunityStage = "perdido"
)

func (s OpportunityStage) Valid() bool {
	switch s {
	case StageNew, StageQualified, StageProposal, StageNegotiation, StageWon, StageLost:
		return true
	}
	return false
}

// Open reports whether the opportunity is still being worked.
func (s OpportunityStage) Open() bool {
	return s.Valid() && s != StageWon && s != StageLost
}

// Opportunity is a potential sale to a client.
type Opportunity struct {
	Base
	Title       string           `json:"titulo"       gorm:"not null"`
	Description string           `json:"descripcion"  gorm:"type:text"`
	Value       float64          `json:"valor"        gorm:"type:decimal(12,2)"`
	Stage       OpportunityStage `json:"etapa"        gorm:"type:varchar(20);not null;index"`
	Probability int              `json:"probabilidad"`
	CloseDate   *time.Time       `json:"fechaCierre"`
	Notes       string           `json:"notas"        gorm:"type:text"`
	ClientID    *uint            `json:"clienteId"    gorm:"index"`
	UserID      *uint            `json:"usuarioId"    gorm:"index"`
}

func (Opportunity) TableName() string { return "oportunidades" }

func (o *Opportunity) Label() string { return o.Title }

// AssignOwner sets the responsible user when none was given.
func (o *Opportunity) AssignOwner(userID uint) {
	if o.UserID == nil && userID != 0 {
		o.UserID = &userID
	}
}

func (o *Opportunity) Normalize() error {
	if o.Stage == "" {
		o.Stage = StageNew
	}
	if !o.Stage.Valid() {
		return fmt.Errorf("%w: etapa %q no es válida", ErrValidation, o.Stage)
	}
	if o.Probability < 0 || o.Probability > 100 {
		return fmt.Errorf("%w: probabilidad debe estar entre 0 y 100", ErrValidation)
	}
	return nil
}

type TaskType string

const (
	TaskCall     TaskType = "llamada"
	TaskEmail    TaskType = "email"
	TaskMeeting  TaskType = "reunion"
	TaskFollowUp TaskType = "seguimiento"
	TaskOther    TaskType = "otro"
)

func (t TaskType) Valid() bool {
	switch t {
	case TaskCall, TaskEmail, TaskMeeting, TaskFollowUp, TaskOther:
		return true
	}
	return false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "baja"
	PriorityMedium TaskPriority = "media"
	PriorityHigh   TaskPriority = "alta"
	PriorityUrgent TaskPriority = "urgente"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type TaskStatus string

const (
	TaskPending    TaskStatus = "pendiente"
	TaskInProgress TaskStatus = "en_progreso"
	TaskDone       TaskStatus = "completada"
	TaskCancelled  TaskStatus = "cancelada"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskDone, TaskCancelled:
		return true
	}
	return false
}

// Task is a follow-up action assigned to a user, optionally about a client.
type Task struct {
	Base
	Title       string       `json:"titulo"            gorm:"not null"`
	Description string       `json:"descripcion"       gorm:"type:text"`
	Type        TaskType     `json:"tipo"              gorm:"type:varchar(20);not null"`
	Priority    TaskPriority `json:"prioridad"         gorm:"type:varchar(20);not null;index"`
	Status      TaskStatus   `json:"estado"            gorm:"type:varchar(20);not null;index"`
	DueDate     *time.Time   `json:"fechaVencimiento"`
	RemindAt    *time.Time   `json:"fechaRecordatorio"`
	ClientID    *uint        `json:"clienteId"         gorm:"index"`
	UserID      *uint        `json:"usuarioId"         gorm:"index"`
}

func (Task) TableName() string { return "tareas" }

func (t *Task) Label() string { return t.Title }

func (t *Task) AssignOwner(userID uint) {
	if t.UserID == nil && userID != 0 {
		t.UserID = &userID
	}
}

func (t *Task) Normalize() error {
	if t.Type == "" {
		t.Type = TaskOther
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Status == "" {
		t.Status = TaskPending
	}
	switch {
	case !t.Type.Valid():
		return fmt.Errorf("%w: tipo %q no es válido", ErrValidation, t.Type)
	case !t.Priority.Valid():
		return fmt.Errorf("%w: prioridad %q no es válida", ErrValidation, t.Priority)
	case !t.Status.Valid():
		return fmt.Errorf("%w: estado %q no es válido", ErrValidation, t.Status)
	}
	if t.DueDate != nil && t.RemindAt != nil && t.RemindAt.After(*t.DueDate) {
		return fmt.Errorf("%w: fechaRecordatorio no puede ser posterior a fechaVencimiento", ErrValidation)
	}
	return nil
}
