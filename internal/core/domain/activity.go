package domain

import "time"

// ActivityAction names what happened to a record.
type ActivityAction string

const (
	ActionCreated ActivityAction = "creado"
	ActionUpdated ActivityAction = "actualizado"
	ActionDeleted ActivityAction = "eliminado"
)

// Activity is an entry in the audit trail shown on the dashboard.
type Activity struct {
	ID          uint           `json:"id"          gorm:"primaryKey"`
	UserID      uint           `json:"usuarioId"   gorm:"index"`
	Action      ActivityAction `json:"accion"      gorm:"type:varchar(20);not null"`
	Entity      string         `json:"entidad"     gorm:"type:varchar(30);not null"`
	EntityID    uint           `json:"entidadId"`
	Description string         `json:"descripcion"`
	CreatedAt   time.Time      `json:"createdAt"   gorm:"index"`
}

func (Activity) TableName() string { return "actividades" }

// DashboardStats are the headline counters of the dashboard.
type DashboardStats struct {
	TotalClients      int64   `json:"totalClientes"`
	PendingTasks      int64   `json:"tareasPendientes"`
	OpenOpportunities int64   `json:"oportunidadesActivas"`
	MonthlySales      float64 `json:"ventasMes"`
}
