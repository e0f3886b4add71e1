package domain

// Roles
const (
	RoleAdmin   = "ADMIN"
	RoleCliente = "CLIENTE"
)

// Order purchase categories (ordenes.tipo)
const (
	TipoTanda     = "tanda"
	TipoProductos = "productos"
)

// Order states (ordenes.estado)
const (
	OrdenPagada = "pagado"
)

// Participation states (tanda_participantes.estado)
const (
	ParticipanteActivo    = "activo"
	ParticipantePendiente = "pendiente"
	ParticipanteInactivo  = "inactivo"
)

// Payment frequencies (tandas.frecuencia)
const (
	FrecuenciaSemanal   = "semanal"
	FrecuenciaQuincenal = "quincenal"
	FrecuenciaMensual   = "mensual"
)

// FrecuenciaValida reports whether f is a recognized payment frequency.
func FrecuenciaValida(f string) bool {
	switch f {
	case FrecuenciaSemanal, FrecuenciaQuincenal, FrecuenciaMensual:
		return true
	}
	return false
}
