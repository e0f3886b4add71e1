// Package queue defines the message payloads exchanged over the broker and
// the background consumer that turns them into outbound mail.
package queue

// Recipient kinds for OrdenConfirmadaEvent.
const (
	DestinatarioCliente = "cliente"
	DestinatarioAdmin   = "admin"
)

// ItemResumen is one normalized line of an order summary: a cart entry for
// product purchases, or one synthetic slot-qualified line per tanda number.
type ItemResumen struct {
	Nombre     string `json:"nombre"`
	Cantidad   int    `json:"cantidad"`
	MontoCents int64  `json:"monto_cents"`
}

// OrdenConfirmadaEvent is published after an order has been reconciled. It
// carries everything the mail consumer needs without touching the database.
type OrdenConfirmadaEvent struct {
	OrdenID       uint          `json:"orden_id"`
	Destinatario  string        `json:"destinatario"` // cliente | admin
	NombreCliente string        `json:"nombre_cliente"`
	EmailCliente  string        `json:"email_cliente"`
	Tipo          string        `json:"tipo"`
	Items         []ItemResumen `json:"items"`
	TotalCents    int64         `json:"total_cents"`
	ConfirmadaEn  string        `json:"confirmada_en"`
}
