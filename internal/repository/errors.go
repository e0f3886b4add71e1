package repository

import "errors"

var (
	// ErrTurnoOcupado is returned when a slot claim loses the race for a
	// (tanda, turno) pair. Callers report it as "slot no longer available"
	// instead of a generic database failure.
	ErrTurnoOcupado = errors.New("turno ya ocupado")

	// ErrSesionProcesada is returned when an order insert collides with an
	// already-recorded checkout session (webhook redelivery).
	ErrSesionProcesada = errors.New("sesion de pago ya procesada")

	// ErrStockInsuficiente is returned when a conditional stock decrement
	// matches no row because stock would have gone negative.
	ErrStockInsuficiente = errors.New("stock insuficiente")
)
