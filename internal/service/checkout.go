package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"mitanda/config"
	"mitanda/internal/domain"
	"mitanda/internal/repository"
	"mitanda/pkg/payment"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ValidationError marks malformed purchase intents; handlers map it to a 400.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// CartLine is one product entry of a checkout request.
type CartLine struct {
	ID       uint    `json:"id"`
	Nombre   string  `json:"nombre"`
	Precio   float64 `json:"precio"` // unit price in pesos, as the storefront sends it
	Quantity int     `json:"quantity"`
}

// CheckoutMetadata carries the purchase details that must round-trip through
// the gateway session untouched.
type CheckoutMetadata struct {
	TandaID              string  `json:"tandaId"`
	TandaNombre          string  `json:"tandaNombre"`
	MontoTotal           float64 `json:"montoTotal"`
	NumerosSeleccionados string  `json:"numerosSeleccionados"` // comma-separated

	NombreCompleto string `json:"nombre_completo"`
	Telefono       string `json:"telefono"`
	Calle          string `json:"calle"`
	NumeroExterior string `json:"numero_exterior"`
	NumeroInterior string `json:"numero_interior"`
	Colonia        string `json:"colonia"`
	Ciudad         string `json:"ciudad"`
	Estado         string `json:"estado"`
	CodigoPostal   string `json:"codigo_postal"`
	Referencias    string `json:"referencias"`
}

// CheckoutRequest is a purchase intent: either a tanda slot selection or a
// product cart.
type CheckoutRequest struct {
	Tipo     string           `json:"tipo"`
	Items    []CartLine       `json:"items"`
	Metadata CheckoutMetadata `json:"metadata"`
}

// carritoItem is the serialized cart entry embedded in session metadata. Line
// items alone cannot reconstruct order rows, so the full cart travels too.
type carritoItem struct {
	ProductoID  uint   `json:"producto_id"`
	Nombre      string `json:"nombre"`
	Cantidad    int    `json:"cantidad"`
	PrecioCents int64  `json:"precio_cents"`
}

// CheckoutService turns purchase intents into gateway sessions. It performs
// no writes: until the completion webhook fires, a checkout has no durable
// effect.
type CheckoutService struct {
	gateway       payment.Gateway
	tandas        *repository.TandaRepository
	participantes *repository.ParticipanteRepository
	cfg           *config.Config
	log           *zap.Logger
}

func NewCheckoutService(
	gateway payment.Gateway,
	tandas *repository.TandaRepository,
	participantes *repository.ParticipanteRepository,
	cfg *config.Config,
	log *zap.Logger,
) *CheckoutService {
	return &CheckoutService{gateway: gateway, tandas: tandas, participantes: participantes, cfg: cfg, log: log}
}

// CreateSession validates the intent and opens a gateway checkout session.
func (s *CheckoutService) CreateSession(ctx context.Context, userID uint, req *CheckoutRequest) (*payment.Session, error) {
	switch req.Tipo {
	case domain.TipoTanda:
		return s.createTandaSession(ctx, userID, req)
	case domain.TipoProductos:
		return s.createProductosSession(ctx, userID, req)
	default:
		if len(req.Items) > 0 {
			return s.createProductosSession(ctx, userID, req)
		}
		return nil, invalid("tipo de pago no válido")
	}
}

func (s *CheckoutService) createTandaSession(ctx context.Context, userID uint, req *CheckoutRequest) (*payment.Session, error) {
	md := req.Metadata
	if md.TandaID == "" || md.TandaNombre == "" || md.MontoTotal <= 0 {
		return nil, invalid("datos de tanda incompletos")
	}
	numeros, err := parseNumeros(md.NumerosSeleccionados)
	if err != nil {
		return nil, err
	}

	tandaID64, err := strconv.ParseUint(md.TandaID, 10, 32)
	if err != nil {
		return nil, invalid("tandaId inválido")
	}
	tanda, err := s.tandas.GetByID(uint(tandaID64))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTandaNoEncontrada
		}
		return nil, err
	}

	for _, numero := range numeros {
		if numero > tanda.ParticipantesMax {
			return nil, invalid("el número %d excede los %d lugares de la tanda", numero, tanda.ParticipantesMax)
		}
	}

	totalCents := pesosACents(md.MontoTotal)
	if esperado := tanda.MontoCents * int64(len(numeros)); totalCents != esperado {
		return nil, invalid("montoTotal inconsistente: esperado %d centavos, recibido %d", esperado, totalCents)
	}
	if limite := s.cfg.Tanda.MaxTurnosPorUsuario; limite > 0 {
		existentes, err := s.participantes.CountByUser(tanda.ID, userID)
		if err != nil {
			return nil, err
		}
		if existentes+int64(len(numeros)) > int64(limite) {
			return nil, invalid("límite de %d número(s) por usuario en esta tanda", limite)
		}
	}
	// Availability is deliberately not re-verified here: the slot claim is
	// decided at reconciliation time by the (tanda, turno) constraint.

	metadata := map[string]string{
		"userId":               strconv.FormatUint(uint64(userID), 10),
		"tipo":                 domain.TipoTanda,
		"tandaId":              md.TandaID,
		"tandaNombre":          md.TandaNombre,
		"montoTotal":           strconv.FormatFloat(md.MontoTotal, 'f', 2, 64),
		"numerosSeleccionados": md.NumerosSeleccionados,
	}
	params := payment.SessionParams{
		Currency: s.cfg.Stripe.Currency,
		Items: []payment.LineItem{{
			Name:        md.TandaNombre,
			Description: fmt.Sprintf("%d número(s) - Turnos: %s", len(numeros), md.NumerosSeleccionados),
			AmountCents: totalCents,
			Quantity:    1,
		}},
		Metadata:   metadata,
		SuccessURL: s.cfg.Server.BaseURL + "/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.cfg.Server.BaseURL + "/cancel",
	}
	return s.gateway.CreateCheckoutSession(ctx, params)
}

func (s *CheckoutService) createProductosSession(ctx context.Context, userID uint, req *CheckoutRequest) (*payment.Session, error) {
	if len(req.Items) == 0 {
		return nil, invalid("carrito vacío")
	}
	items := make([]payment.LineItem, 0, len(req.Items))
	carrito := make([]carritoItem, 0, len(req.Items))
	for _, line := range req.Items {
		if line.Nombre == "" || line.Precio <= 0 {
			return nil, invalid("producto inválido en el carrito")
		}
		cantidad := line.Quantity
		if cantidad <= 0 {
			cantidad = 1
		}
		precioCents := pesosACents(line.Precio)
		items = append(items, payment.LineItem{
			Name:        line.Nombre,
			AmountCents: precioCents,
			Quantity:    cantidad,
		})
		carrito = append(carrito, carritoItem{
			ProductoID:  line.ID,
			Nombre:      line.Nombre,
			Cantidad:    cantidad,
			PrecioCents: precioCents,
		})
	}
	carritoJSON, err := json.Marshal(carrito)
	if err != nil {
		return nil, err
	}
	metadata := map[string]string{
		"userId":  strconv.FormatUint(uint64(userID), 10),
		"tipo":    domain.TipoProductos,
		"carrito": string(carritoJSON),
	}
	if direccion := direccionDeMetadata(&req.Metadata); direccion != nil {
		direccionJSON, err := json.Marshal(direccion)
		if err != nil {
			return nil, err
		}
		metadata["direccion_envio"] = string(direccionJSON)
	}
	params := payment.SessionParams{
		Currency:   s.cfg.Stripe.Currency,
		Items:      items,
		Metadata:   metadata,
		SuccessURL: s.cfg.Server.BaseURL + "/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.cfg.Server.BaseURL + "/cancel",
	}
	return s.gateway.CreateCheckoutSession(ctx, params)
}

// direccionEnvio is the serialized shipping address embedded in metadata.
type direccionEnvio struct {
	NombreCompleto string `json:"nombre_completo"`
	Telefono       string `json:"telefono"`
	Calle          string `json:"calle"`
	NumeroExterior string `json:"numero_exterior"`
	NumeroInterior string `json:"numero_interior"`
	Colonia        string `json:"colonia"`
	Ciudad         string `json:"ciudad"`
	Estado         string `json:"estado"`
	CodigoPostal   string `json:"codigo_postal"`
	Referencias    string `json:"referencias"`
}

func direccionDeMetadata(md *CheckoutMetadata) *direccionEnvio {
	if md.NombreCompleto == "" && md.Telefono == "" && md.Calle == "" && md.Colonia == "" {
		return nil
	}
	return &direccionEnvio{
		NombreCompleto: md.NombreCompleto,
		Telefono:       md.Telefono,
		Calle:          md.Calle,
		NumeroExterior: md.NumeroExterior,
		NumeroInterior: md.NumeroInterior,
		Colonia:        md.Colonia,
		Ciudad:         md.Ciudad,
		Estado:         md.Estado,
		CodigoPostal:   md.CodigoPostal,
		Referencias:    md.Referencias,
	}
}

func parseNumeros(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, invalid("numerosSeleccionados vacío")
	}
	parts := strings.Split(s, ",")
	numeros := make([]int, 0, len(parts))
	vistos := make(map[int]bool, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 1 {
			return nil, invalid("número de tanda inválido: %q", part)
		}
		// A repeated number would charge the same slot twice.
		if vistos[n] {
			continue
		}
		vistos[n] = true
		numeros = append(numeros, n)
	}
	return numeros, nil
}

func pesosACents(pesos float64) int64 {
	return int64(math.Round(pesos * 100))
}
