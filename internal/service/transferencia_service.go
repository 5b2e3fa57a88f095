package service

import (
	"context"
	"strings"

	"github.com/fullfullelectronic/pos-system-macos/internal/apperr"
	"github.com/fullfullelectronic/pos-system-macos/internal/dto"
)

// TransferenciaService moves money between two accounts as one unit.
type TransferenciaService interface {
	Transferir(ctx context.Context, req dto.TransferenciaRequest) (*dto.TransferenciaResponse, error)
}

type transferenciaService struct {
	cuentas CuentaService
}

func NewTransferenciaService(cuentas CuentaService) TransferenciaService {
	return &transferenciaService{cuentas: cuentas}
}

func (s *transferenciaService) Transferir(ctx context.Context, req dto.TransferenciaRequest) (*dto.TransferenciaResponse, error) {
	origen, err := parseID("cuenta_origen_id", req.CuentaOrigenID)
	if err != nil {
		return nil, err
	}
	destino, err := parseID("cuenta_destino_id", req.CuentaDestinoID)
	if err != nil {
		return nil, err
	}

	var violaciones []string
	if origen == destino {
		violaciones = append(violaciones, "la cuenta de origen y la de destino deben ser distintas")
	}
	if !req.Monto.IsPositive() {
		violaciones = append(violaciones, "el monto de la transferencia debe ser mayor a 0")
	}
	if err := apperr.Validacion(violaciones...); err != nil {
		return nil, err
	}

	res, err := s.cuentas.Transferir(ctx, origen, destino, req.Monto, strings.TrimSpace(req.Descripcion))
	if err != nil {
		return nil, err
	}

	return &dto.TransferenciaResponse{
		TransferenciaID: res.TransferenciaID.String(),
		Debito:          movimientoToResponse(res.Debito.Movimiento),
		Credito:         movimientoToResponse(res.Credito.Movimiento),
	}, nil
}
