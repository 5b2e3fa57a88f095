package service

import (
	"context"
	"errors"
	"strings"

	"github.com/fullfullelectronic/pos-system-macos/internal/apperr"
	"github.com/fullfullelectronic/pos-system-macos/internal/dto"
	"github.com/fullfullelectronic/pos-system-macos/internal/model"
	"github.com/fullfullelectronic/pos-system-macos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type ClienteService interface {
	Crear(ctx context.Context, req dto.CrearClienteRequest) (*dto.ClienteResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error)
	Listar(ctx context.Context, filter dto.ClienteFilter) (*dto.ClienteListResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarClienteRequest) (*dto.ClienteResponse, error)
	Eliminar(ctx context.Context, id uuid.UUID) error
}

type clienteService struct {
	repo   repository.ClienteRepository
	ventas repository.VentaRepository
}

func NewClienteService(repo repository.ClienteRepository, ventas repository.VentaRepository) ClienteService {
	return &clienteService{repo: repo, ventas: ventas}
}

func (s *clienteService) Crear(ctx context.Context, req dto.CrearClienteRequest) (*dto.ClienteResponse, error) {
	c := &model.Cliente{
		Nombre:    strings.TrimSpace(req.Nombre),
		Direccion: strings.TrimSpace(req.Direccion),
		Telefono:  strings.TrimSpace(req.Telefono),
		Email:     normalizarEmail(req.Email),
		CUIT:      normalizarOpcional(req.CUIT),
	}
	if err := apperr.Validacion(c.Validar()...); err != nil {
		return nil, err
	}
	if err := s.unicidad(ctx, c); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, apperr.Traducir("crear_cliente", err)
	}
	log.Info().Str("cliente_id", c.ID.String()).Msg("cliente creado")
	resp := clienteToResponse(c)
	return &resp, nil
}

// unicidad rejects an email or CUIT already used by another customer.
func (s *clienteService) unicidad(ctx context.Context, c *model.Cliente) error {
	if c.Email != nil {
		otro, err := s.repo.FindByEmail(ctx, *c.Email)
		switch {
		case err == nil && otro.ID != c.ID:
			return apperr.Conflicto("el email %s ya está registrado", *c.Email)
		case err != nil && !errors.Is(err, apperr.ErrNotFound):
			return apperr.Traducir("verificar_cliente", err)
		}
	}
	if c.CUIT != nil {
		otro, err := s.repo.FindByCUIT(ctx, *c.CUIT)
		switch {
		case err == nil && otro.ID != c.ID:
			return apperr.Conflicto("el CUIT %s ya está registrado", *c.CUIT)
		case err != nil && !errors.Is(err, apperr.ErrNotFound):
			return apperr.Traducir("verificar_cliente", err)
		}
	}
	return nil
}

func (s *clienteService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Traducir("obtener_cliente", err)
	}
	resp := clienteToResponse(c)
	return &resp, nil
}

func (s *clienteService) Listar(ctx context.Context, filter dto.ClienteFilter) (*dto.ClienteListResponse, error) {
	clientes, total, err := s.repo.List(ctx, repository.ClienteFilter{
		Nombre: filter.Nombre,
		Page:   filter.Page,
		Limit:  filter.Limit,
	})
	if err != nil {
		return nil, apperr.Traducir("listar_clientes", err)
	}
	data := make([]dto.ClienteResponse, 0, len(clientes))
	for i := range clientes {
		data = append(data, clienteToResponse(&clientes[i]))
	}
	return &dto.ClienteListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *clienteService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarClienteRequest) (*dto.ClienteResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Traducir("actualizar_cliente", err)
	}
	if req.Nombre != nil {
		c.Nombre = strings.TrimSpace(*req.Nombre)
	}
	if req.Direccion != nil {
		c.Direccion = strings.TrimSpace(*req.Direccion)
	}
	if req.Telefono != nil {
		c.Telefono = strings.TrimSpace(*req.Telefono)
	}
	if req.Email != nil {
		c.Email = normalizarEmail(req.Email)
	}
	if req.CUIT != nil {
		c.CUIT = normalizarOpcional(req.CUIT)
	}
	if err := apperr.Validacion(c.Validar()...); err != nil {
		return nil, err
	}
	if err := s.unicidad(ctx, c); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, apperr.Traducir("actualizar_cliente", err)
	}
	resp := clienteToResponse(c)
	return &resp, nil
}

// Eliminar refuses while any sale references the customer.
func (s *clienteService) Eliminar(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return apperr.Traducir("eliminar_cliente", err)
	}
	conVentas, err := s.ventas.ExistsConCliente(ctx, id)
	if err != nil {
		return apperr.Traducir("eliminar_cliente", err)
	}
	if conVentas {
		return apperr.Conflicto("el cliente tiene ventas registradas")
	}
	return apperr.Traducir("eliminar_cliente", s.repo.Delete(ctx, id))
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func normalizarOpcional(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

func normalizarEmail(v *string) *string {
	e := normalizarOpcional(v)
	if e == nil {
		return nil
	}
	l := strings.ToLower(*e)
	return &l
}

func clienteToResponse(c *model.Cliente) dto.ClienteResponse {
	return dto.ClienteResponse{
		ID:        c.ID.String(),
		Nombre:    c.Nombre,
		Direccion: c.Direccion,
		Telefono:  c.Telefono,
		Email:     c.Email,
		CUIT:      c.CUIT,
	}
}
