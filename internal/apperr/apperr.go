// Package apperr defines the error taxonomy returned by every workflow.
// Lower-level failures (repository, lock, queue) are translated into these
// kinds at the service boundary; callers branch with errors.Is / errors.As.
package apperr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fullfullelectronic/pos-system-macos/internal/model"
)

var (
	ErrNotFound            = errors.New("registro no encontrado")
	ErrFondosInsuficientes = errors.New("fondos insuficientes")
	ErrStockInsuficiente   = errors.New("stock insuficiente")
	ErrCantidadInvalida    = errors.New("cantidad inválida")
	// ErrConflicto covers uniqueness violations and delete guards.
	ErrConflicto = errors.New("conflicto")
)

// NotFound wraps ErrNotFound with the entity name and id.
func NotFound(entidad string, id any) error {
	return fmt.Errorf("%s %v: %w", entidad, id, ErrNotFound)
}

// Conflicto wraps ErrConflicto with a human readable reason.
func Conflicto(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrConflicto)
}

// ValidationError lists structural or business-rule violations. No mutation
// was attempted, or every attempted mutation was compensated.
type ValidationError struct {
	Violaciones []string
}

func (e *ValidationError) Error() string {
	return "error de validación: " + strings.Join(e.Violaciones, "; ")
}

// Validacion returns a *ValidationError, or nil when there are no violations.
func Validacion(violaciones ...string) error {
	if len(violaciones) == 0 {
		return nil
	}
	return &ValidationError{Violaciones: violaciones}
}

// ConsistencyError is raised when a compensating step itself failed. The
// listed steps remain applied and must be reconciled by an operator.
type ConsistencyError struct {
	Operacion string
	// Causa is the failure that triggered the compensation.
	Causa error
	// Aplicadas are the compensations that did run.
	Aplicadas []model.PasoSaga
	// Fallidas are the effects still in place.
	Fallidas []model.PasoSaga
	// ConciliacionID is set once the record was persisted.
	ConciliacionID string
}

func (e *ConsistencyError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "inconsistencia en %s", e.Operacion)
	if e.Causa != nil {
		fmt.Fprintf(&b, " (causa: %v)", e.Causa)
	}
	b.WriteString(": compensaciones fallidas [")
	for i, p := range e.Fallidas {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s %s %s", p.Agregado, p.AgregadoID, p.Descripcion)
		if p.Error != "" {
			fmt.Fprintf(&b, ": %s", p.Error)
		}
	}
	b.WriteString("]")
	return b.String()
}

// EsDominio reports whether err already belongs to the taxonomy.
func EsDominio(err error) bool {
	var ve *ValidationError
	var ce *ConsistencyError
	return errors.As(err, &ve) || errors.As(err, &ce) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrFondosInsuficientes) ||
		errors.Is(err, ErrStockInsuficiente) ||
		errors.Is(err, ErrCantidadInvalida) ||
		errors.Is(err, ErrConflicto)
}

// Interno marks a raw lower-level failure surfaced from a workflow step.
type Interno struct {
	Operacion string
	Err       error
}

func (e *Interno) Error() string { return fmt.Sprintf("%s: error interno", e.Operacion) }

func (e *Interno) Unwrap() error { return e.Err }

// Traducir returns err unchanged when it is already a taxonomy error and
// wraps anything else as *Interno so raw store errors never reach callers.
func Traducir(operacion string, err error) error {
	if err == nil || EsDominio(err) {
		return err
	}
	var in *Interno
	if errors.As(err, &in) {
		return err
	}
	return &Interno{Operacion: operacion, Err: err}
}
