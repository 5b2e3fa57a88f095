package worker

// notificacion_worker.go
// Processes jobs from QueueNotificacion and mails the operator through the
// SMTP circuit breaker.

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fullfullelectronic/pos-system-macos/internal/infra"
	"github.com/fullfullelectronic/pos-system-macos/internal/model"

	"github.com/rs/zerolog/log"
)

// ConciliacionPayload is the job body for JobConciliacion.
type ConciliacionPayload struct {
	ConciliacionID string   `json:"conciliacion_id"`
	Operacion      string   `json:"operacion"`
	Causa          string   `json:"causa"`
	Pendientes     []string `json:"pendientes"`
	Recordatorio   bool     `json:"recordatorio"`
}

// StockBajoPayload is the job body for JobStockBajo.
type StockBajoPayload struct {
	ProductoID string `json:"producto_id"`
	Nombre     string `json:"nombre"`
	Stock      int    `json:"stock"`
	Umbral     int    `json:"umbral"`
}

func nuevoConciliacionPayload(c *model.Conciliacion, recordatorio bool) ConciliacionPayload {
	p := ConciliacionPayload{
		ConciliacionID: c.ID.String(),
		Operacion:      c.Operacion,
		Causa:          c.Causa,
		Recordatorio:   recordatorio,
	}
	for _, paso := range c.Pendientes {
		p.Pendientes = append(p.Pendientes, fmt.Sprintf("%s %s: %s (%s)", paso.Agregado, paso.AgregadoID, paso.Descripcion, paso.Error))
	}
	return p
}

// Enviador is the mail transport; *infra.Mailer satisfies it.
type Enviador interface {
	Configurado() bool
	Enviar(to []string, subject, body string) error
}

// NotificacionWorker turns notification jobs into operator emails.
type NotificacionWorker struct {
	mailer        Enviador
	cb            *infra.CircuitBreaker
	destinatarios []string
}

// NewNotificacionWorker wires the mailer, its breaker and the operator address.
func NewNotificacionWorker(mailer Enviador, cb *infra.CircuitBreaker, operatorEmail string) *NotificacionWorker {
	var to []string
	for _, addr := range strings.Split(operatorEmail, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			to = append(to, addr)
		}
	}
	return &NotificacionWorker{mailer: mailer, cb: cb, destinatarios: to}
}

// Register attaches the worker's handlers to a pool.
func (w *NotificacionWorker) Register(p *Pool) {
	p.Handle(JobConciliacion, w.ProcesarConciliacion)
	p.Handle(JobStockBajo, w.ProcesarStockBajo)
}

// ProcesarConciliacion mails the details of a conciliación to the operator.
func (w *NotificacionWorker) ProcesarConciliacion(_ context.Context, raw json.RawMessage) error {
	var p ConciliacionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		log.Error().Err(err).Msg("notificacion_worker: invalid conciliacion payload")
		return nil // not retryable
	}

	asunto := fmt.Sprintf("[ledger] Conciliación pendiente: %s", p.Operacion)
	if p.Recordatorio {
		asunto = "[ledger] Recordatorio: conciliación sin resolver " + p.ConciliacionID
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Conciliación: %s\nOperación: %s\nCausa: %s\n", p.ConciliacionID, p.Operacion, p.Causa)
	if len(p.Pendientes) > 0 {
		b.WriteString("\nPasos que requieren corrección manual:\n")
		for _, paso := range p.Pendientes {
			fmt.Fprintf(&b, "  - %s\n", paso)
		}
	}
	return w.enviar(asunto, b.String())
}

// ProcesarStockBajo mails a low-stock alert.
func (w *NotificacionWorker) ProcesarStockBajo(_ context.Context, raw json.RawMessage) error {
	var p StockBajoPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		log.Error().Err(err).Msg("notificacion_worker: invalid stock_bajo payload")
		return nil
	}
	asunto := fmt.Sprintf("[ledger] Stock bajo: %s", p.Nombre)
	cuerpo := fmt.Sprintf("El producto %s (%s) quedó con %d unidades (umbral %d).", p.Nombre, p.ProductoID, p.Stock, p.Umbral)
	return w.enviar(asunto, cuerpo)
}

func (w *NotificacionWorker) enviar(asunto, cuerpo string) error {
	if w.mailer == nil || !w.mailer.Configurado() || len(w.destinatarios) == 0 {
		log.Warn().Str("subject", asunto).Str("body", cuerpo).Msg("notificacion_worker: SMTP not configured, logging only")
		return nil
	}
	err := w.cb.Execute(func() error {
		return w.mailer.Enviar(w.destinatarios, asunto, cuerpo)
	})
	if err != nil {
		return fmt.Errorf("notificacion_worker: %w", err)
	}
	log.Info().Str("subject", asunto).Strs("to", w.destinatarios).Msg("notificacion_worker: email sent")
	return nil
}
