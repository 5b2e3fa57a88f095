package router_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fullfullelectronic/pos-system-macos/internal/dto"
	"github.com/fullfullelectronic/pos-system-macos/internal/lock"
	"github.com/fullfullelectronic/pos-system-macos/internal/middleware"
	"github.com/fullfullelectronic/pos-system-macos/internal/repository/memoria"
	"github.com/fullfullelectronic/pos-system-macos/internal/router"
	"github.com/fullfullelectronic/pos-system-macos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

// ── Helpers ──────────────────────────────────────────────────────────────────

type testEnv struct {
	engine   *gin.Engine
	admin    string
	operador string
}

func setupTestEnv(t *testing.T, limiter *middleware.RateLimiter) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repos := memoria.NewRepositorios(memoria.NewStore())
	svcs := service.NuevosServicios(repos, lock.NewLocal(), nil)

	admin, err := middleware.EmitirToken(testSecret, "ana", middleware.RolAdmin, time.Hour)
	require.NoError(t, err)
	operador, err := middleware.EmitirToken(testSecret, "caja1", middleware.RolOperador, time.Hour)
	require.NoError(t, err)

	return &testEnv{
		engine: router.New(router.Deps{
			Env:         "test",
			JWTSecret:   testSecret,
			Servicios:   svcs,
			RateLimiter: limiter,
		}),
		admin:    admin,
		operador: operador,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (e *testEnv) crearCuenta(t *testing.T, numero string, saldo int64) dto.CuentaResponse {
	t.Helper()
	w := e.do(t, http.MethodPost, "/v1/cuentas", map[string]any{
		"nombre_banco":  "Banco Galicia",
		"numero_cuenta": numero,
		"tipo":          "checking",
		"saldo_inicial": saldo,
	}, e.operador)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[dto.CuentaResponse](t, w)
}

func (e *testEnv) crearProducto(t *testing.T, nombre string, stock int) dto.ProductoResponse {
	t.Helper()
	w := e.do(t, http.MethodPost, "/v1/productos", map[string]any{
		"nombre":        nombre,
		"precio":        100,
		"stock_inicial": stock,
	}, e.operador)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[dto.ProductoResponse](t, w)
}

func (e *testEnv) desactivarIVA(t *testing.T) {
	t.Helper()
	w := e.do(t, http.MethodPut, "/v1/configuracion", map[string]any{"iva_habilitado": false}, e.admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

// ── Tests: infraestructura ───────────────────────────────────────────────────

func TestHealth_SinBackendsExternos(t *testing.T) {
	env := setupTestEnv(t, nil)
	w := env.do(t, http.MethodGet, "/health", nil, "")

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "disabled", body["db"])
}

func TestRequestID_SeDevuelveEnLaRespuesta(t *testing.T) {
	env := setupTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(middleware.RequestIDHeader))

	w = env.do(t, http.MethodGet, "/health", nil, "")
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestRateLimiter_Devuelve429(t *testing.T) {
	env := setupTestEnv(t, middleware.NewRateLimiter(2, time.Minute))

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health", nil, "").Code)
	}
	w := env.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

// ── Tests: autenticación ─────────────────────────────────────────────────────

func TestMutacionesRequierenToken(t *testing.T) {
	env := setupTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/v1/cuentas", map[string]any{"nombre_banco": "x"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/v1/cuentas", map[string]any{"nombre_banco": "x"}, "garbage.token.here")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// reads stay public
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/v1/cuentas", nil, "").Code)
}

func TestTokenVencido(t *testing.T) {
	env := setupTestEnv(t, nil)
	vencido, err := middleware.EmitirToken(testSecret, "ana", middleware.RolAdmin, -time.Minute)
	require.NoError(t, err)

	w := env.do(t, http.MethodGet, "/v1/conciliaciones", nil, vencido)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestConciliacionesSoloAdmin(t *testing.T) {
	env := setupTestEnv(t, nil)

	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/v1/conciliaciones", nil, env.operador).Code)

	w := env.do(t, http.MethodGet, "/v1/conciliaciones", nil, env.admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]dto.ConciliacionResponse](t, w))

	w = env.do(t, http.MethodGet, "/v1/conciliaciones?estado=otro", nil, env.admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ── Tests: flujos ────────────────────────────────────────────────────────────

func TestVenta_CicloCompleto(t *testing.T) {
	env := setupTestEnv(t, nil)
	env.desactivarIVA(t)
	cuenta := env.crearCuenta(t, "00012345", 1000)
	prod := env.crearProducto(t, "Yerba 1kg", 5)

	w := env.do(t, http.MethodPost, "/v1/ventas", map[string]any{
		"items": []map[string]any{{"producto_id": prod.ID, "cantidad": 2, "precio_unitario": 100}},
		"pagos": []map[string]any{{"tipo": "cash", "monto": 200, "cuenta_id": cuenta.ID}},
	}, env.operador)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	venta := decode[dto.VentaResponse](t, w)
	assert.Equal(t, "completed", venta.Estado)
	assert.True(t, venta.Total.Equal(decimal.NewFromInt(200)))

	w = env.do(t, http.MethodGet, "/v1/cuentas/"+cuenta.ID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[dto.CuentaResponse](t, w).Saldo.Equal(decimal.NewFromInt(1200)))

	w = env.do(t, http.MethodPost, "/v1/ventas/"+venta.ID+"/anular", map[string]any{"motivo": "cliente devolvió"}, env.operador)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "cancelled", decode[dto.VentaResponse](t, w).Estado)

	w = env.do(t, http.MethodGet, "/v1/productos/"+prod.ID, nil, "")
	assert.Equal(t, 5, decode[dto.ProductoResponse](t, w).Stock)

	// already cancelled
	w = env.do(t, http.MethodPost, "/v1/ventas/"+venta.ID+"/anular", map[string]any{"motivo": "otra vez"}, env.operador)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVenta_MapeoDeErrores(t *testing.T) {
	env := setupTestEnv(t, nil)
	env.desactivarIVA(t)
	prod := env.crearProducto(t, "Azúcar", 1)

	// stock
	w := env.do(t, http.MethodPost, "/v1/ventas", map[string]any{
		"items": []map[string]any{{"producto_id": prod.ID, "cantidad": 3, "precio_unitario": 100}},
		"pagos": []map[string]any{{"tipo": "cash", "monto": 300}},
	}, env.operador)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

	// payments do not cover the total
	w = env.do(t, http.MethodPost, "/v1/ventas", map[string]any{
		"items": []map[string]any{{"producto_id": prod.ID, "cantidad": 1, "precio_unitario": 100}},
		"pagos": []map[string]any{{"tipo": "cash", "monto": 50}},
	}, env.operador)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	// structural: no items
	w = env.do(t, http.MethodPost, "/v1/ventas", map[string]any{
		"pagos": []map[string]any{{"tipo": "cash", "monto": 50}},
	}, env.operador)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string]any](t, w)["fields"], "Items")

	// unknown sale
	w = env.do(t, http.MethodGet, "/v1/ventas/00000000-0000-0000-0000-000000000001", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/v1/ventas/no-es-uuid", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCuenta_ElSaldoNoSeEdita(t *testing.T) {
	env := setupTestEnv(t, nil)
	cuenta := env.crearCuenta(t, "00012345", 500)

	w := env.do(t, http.MethodPut, "/v1/cuentas/"+cuenta.ID, map[string]any{"saldo": 9999}, env.operador)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, "/v1/cuentas/"+cuenta.ID, map[string]any{"descripcion": "Cuenta sueldos"}, env.operador)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[dto.CuentaResponse](t, w)
	assert.Equal(t, "Cuenta sueldos", resp.Descripcion)
	assert.True(t, resp.Saldo.Equal(decimal.NewFromInt(500)))
}

func TestTransferencia_FondosInsuficientes(t *testing.T) {
	env := setupTestEnv(t, nil)
	a := env.crearCuenta(t, "0001", 100)
	b := env.crearCuenta(t, "0002", 0)

	w := env.do(t, http.MethodPost, "/v1/transferencias", map[string]any{
		"cuenta_origen_id":  a.ID,
		"cuenta_destino_id": b.ID,
		"monto":             150,
	}, env.operador)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = env.do(t, http.MethodPost, "/v1/transferencias", map[string]any{
		"cuenta_origen_id":  a.ID,
		"cuenta_destino_id": b.ID,
		"monto":             60,
	}, env.operador)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/v1/movimientos?cuenta_id="+b.ID+"&entidad_tipo=transfer", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode[dto.MovimientoListResponse](t, w).Total)

	// both legs are stored as income/expense; tipo=transfer selects them by entity
	w = env.do(t, http.MethodGet, "/v1/movimientos?cuenta_id="+a.ID+"&tipo=transfer", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	lista := decode[dto.MovimientoListResponse](t, w)
	require.EqualValues(t, 1, lista.Total)
	assert.Equal(t, "expense", lista.Data[0].Tipo)
}

func TestGasto_CategoriasYCuentaPorDefecto(t *testing.T) {
	env := setupTestEnv(t, nil)
	def := env.crearCuenta(t, "0001", 1000)

	w := env.do(t, http.MethodPut, "/v1/configuracion", map[string]any{"cuenta_por_defecto_id": def.ID}, env.admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, "/v1/gastos", map[string]any{
		"descripcion": "Flete mercadería",
		"monto":       250,
		"categoria":   "Fletes",
	}, env.operador)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/v1/cuentas/"+def.ID, nil, "")
	assert.True(t, decode[dto.CuentaResponse](t, w).Saldo.Equal(decimal.NewFromInt(750)))

	w = env.do(t, http.MethodGet, "/v1/gastos/categorias", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode[[]string](t, w), "Fletes")

	// the default account cannot be deleted
	w = env.do(t, http.MethodDelete, "/v1/cuentas/"+def.ID, nil, env.operador)
	assert.Equal(t, http.StatusConflict, w.Code)
}
