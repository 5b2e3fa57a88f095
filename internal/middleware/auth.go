package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/fullfullelectronic/pos-system-macos/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ClaimsKey = "claims"

	RolAdmin    = "admin"
	RolOperador = "operador"
)

// Claims identify the operator behind a mutating request. Tokens are issued
// out of band (ledgerctl token).
type Claims struct {
	Operador string `json:"operador"`
	Rol      string `json:"rol"`
	jwt.RegisteredClaims
}

// EmitirToken signs an HS256 token for operador valid for ttl.
func EmitirToken(secret, operador, rol string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("jwt: secreto vacío")
	}
	if rol != RolAdmin && rol != RolOperador {
		return "", errors.New("jwt: rol desconocido " + rol)
	}
	now := time.Now()
	claims := Claims{
		Operador: operador,
		Rol:      rol,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   operador,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// JWTAuth validates the Bearer token on every protected route.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Autenticacion requerida"))
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})

		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Token invalido o expirado"))
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// RequireRole rejects requests whose JWT role is not in the allowed list.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil || !allowed[claims.Rol] {
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("Permisos insuficientes"))
			return
		}
		c.Next()
	}
}

// GetClaims returns the typed claims, or nil on public routes.
func GetClaims(c *gin.Context) *Claims {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}
