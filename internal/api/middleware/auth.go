package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ayo6706/profitwave/internal/api/problem"
	"github.com/ayo6706/profitwave/internal/domain"
	"github.com/ayo6706/profitwave/internal/service"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const (
	subjectContextKey contextKey = "subject"
	emailContextKey   contextKey = "email"
	userContextKey    contextKey = "user_id"
	roleContextKey    contextKey = "user_role"
	traceContextKey   contextKey = "trace_id"
)

var jwtSecret []byte
var jwtIssuer string
var jwtAudience string
var trustProxyHeaders bool

// authClaims are the identity-provider claims the API relies on. The subject
// is the stable identity key; role drives the admin policy.
type authClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

func SetJWTSecret(secret string) {
	if secret == "" {
		return
	}
	jwtSecret = []byte(secret)
}

func SetJWTValidation(issuer, audience string) {
	jwtIssuer = strings.TrimSpace(issuer)
	jwtAudience = strings.TrimSpace(audience)
}

func JWTSecret() []byte {
	clone := make([]byte, len(jwtSecret))
	copy(clone, jwtSecret)
	return clone
}

func JWTIssuer() string {
	return jwtIssuer
}

func JWTAudience() string {
	return jwtAudience
}

// AuthMiddleware validates the bearer token and injects the identity claims
// into the context.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			problem.Write(w, r, http.StatusUnauthorized, problem.Type("auth/authorization-header-required"), http.StatusText(http.StatusUnauthorized), "Authorization header required")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			problem.Write(w, r, http.StatusUnauthorized, problem.Type("auth/invalid-token-format"), http.StatusText(http.StatusUnauthorized), "Invalid token format")
			return
		}
		if len(jwtSecret) == 0 {
			problem.Write(w, r, http.StatusInternalServerError, problem.Type("auth/misconfigured"), http.StatusText(http.StatusInternalServerError), "auth is not configured")
			return
		}

		claims := &authClaims{}
		opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()}
		if jwtIssuer != "" {
			opts = append(opts, jwt.WithIssuer(jwtIssuer))
		}
		if jwtAudience != "" {
			opts = append(opts, jwt.WithAudience(jwtAudience))
		}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
			if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
			}
			return jwtSecret, nil
		}, opts...)
		if err != nil || !token.Valid {
			problem.Write(w, r, http.StatusUnauthorized, problem.Type("auth/invalid-token"), http.StatusText(http.StatusUnauthorized), "Invalid token")
			return
		}
		if strings.TrimSpace(claims.Subject) == "" {
			problem.Write(w, r, http.StatusUnauthorized, problem.Type("auth/invalid-token-claims"), http.StatusText(http.StatusUnauthorized), "Invalid token claims")
			return
		}

		role := domain.RoleUser
		if claims.Role == domain.RoleAdmin {
			role = domain.RoleAdmin
		}
		ctx := context.WithValue(r.Context(), subjectContextKey, claims.Subject)
		ctx = context.WithValue(ctx, emailContextKey, claims.Email)
		ctx = context.WithValue(ctx, roleContextKey, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LoadUser resolves the token subject to a platform user, signing it up on
// first sight, and injects the user id into the context.
func LoadUser(users *service.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			subject := SubjectFromContext(ctx)
			role := UserRoleFromContext(ctx)

			user, err := users.GetBySubject(ctx, subject)
			if err == nil && user.Role != role {
				err = domain.ErrNotFound
			}
			if errors.Is(err, domain.ErrNotFound) {
				user, _, err = users.EnsureUser(ctx, service.EnsureUserRequest{
					Subject:  subject,
					Email:    EmailFromContext(ctx),
					Role:     role,
					ClientIP: ClientIP(r),
				})
			}
			if err != nil {
				status := http.StatusInternalServerError
				if errors.Is(err, domain.ErrStorageUnavailable) {
					status = http.StatusServiceUnavailable
					w.Header().Set("Retry-After", "5")
				}
				zap.L().Error("resolve user failed", zap.Error(err), zap.String("subject", subject))
				problem.Write(w, r, status, problem.Type("auth/user-resolution-failed"), "", "failed to resolve user")
				return
			}

			if info := requestInfoFromContext(ctx); info != nil {
				info.userID = user.ID.String()
			}
			ctx = context.WithValue(ctx, userContextKey, user.ID.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole ensures the authenticated user has the required role.
func RequireRole(requiredRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := UserRoleFromContext(r.Context())
			if role != requiredRole {
				problem.Write(w, r, http.StatusForbidden, problem.Type("auth/insufficient-permissions"), http.StatusText(http.StatusForbidden), "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SetTrustProxyHeaders makes ClientIP honour X-Forwarded-For. Enable it only
// behind a proxy that overwrites the header.
func SetTrustProxyHeaders(trust bool) {
	trustProxyHeaders = trust
}

// ClientIP returns the caller address recorded in activity logs.
func ClientIP(r *http.Request) string {
	if trustProxyHeaders {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			ip, _, _ := strings.Cut(fwd, ",")
			if ip = strings.TrimSpace(ip); ip != "" {
				return ip
			}
		}
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	return strings.Trim(host, "[]")
}

func stringFromContext(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// UserIDFromContext returns the authenticated platform user id.
func UserIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, userContextKey)
}

// UserUUIDFromContext parses the authenticated platform user id.
func UserUUIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(UserIDFromContext(ctx))
	return id, err == nil
}

func SubjectFromContext(ctx context.Context) string {
	return stringFromContext(ctx, subjectContextKey)
}

func EmailFromContext(ctx context.Context) string {
	return stringFromContext(ctx, emailContextKey)
}

// UserRoleFromContext returns the role of the authenticated user.
func UserRoleFromContext(ctx context.Context) string {
	return stringFromContext(ctx, roleContextKey)
}

// TraceIDFromContext returns the trace id for the request.
func TraceIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, traceContextKey)
}
