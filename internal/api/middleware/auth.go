package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gatherpoint/server/internal/api/problem"
	"github.com/gatherpoint/server/internal/auth"
	"github.com/gatherpoint/server/internal/domain/events"
)

type contextKeyAuth string

const actorKey contextKeyAuth = "actor"

// Identity resolves the caller from an optional Bearer token. Requests
// without a token (or with a bad one on a public route) proceed as the
// anonymous actor; the owner of anything created is then the anonymous
// sentinel. Identity always comes from the verified token, never from
// request payload fields.
func Identity(manager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := events.Anonymous()

			if manager != nil {
				if token, err := auth.TokenFromHeader(r.Header.Get("Authorization")); err == nil {
					if claims, err := manager.Validate(token); err == nil {
						actor = events.NewActor(claims.Subject, claims.Username, claims.Role)
					}
				}
			}

			ctx := contextWithActor(r.Context(), actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects requests that do not carry a valid admin token:
// 401 on a missing/invalid token, 403 on a valid non-admin one. It expects
// Identity to have run first.
func RequireAdmin(manager *auth.JWTManager, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if manager == nil {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", problem.ErrUnauthorized, env)
				return
			}

			authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
			if authHeader == "" {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Missing authorization header", problem.ErrUnauthorized, env)
				return
			}

			token, err := auth.TokenFromHeader(authHeader)
			if err != nil {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Invalid authorization format", problem.ErrUnauthorized, env)
				return
			}

			claims, err := manager.Validate(token)
			if err != nil {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Invalid token", err, env)
				return
			}

			if !auth.IsAdmin(claims.Role) {
				problem.Write(w, r, http.StatusForbidden, problem.TypeForbidden, "Insufficient permissions", problem.ErrForbidden, env)
				return
			}

			ctx := contextWithActor(r.Context(), events.NewActor(claims.Subject, claims.Username, claims.Role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func contextWithActor(ctx context.Context, actor events.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromRequest returns the caller identity resolved by Identity or
// RequireAdmin, defaulting to anonymous.
func ActorFromRequest(r *http.Request) events.Actor {
	if r == nil {
		return events.Anonymous()
	}
	if actor, ok := r.Context().Value(actorKey).(events.Actor); ok {
		return actor
	}
	return events.Anonymous()
}
