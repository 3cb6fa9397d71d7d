package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"carrental-backend/internal/security"
)

type contextKey string

const actorKey contextKey = "actor"

// AuthMiddleware validates the bearer token and stores the actor claims on
// the request context. Fine-grained authorization stays with the external
// collaborator; here we only establish who is calling.
func AuthMiddleware(tokens security.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeJSON(w, http.StatusUnauthorized, errorEnvelope{Error: errorBody{Kind: kindForbidden, Message: "missing bearer token"}})
				return
			}
			claims, err := tokens.ValidateToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errorEnvelope{Error: errorBody{Kind: kindForbidden, Message: err.Error()}})
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey, claims)))
		})
	}
}

func actorFromContext(ctx context.Context) *security.ActorClaims {
	claims, _ := ctx.Value(actorKey).(*security.ActorClaims)
	return claims
}

func actorID(ctx context.Context) uuid.UUID {
	if claims := actorFromContext(ctx); claims != nil {
		return claims.ActorID
	}
	return uuid.Nil
}

func agencyID(ctx context.Context) uuid.UUID {
	if claims := actorFromContext(ctx); claims != nil {
		return claims.AgencyID
	}
	return uuid.Nil
}
