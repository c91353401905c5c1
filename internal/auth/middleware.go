package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/isdelr/calculations-api/internal/apperr"
	"github.com/isdelr/calculations-api/internal/models"
	"github.com/rs/zerolog/hlog"
)

// Resolution failures. Both are wrapped in an UNAUTHENTICATED apperr.Error.
var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrUserNotFound = errors.New("user referenced by token not found")
)

// UserLookup loads users by ID.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (models.User, error)
}

// IdentityResolver turns a bearer token into the authenticated user.
type IdentityResolver struct {
	tokens *TokenService
	users  UserLookup
}

// NewIdentityResolver creates an IdentityResolver.
func NewIdentityResolver(tokens *TokenService, users UserLookup) *IdentityResolver {
	return &IdentityResolver{tokens: tokens, users: users}
}

// Resolve verifies token and loads its user. Authentication failures are
// UNAUTHENTICATED errors; storage failures are returned as-is.
func (r *IdentityResolver) Resolve(ctx context.Context, token string) (models.User, error) {
	if token == "" {
		return models.User{}, unauthenticated(ErrMissingToken)
	}
	userID, err := r.tokens.Verify(token)
	if err != nil {
		return models.User{}, unauthenticated(err)
	}

	user, err := r.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return models.User{}, unauthenticated(ErrUserNotFound)
		}
		return models.User{}, err
	}
	if !user.IsActive {
		return models.User{}, unauthenticated(ErrUserNotFound)
	}
	return user, nil
}

func unauthenticated(cause error) error {
	return apperr.Wrap(apperr.CodeUnauthenticated, "could not validate credentials", cause)
}

// Middleware protects routes. The resolved user is available to handlers
// through UserFromContext; failures are passed to fail and the chain stops.
func (r *IdentityResolver) Middleware(fail func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			user, err := r.Resolve(req.Context(), BearerToken(req))
			if err != nil {
				hlog.FromRequest(req).Debug().Err(err).Msg("Rejected request")
				fail(w, req, err)
				return
			}
			next.ServeHTTP(w, req.WithContext(WithUser(req.Context(), user)))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header, or returns "".
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

type contextKey string

const userKey = contextKey("user")

// WithUser returns a context carrying user.
func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the authenticated user stored by Middleware.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userKey).(models.User)
	return user, ok
}
