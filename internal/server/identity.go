package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"tailscale.com/client/tailscale/apitype"
)

//go:generate mockgen -source=$GOFILE -destination=identity_mocks_test.go -package=server

// WhoIsClient is implemented by the tsnet local client.
type WhoIsClient interface {
	WhoIs(ctx context.Context, remoteAddr string) (*apitype.WhoIsResponse, error)
}

// UserInfo is the caller identity as seen by the API.
type UserInfo struct {
	UserID      int64  `json:"user_id"`
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
}

// devUser is the identity of every request when no tailnet is configured.
var devUser = UserInfo{Login: "local", DisplayName: "Local Dev User"}

type userInfoKey struct{}

// userLookup is the part of the service identity resolution needs.
type userLookup interface {
	GetOrCreateUser(ctx context.Context, login, displayName string) (int64, error)
}

// identityResolver maps the caller to a BasicFit user, creating the user on
// first contact. Resolved logins are cached for the process lifetime.
type identityResolver struct {
	users userLookup
	whois WhoIsClient
	log   *slog.Logger
	ids   sync.Map // login -> int64
}

func newIdentityResolver(users userLookup, whois WhoIsClient, log *slog.Logger) *identityResolver {
	return &identityResolver{users: users, whois: whois, log: log}
}

func (ir *identityResolver) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := devUser
		if ir.whois != nil {
			who, err := ir.whois.WhoIs(r.Context(), r.RemoteAddr)
			if err != nil || who.UserProfile == nil {
				ir.log.Warn("tailscale whois failed", "remote_addr", r.RemoteAddr, "error", err)
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unknown tailnet caller"})
				return
			}
			info = UserInfo{Login: who.UserProfile.LoginName, DisplayName: who.UserProfile.DisplayName}
		}

		id, err := ir.userID(r.Context(), info)
		if err != nil {
			ir.log.Error("resolving user", "login", info.Login, "error", err)
			writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error", Reason: "internal"})
			return
		}
		info.UserID = id
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userInfoKey{}, info)))
	})
}

func (ir *identityResolver) userID(ctx context.Context, info UserInfo) (int64, error) {
	if v, ok := ir.ids.Load(info.Login); ok {
		return v.(int64), nil
	}
	id, err := ir.users.GetOrCreateUser(ctx, info.Login, info.DisplayName)
	if err != nil {
		return 0, err
	}
	ir.ids.Store(info.Login, id)
	return id, nil
}

// userInfoFromContext returns the identity stored by the identity
// middleware, or the development user outside of it.
func userInfoFromContext(r *http.Request) UserInfo {
	if info, ok := r.Context().Value(userInfoKey{}).(UserInfo); ok {
		return info
	}
	return devUser
}

// userIDFromContext returns the caller's user ID, 0 outside of the identity
// middleware.
func userIDFromContext(r *http.Request) int64 {
	return userInfoFromContext(r).UserID
}

// UserID returns the caller's user ID stored in ctx by the identity
// middleware, 0 when there is none.
func UserID(ctx context.Context) int64 {
	if info, ok := ctx.Value(userInfoKey{}).(UserInfo); ok {
		return info.UserID
	}
	return 0
}
