package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/dgavriliu/lataverna/api/web"
	"github.com/dgavriliu/lataverna/api/weberr"
	"github.com/dgavriliu/lataverna/core/cart"
	"github.com/dgavriliu/lataverna/core/claims"
	"github.com/dgavriliu/lataverna/core/user"
	"github.com/dgavriliu/lataverna/random"
	"github.com/dgavriliu/lataverna/validate"
	"github.com/jmoiron/sqlx"
	"golang.org/x/oauth2"
)

const oauthStateKey = "oauth_state"

type ProviderConfig struct {
	Name        string
	Client      string
	Secret      string
	URL         string
	RedirectURL string
}

type Provider struct {
	cfg      oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// MakeProviders discovers each provider's endpoints once at startup.
func MakeProviders(ctx context.Context, cfgs []ProviderConfig) (map[string]Provider, error) {
	provs := make(map[string]Provider, len(cfgs))

	for _, c := range cfgs {
		p, err := oidc.NewProvider(ctx, c.URL)
		if err != nil {
			return nil, fmt.Errorf("discovering provider %q: %w", c.Name, err)
		}

		provs[c.Name] = Provider{
			cfg: oauth2.Config{
				ClientID:     c.Client,
				ClientSecret: c.Secret,
				Endpoint:     p.Endpoint(),
				RedirectURL:  c.RedirectURL,
				Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
			},
			verifier: p.Verifier(&oidc.Config{ClientID: c.Client}),
		}
	}

	return provs, nil
}

func HandleOauthLogin(session *scs.SessionManager, providers map[string]Provider) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		prov, ok := providers[web.Param(r, "provider")]
		if !ok {
			return weberr.NotFound(errors.New("unknown oauth provider"))
		}

		state, err := random.StringSecure(32)
		if err != nil {
			return weberr.InternalError(err)
		}
		session.Put(ctx, oauthStateKey, state)

		http.Redirect(w, r, prov.cfg.AuthCodeURL(state), http.StatusTemporaryRedirect)
		return nil
	}
}

func HandleOauthCallback(db *sqlx.DB, session *scs.SessionManager, providers map[string]Provider, redirectURL string, carts *cart.Registry) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		prov, ok := providers[web.Param(r, "provider")]
		if !ok {
			return weberr.NotFound(errors.New("unknown oauth provider"))
		}

		state := session.PopString(ctx, oauthStateKey)
		if state == "" || state != r.URL.Query().Get("state") {
			return weberr.BadRequest(errors.New("oauth state mismatch"))
		}

		token, err := prov.cfg.Exchange(ctx, r.URL.Query().Get("code"))
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("exchanging code: %w", err))
		}

		rawID, ok := token.Extra("id_token").(string)
		if !ok {
			return weberr.BadRequest(errors.New("oauth response misses id_token"))
		}

		idToken, err := prov.verifier.Verify(ctx, rawID)
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("verifying id_token: %w", err))
		}

		var profile struct {
			Email string `json:"email"`
			Name  string `json:"name"`
		}
		if err := idToken.Claims(&profile); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding id_token claims: %w", err))
		}

		u, err := user.FetchByEmail(ctx, db, profile.Email)
		if errors.Is(err, user.ErrNotFound) {
			now := time.Now().UTC()
			u = user.User{
				ID:        validate.GenerateID(),
				Email:     profile.Email,
				Role:      claims.RoleUser,
				Name:      profile.Name,
				CreatedAt: now,
				UpdatedAt: now,
			}
			// Oauth users get an unusable password hash.
			u.PasswordHash = []byte("!")
			if err := user.Create(ctx, db, u); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		if err := signIn(ctx, session, carts, u); err != nil {
			return err
		}

		http.Redirect(w, r, redirectURL, http.StatusTemporaryRedirect)
		return nil
	}
}
