package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"babyshop/config"
)

// Google drives the OAuth code flow and hands the resulting id token to the
// identity provider.
type Google struct {
	oauth    *oauth2.Config
	provider Provider
}

func NewGoogle(cfg config.OAuthConfig, provider Provider) *Google {
	return &Google{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		provider: provider,
	}
}

// Enabled reports whether a client id is configured.
func (g *Google) Enabled() bool {
	return g.oauth.ClientID != ""
}

// AuthCodeURL is where the browser is sent to pick an account.
func (g *Google) AuthCodeURL(state string) string {
	return g.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

// Exchange trades the callback code for a signed-in account.
func (g *Google) Exchange(ctx context.Context, code string) (*Account, error) {
	token, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	idToken, _ := token.Extra("id_token").(string)
	if idToken == "" {
		return nil, errors.New("google did not return an id token")
	}
	return g.provider.SignInWithGoogle(ctx, idToken, g.oauth.RedirectURL)
}
