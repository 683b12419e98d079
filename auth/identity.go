package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"babyshop/gateway"
	"babyshop/models"
)

var ErrNotConfigured = errors.New("identity provider is not configured")

// Account is the result of a successful sign-in.
type Account struct {
	User        models.User
	Credentials Credentials
}

// Provider is the identity service the dashboard signs users in with.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*Account, error)
	SignUp(ctx context.Context, name, email, password string) (*Account, error)
	SignInWithGoogle(ctx context.Context, idToken, requestURI string) (*Account, error)
	Lookup(ctx context.Context, creds Credentials) (*models.User, error)
	UpdateProfile(ctx context.Context, creds Credentials, displayName, photoURL string) (*models.User, error)
}

// IdentityToolkit talks to the Identity Toolkit REST API.
type IdentityToolkit struct {
	client *gateway.Client
	apiKey string
}

func NewIdentityToolkit(client *gateway.Client, apiKey string) *IdentityToolkit {
	return &IdentityToolkit{client: client, apiKey: apiKey}
}

type accountReply struct {
	LocalID       string
	Email         string
	DisplayName   string
	PhotoURL      string
	EmailVerified bool
	IDToken       string
	RefreshToken  string
	ProviderID    string
}

func (t *IdentityToolkit) call(ctx context.Context, method string, body map[string]any) (map[string]any, error) {
	if t.apiKey == "" {
		return nil, ErrNotConfigured
	}
	path := fmt.Sprintf("/v1/accounts:%s?key=%s", method, url.QueryEscape(t.apiKey))
	data, err := t.client.Post(ctx, path, body)
	if err != nil {
		return nil, providerError(err)
	}
	obj, _ := data.(map[string]any)
	if obj == nil {
		return nil, fmt.Errorf("accounts:%s: unexpected response", method)
	}
	return obj, nil
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func parseAccount(m map[string]any) accountReply {
	verified, _ := m["emailVerified"].(bool)
	return accountReply{
		LocalID:       str(m, "localId"),
		Email:         str(m, "email"),
		DisplayName:   str(m, "displayName"),
		PhotoURL:      str(m, "photoUrl"),
		EmailVerified: verified,
		IDToken:       str(m, "idToken"),
		RefreshToken:  str(m, "refreshToken"),
		ProviderID:    str(m, "providerId"),
	}
}

func (a accountReply) account(provider string) *Account {
	if a.ProviderID != "" {
		provider = a.ProviderID
	}
	return &Account{
		User: models.User{
			UID:           a.LocalID,
			Email:         a.Email,
			DisplayName:   a.DisplayName,
			PhotoURL:      a.PhotoURL,
			EmailVerified: a.EmailVerified,
			Provider:      provider,
		},
		Credentials: Credentials{IDToken: a.IDToken, RefreshToken: a.RefreshToken},
	}
}

func (t *IdentityToolkit) SignIn(ctx context.Context, email, password string) (*Account, error) {
	reply, err := t.call(ctx, "signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
	if err != nil {
		return nil, err
	}
	return parseAccount(reply).account("password"), nil
}

// SignUp creates the account and then sets its display name.
func (t *IdentityToolkit) SignUp(ctx context.Context, name, email, password string) (*Account, error) {
	reply, err := t.call(ctx, "signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
	if err != nil {
		return nil, err
	}
	acc := parseAccount(reply).account("password")
	if name == "" {
		return acc, nil
	}
	user, err := t.UpdateProfile(ctx, acc.Credentials, name, "")
	if err != nil {
		return nil, fmt.Errorf("set display name: %w", err)
	}
	acc.User.DisplayName = user.DisplayName
	return acc, nil
}

// SignInWithGoogle exchanges a Google id token for a provider session.
func (t *IdentityToolkit) SignInWithGoogle(ctx context.Context, idToken, requestURI string) (*Account, error) {
	reply, err := t.call(ctx, "signInWithIdp", map[string]any{
		"postBody":            url.Values{"id_token": {idToken}, "providerId": {"google.com"}}.Encode(),
		"requestUri":          requestURI,
		"returnIdpCredential": true,
		"returnSecureToken":   true,
	})
	if err != nil {
		return nil, err
	}
	return parseAccount(reply).account("google.com"), nil
}

// Lookup refreshes the user from the provider.
func (t *IdentityToolkit) Lookup(ctx context.Context, creds Credentials) (*models.User, error) {
	reply, err := t.call(ctx, "lookup", map[string]any{"idToken": creds.IDToken})
	if err != nil {
		return nil, err
	}
	users, _ := reply["users"].([]any)
	if len(users) == 0 {
		return nil, &Error{Code: "USER_NOT_FOUND", Message: friendly["USER_NOT_FOUND"]}
	}
	first, _ := users[0].(map[string]any)
	acc := parseAccount(first)
	provider := "password"
	if infos, ok := first["providerUserInfo"].([]any); ok && len(infos) > 0 {
		if info, ok := infos[0].(map[string]any); ok && str(info, "providerId") != "" {
			provider = str(info, "providerId")
		}
	}
	return &acc.account(provider).User, nil
}

// UpdateProfile sets the display name and, when non-empty, the photo URL.
func (t *IdentityToolkit) UpdateProfile(ctx context.Context, creds Credentials, displayName, photoURL string) (*models.User, error) {
	body := map[string]any{
		"idToken":           creds.IDToken,
		"displayName":       displayName,
		"returnSecureToken": false,
	}
	if photoURL != "" {
		body["photoUrl"] = photoURL
	}
	reply, err := t.call(ctx, "update", body)
	if err != nil {
		return nil, err
	}
	return &parseAccount(reply).account("").User, nil
}
