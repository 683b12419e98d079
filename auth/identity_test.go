package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"babyshop/config"
	"babyshop/gateway"
)

type toolkitCall struct {
	Method string
	Key    string
	Body   map[string]any
}

// fakeToolkit answers accounts:* calls from a table of canned replies keyed by
// method name.
func fakeToolkit(t *testing.T, replies map[string]string, status map[string]int) (*httptest.Server, *[]toolkitCall) {
	t.Helper()
	var calls []toolkitCall
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := strings.TrimPrefix(r.URL.Path, "/v1/accounts:")
		var body map[string]any
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		calls = append(calls, toolkitCall{Method: method, Key: r.URL.Query().Get("key"), Body: body})
		if code, ok := status[method]; ok {
			w.WriteHeader(code)
		}
		_, _ = io.WriteString(w, replies[method])
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestSignInAndLookup(t *testing.T) {
	srv, calls := fakeToolkit(t, map[string]string{
		"signInWithPassword": `{"localId":"u1","email":"ada@example.com","displayName":"Ada","idToken":"id-1","refreshToken":"r-1"}`,
		"lookup":             `{"users":[{"localId":"u1","email":"ada@example.com","displayName":"Ada","photoUrl":"https://img/p.png","emailVerified":true,"providerUserInfo":[{"providerId":"google.com"}]}]}`,
	}, nil)
	idp := NewIdentityToolkit(gateway.NewClient(srv.URL, nil), "api-key")
	ctx := context.Background()

	acc, err := idp.SignIn(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "u1", acc.User.UID)
	assert.Equal(t, "password", acc.User.Provider)
	assert.Equal(t, Credentials{IDToken: "id-1", RefreshToken: "r-1"}, acc.Credentials)

	user, err := idp.Lookup(ctx, acc.Credentials)
	require.NoError(t, err)
	assert.Equal(t, "https://img/p.png", user.PhotoURL)
	assert.True(t, user.EmailVerified)
	assert.Equal(t, "google.com", user.Provider)

	require.Len(t, *calls, 2)
	assert.Equal(t, "api-key", (*calls)[0].Key)
	assert.Equal(t, true, (*calls)[0].Body["returnSecureToken"])
	assert.Equal(t, "id-1", (*calls)[1].Body["idToken"])
}

func TestSignUpSetsDisplayName(t *testing.T) {
	srv, calls := fakeToolkit(t, map[string]string{
		"signUp": `{"localId":"u2","email":"bo@example.com","idToken":"id-2","refreshToken":"r-2"}`,
		"update": `{"localId":"u2","email":"bo@example.com","displayName":"Bo"}`,
	}, nil)
	idp := NewIdentityToolkit(gateway.NewClient(srv.URL, nil), "k")

	acc, err := idp.SignUp(context.Background(), "Bo", "bo@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "Bo", acc.User.DisplayName)
	require.Len(t, *calls, 2)
	assert.Equal(t, "update", (*calls)[1].Method)
	assert.Equal(t, "id-2", (*calls)[1].Body["idToken"])
	assert.NotContains(t, (*calls)[1].Body, "photoUrl")
}

func TestProviderErrorsAreFriendly(t *testing.T) {
	cases := map[string]string{
		"EMAIL_EXISTS":                        "This email is already registered",
		"WEAK_PASSWORD : Password should be 6": "Password must be at least 6 characters",
		"INVALID_EMAIL":                       "Invalid email address",
		"EMAIL_NOT_FOUND":                     "No account found with this email",
		"INVALID_LOGIN_CREDENTIALS":           "Incorrect email or password",
		"OPERATION_NOT_ALLOWED":               "Email/Password login is not enabled",
		"TOO_MANY_ATTEMPTS_TRY_LATER":         "TOO_MANY_ATTEMPTS_TRY_LATER",
	}
	for code, want := range cases {
		t.Run(code, func(t *testing.T) {
			body, _ := json.Marshal(map[string]any{"error": map[string]any{"code": 400, "message": code}})
			srv, _ := fakeToolkit(t, map[string]string{"signInWithPassword": string(body)}, map[string]int{"signInWithPassword": 400})
			_, err := NewIdentityToolkit(gateway.NewClient(srv.URL, nil), "k").SignIn(context.Background(), "a@b.co", "x")
			require.Error(t, err)
			assert.Equal(t, want, Message(err))
		})
	}
}

func TestMessageFallsBack(t *testing.T) {
	assert.Equal(t, "Something went wrong", Message(assert.AnError))
	assert.Equal(t, "boom", Message(&gateway.RequestError{Status: 500, Message: "boom"}))

	_, err := NewIdentityToolkit(gateway.NewClient("http://unused", nil), "").SignIn(context.Background(), "a@b.co", "x")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestGoogleExchange(t *testing.T) {
	idpSrv, calls := fakeToolkit(t, map[string]string{
		"signInWithIdp": `{"localId":"g1","email":"g@example.com","displayName":"Gee","idToken":"id-g","providerId":"google.com"}`,
	}, nil)
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"at","token_type":"Bearer","id_token":"google-id-token"}`)
	}))
	defer tokenSrv.Close()

	g := NewGoogle(config.OAuthConfig{ClientID: "cid", ClientSecret: "cs", RedirectURI: "http://localhost/auth/google/callback"},
		NewIdentityToolkit(gateway.NewClient(idpSrv.URL, nil), "k"))
	g.oauth.Endpoint = oauth2.Endpoint{AuthURL: tokenSrv.URL + "/auth", TokenURL: tokenSrv.URL + "/token"}

	assert.True(t, g.Enabled())
	assert.Contains(t, g.AuthCodeURL("st4te"), "state=st4te")

	acc, err := g.Exchange(context.Background(), "code")
	require.NoError(t, err)
	assert.Equal(t, "g1", acc.User.UID)
	assert.Equal(t, "google.com", acc.User.Provider)
	require.Len(t, *calls, 1)
	assert.Contains(t, (*calls)[0].Body["postBody"], "id_token=google-id-token")
	assert.Equal(t, "http://localhost/auth/google/callback", (*calls)[0].Body["requestUri"])
}
