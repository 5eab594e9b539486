package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	accountshttp "github.com/aussiebroadwan/accounts/internal/accounts/http"
	"github.com/aussiebroadwan/accounts/internal/accounts/service"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
	"github.com/aussiebroadwan/accounts/internal/accounts/store/drivers/sqlite"
	"github.com/aussiebroadwan/accounts/pkg/accountsdk"
	"github.com/aussiebroadwan/accounts/pkg/cryptox"
	"github.com/aussiebroadwan/accounts/pkg/httpx"
	"github.com/aussiebroadwan/accounts/pkg/jwtx"
	"github.com/aussiebroadwan/accounts/pkg/mailx"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	// Most tests send more requests than the production limits allow.
	relaxed := httpx.Limit{Requests: 10000, Window: time.Minute, Burst: 10000}
	httpx.StrictLimit = relaxed
	httpx.ModerateLimit = relaxed
	httpx.LenientLimit = relaxed
	os.Exit(m.Run())
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []mailx.Message
}

func (m *recordingMailer) Send(_ context.Context, msg mailx.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

var linkPattern = regexp.MustCompile(`https?://\S+`)

// lastLink returns the reset link in the most recent mail.
func (m *recordingMailer) lastLink(t *testing.T) *url.URL {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent)

	link := linkPattern.FindString(m.sent[len(m.sent)-1].Body)
	require.NotEmpty(t, link)
	u, err := url.Parse(link)
	require.NoError(t, err)
	return u
}

type testEnv struct {
	server *httptest.Server
	client *accountsdk.SDKClient
	store  store.Store
	codec  *jwtx.Codec
	mailer *recordingMailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(context.Background(), filepath.Join(t.TempDir(), "accounts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	hasher := cryptox.NewPasswordHasher(cryptox.Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1}, "test-pepper")
	codec, err := jwtx.NewCodec(jwtx.CodecConfig{
		Secret: []byte("0123456789abcdef0123456789abcdef"),
		Issuer: "accounts-test",
	})
	require.NoError(t, err)

	mailer := &recordingMailer{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := accountshttp.NewRouter(codec, httpx.TokenTransport{MaxAge: codec.TTL()}, "test", st, logger, false)
	router.AccountService = &service.AccountService{Store: st, Hasher: hasher, Tokens: codec}
	router.ProfileService = &service.ProfileService{Store: st}
	router.PasswordResetService = &service.PasswordResetService{
		Store:  st,
		Hasher: hasher,
		Tokens: codec,
		Mailer: mailer,
	}

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	router.PasswordResetService.BaseURL = srv.URL
	router.ApplyRoutes()

	return &testEnv{
		server: srv,
		client: accountsdk.NewSDKClient(srv.URL),
		store:  st,
		codec:  codec,
		mailer: mailer,
	}
}

// raw sends a JSON request without the SDK. It returns the response with
// its body already read.
func (e *testEnv) raw(t *testing.T, method, path string, body any, mutate func(*http.Request)) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		buf, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if mutate != nil {
		mutate(req)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (e *testEnv) signup(t *testing.T, email string) (*accountsdk.Session, *accountsdk.User) {
	t.Helper()
	session, user, err := e.client.Signup(context.Background(), accountsdk.SignupRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     email,
		Password:  "Str0ng!Pass",
	})
	require.NoError(t, err)
	return session, user
}

func requireAPIError(t *testing.T, err error, status int, message string) {
	t.Helper()
	var apiErr *accountsdk.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, status, apiErr.StatusCode)
	if message != "" {
		require.Equal(t, message, apiErr.Message)
	}
}

func errorMessage(t *testing.T, body []byte) string {
	t.Helper()
	var env httpx.ErrorEnvelope
	require.NoError(t, json.Unmarshal(body, &env))
	require.Equal(t, httpx.StatusError, env.Status)
	return env.Error.Message
}

func ptr[T any](v T) *T { return &v }

func TestExampleScenario(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	session, user, err := e.client.Signup(ctx, accountsdk.SignupRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@x.com",
		Password:  "Str0ng!Pass",
	})
	require.NoError(t, err)
	require.NotEmpty(t, session.Token())
	require.Equal(t, "ada@x.com", user.Email)
	require.NotZero(t, user.ID)

	session, err = e.client.Login(ctx, accountsdk.LoginRequest{UsernameOrEmail: "ada@x.com", Password: "Str0ng!Pass"})
	require.NoError(t, err)
	require.NotEmpty(t, session.Token())

	_, err = e.client.Login(ctx, accountsdk.LoginRequest{UsernameOrEmail: "ada@x.com", Password: "Wr0ng!Pass"})
	requireAPIError(t, err, http.StatusUnauthorized, accountshttp.MsgIncorrectPassword)
}

func TestSignup(t *testing.T) {
	e := newTestEnv(t)
	e.signup(t, "taken@x.com")

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "malformed json",
			body:       `{"firstName":`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    accountshttp.MsgInvalidJSON,
		},
		{
			name:       "short first name",
			body:       accountsdk.SignupRequest{FirstName: "Al", LastName: "Lovelace", Email: "al@x.com", Password: "Str0ng!Pass"},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Please enter a valid firstname \n the field must not be empty and it must be more than 2 letters",
		},
		{
			name:       "invalid email",
			body:       accountsdk.SignupRequest{FirstName: "Ada", LastName: "Lovelace", Email: "not-an-email", Password: "Str0ng!Pass"},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Please enter a valid email address",
		},
		{
			name:       "weak password",
			body:       accountsdk.SignupRequest{FirstName: "Ada", LastName: "Lovelace", Email: "weak@x.com", Password: "password"},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Password is required. \n It should be more than 8 characters, and should include at least a capital letter, and a number",
		},
		{
			name:       "duplicate email",
			body:       accountsdk.SignupRequest{FirstName: "Ada", LastName: "Lovelace", Email: "taken@x.com", Password: "Str0ng!Pass"},
			wantStatus: http.StatusConflict,
			wantMsg:    `User with email "taken@x.com" already exists`,
		},
		{
			name:       "duplicate email in another case",
			body:       accountsdk.SignupRequest{FirstName: "Ada", LastName: "Lovelace", Email: "TAKEN@x.com", Password: "Str0ng!Pass"},
			wantStatus: http.StatusConflict,
			wantMsg:    `User with email "TAKEN@x.com" already exists`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := e.raw(t, http.MethodPost, "/signup", tt.body, nil)
			require.Equal(t, tt.wantStatus, resp.StatusCode)
			require.Equal(t, tt.wantMsg, errorMessage(t, body))
		})
	}

	n, err := e.store.Users().Count(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestSignup_ConcurrentDuplicates(t *testing.T) {
	e := newTestEnv(t)

	const attempts = 8
	statuses := make(chan int, attempts)

	var wg sync.WaitGroup
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := e.client.Signup(context.Background(), accountsdk.SignupRequest{
				FirstName: "Ada",
				LastName:  "Lovelace",
				Email:     "race@x.com",
				Password:  "Str0ng!Pass",
			})
			if err == nil {
				statuses <- http.StatusCreated
				return
			}
			if apiErr, ok := err.(*accountsdk.Error); ok {
				statuses <- apiErr.StatusCode
				return
			}
			statuses <- 0
		}()
	}
	wg.Wait()
	close(statuses)

	created := 0
	for status := range statuses {
		switch status {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
		default:
			t.Fatalf("unexpected status %d", status)
		}
	}
	require.Equal(t, 1, created)

	n, err := e.store.Users().Count(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestTokenCookie(t *testing.T) {
	e := newTestEnv(t)

	resp, body := e.raw(t, http.MethodPost, "/signup", accountsdk.SignupRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "cookie@x.com",
		Password:  "Str0ng!Pass",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var env struct {
		Status string                    `json:"status"`
		Data   accountsdk.SignupResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &env))
	require.Equal(t, httpx.StatusSuccess, env.Status)

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == httpx.TokenCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	require.Equal(t, env.Data.Token, cookie.Value)
	require.True(t, cookie.HttpOnly)
	require.Equal(t, int(e.codec.TTL()/time.Second), cookie.MaxAge)

	t.Run("cookie authenticates", func(t *testing.T) {
		resp, _ := e.raw(t, http.MethodGet, "/profile", nil, func(r *http.Request) { r.AddCookie(cookie) })
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("logout clears cookie", func(t *testing.T) {
		resp, body := e.raw(t, http.MethodPost, "/logout", nil, func(r *http.Request) { r.AddCookie(cookie) })
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var out struct {
			Data accountsdk.LoginResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(body, &out))
		require.Equal(t, accountshttp.MsgLogoutSuccessful, out.Data.Message)
		require.Empty(t, out.Data.Token)

		var cleared *http.Cookie
		for _, c := range resp.Cookies() {
			if c.Name == httpx.TokenCookieName {
				cleared = c
			}
		}
		require.NotNil(t, cleared)
		require.Empty(t, cleared.Value)
		require.Negative(t, cleared.MaxAge)
	})
}

func TestAuthenticate(t *testing.T) {
	e := newTestEnv(t)
	session, _ := e.signup(t, "auth@x.com")

	tests := []struct {
		name       string
		mutate     func(*http.Request)
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "no token",
			wantStatus: http.StatusUnauthorized,
			wantMsg:    httpx.MsgTokenRequired,
		},
		{
			name:       "garbage bearer",
			mutate:     func(r *http.Request) { r.Header.Set("Authorization", "Bearer nonsense") },
			wantStatus: http.StatusBadRequest,
			wantMsg:    httpx.MsgTokenInvalid,
		},
		{
			name:       "lowercase bearer scheme",
			mutate:     func(r *http.Request) { r.Header.Set("Authorization", "bearer "+session.Token()) },
			wantStatus: http.StatusOK,
		},
		{
			name:       "x-access-token header",
			mutate:     func(r *http.Request) { r.Header.Set(httpx.AccessTokenHeader, session.Token()) },
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := e.raw(t, http.MethodGet, "/profile", nil, tt.mutate)
			require.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantMsg != "" {
				require.Equal(t, tt.wantMsg, errorMessage(t, body))
			}
		})
	}

	t.Run("reset token is not a session token", func(t *testing.T) {
		reset, err := e.codec.IssueReset(jwtx.Identity{UserID: 1, Email: "auth@x.com"}, "fp")
		require.NoError(t, err)

		_, err = e.client.NewSession(reset).GetProfile(context.Background())
		requireAPIError(t, err, http.StatusBadRequest, httpx.MsgTokenInvalid)
	})
}

func TestLogin(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	session, _ := e.signup(t, "login@x.com")
	_, err := session.UpdateProfile(ctx, accountsdk.ProfileUpdateRequest{UserName: ptr("ada_l")})
	require.NoError(t, err)

	tests := []struct {
		name       string
		req        accountsdk.LoginRequest
		wantStatus int
		wantMsg    string
	}{
		{name: "by email", req: accountsdk.LoginRequest{UsernameOrEmail: "login@x.com", Password: "Str0ng!Pass"}, wantStatus: http.StatusOK},
		{name: "by email in another case", req: accountsdk.LoginRequest{UsernameOrEmail: "LOGIN@x.com", Password: "Str0ng!Pass"}, wantStatus: http.StatusOK},
		{name: "by user name", req: accountsdk.LoginRequest{UsernameOrEmail: "ada_l", Password: "Str0ng!Pass"}, wantStatus: http.StatusOK},
		{
			name:       "unknown user",
			req:        accountsdk.LoginRequest{UsernameOrEmail: "nobody@x.com", Password: "Str0ng!Pass"},
			wantStatus: http.StatusNotFound,
			wantMsg:    accountshttp.MsgLoginNotFound,
		},
		{
			name:       "wrong password",
			req:        accountsdk.LoginRequest{UsernameOrEmail: "ada_l", Password: "Wr0ng!Pass"},
			wantStatus: http.StatusUnauthorized,
			wantMsg:    accountshttp.MsgIncorrectPassword,
		},
		{
			name:       "password failing complexity",
			req:        accountsdk.LoginRequest{UsernameOrEmail: "login@x.com", Password: "short"},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "incorrect password or email",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := e.client.Login(ctx, tt.req)
			if tt.wantStatus == http.StatusOK {
				require.NoError(t, err)
				claims, err := e.codec.Verify(s.Token())
				require.NoError(t, err)
				require.Equal(t, "login@x.com", claims.Email)
				return
			}
			requireAPIError(t, err, tt.wantStatus, tt.wantMsg)
		})
	}
}

func TestChangePassword(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	session, _ := e.signup(t, "change@x.com")

	tests := []struct {
		name       string
		req        accountsdk.PasswordChangeRequest
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "confirmation mismatch",
			req:        accountsdk.PasswordChangeRequest{OldPassword: "Str0ng!Pass", NewPassword: "N3w!Passw0rd", ConfirmPassword: "Other!Pass1"},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Please make sure the passwords match",
		},
		{
			name:       "weak new password",
			req:        accountsdk.PasswordChangeRequest{OldPassword: "Str0ng!Pass", NewPassword: "weak", ConfirmPassword: "weak"},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Please make sure the passwords match",
		},
		{
			name:       "wrong old password",
			req:        accountsdk.PasswordChangeRequest{OldPassword: "Wr0ng!Pass", NewPassword: "N3w!Passw0rd", ConfirmPassword: "N3w!Passw0rd"},
			wantStatus: http.StatusUnauthorized,
			wantMsg:    accountshttp.MsgOldPasswordWrong,
		},
		{
			name:       "success",
			req:        accountsdk.PasswordChangeRequest{OldPassword: "Str0ng!Pass", NewPassword: "N3w!Passw0rd", ConfirmPassword: "N3w!Passw0rd"},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := session.ChangePassword(ctx, tt.req)
			if tt.wantStatus == http.StatusOK {
				require.NoError(t, err)
				require.Equal(t, accountshttp.MsgPasswordChanged, out.Message)
				return
			}
			requireAPIError(t, err, tt.wantStatus, tt.wantMsg)
		})
	}

	_, err := e.client.Login(ctx, accountsdk.LoginRequest{UsernameOrEmail: "change@x.com", Password: "Str0ng!Pass"})
	requireAPIError(t, err, http.StatusUnauthorized, "")

	_, err = e.client.Login(ctx, accountsdk.LoginRequest{UsernameOrEmail: "change@x.com", Password: "N3w!Passw0rd"})
	require.NoError(t, err)

	t.Run("user in token missing", func(t *testing.T) {
		ghost, err := e.codec.Issue(jwtx.Identity{UserID: 9999, Email: "ghost@x.com"})
		require.NoError(t, err)

		_, err = e.client.NewSession(ghost).ChangePassword(ctx, accountsdk.PasswordChangeRequest{
			OldPassword: "Str0ng!Pass", NewPassword: "N3w!Passw0rd", ConfirmPassword: "N3w!Passw0rd",
		})
		requireAPIError(t, err, http.StatusNotFound, accountshttp.MsgUserInTokenMissing)
	})
}

func TestPasswordResetLink(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	session, _ := e.signup(t, "reset@x.com")

	t.Run("unknown email answers the same", func(t *testing.T) {
		out, err := session.RequestPasswordReset(ctx, accountsdk.PasswordResetRequest{Email: "nobody@x.com"})
		require.NoError(t, err)
		require.Equal(t, accountshttp.MsgResetLinkSent, out.Message)
		require.Zero(t, e.mailer.count())
	})

	t.Run("invalid email", func(t *testing.T) {
		_, err := session.RequestPasswordReset(ctx, accountsdk.PasswordResetRequest{Email: "nope"})
		requireAPIError(t, err, http.StatusBadRequest, "Please make sure the passwords match")
	})

	out, err := session.RequestPasswordReset(ctx, accountsdk.PasswordResetRequest{Email: "reset@x.com"})
	require.NoError(t, err)
	require.Equal(t, accountshttp.MsgResetLinkSent, out.Message)
	require.Equal(t, 1, e.mailer.count())

	link := e.mailer.lastLink(t)
	require.Equal(t, service.ResetConfirmPath, link.Path)

	t.Run("mismatched confirmation", func(t *testing.T) {
		_, err := e.client.ConfirmPasswordReset(ctx, accountsdk.PasswordResetConfirmRequest{
			Token:           link.Query().Get("token"),
			NewPassword:     "R3set!Passw0rd",
			ConfirmPassword: "Different!1",
		})
		requireAPIError(t, err, http.StatusBadRequest, "Please make sure the passwords match")
	})

	t.Run("token from the query string", func(t *testing.T) {
		resp, body := e.raw(t, http.MethodPost, link.RequestURI(), accountsdk.PasswordResetConfirmRequest{
			NewPassword:     "R3set!Passw0rd",
			ConfirmPassword: "R3set!Passw0rd",
		}, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	})

	t.Run("link works once", func(t *testing.T) {
		_, err := e.client.ConfirmPasswordReset(ctx, accountsdk.PasswordResetConfirmRequest{
			Token:           link.Query().Get("token"),
			NewPassword:     "Again!Passw0rd",
			ConfirmPassword: "Again!Passw0rd",
		})
		requireAPIError(t, err, http.StatusBadRequest, httpx.MsgTokenInvalid)
	})

	t.Run("session token is not a reset token", func(t *testing.T) {
		_, err := e.client.ConfirmPasswordReset(ctx, accountsdk.PasswordResetConfirmRequest{
			Token:           session.Token(),
			NewPassword:     "Again!Passw0rd",
			ConfirmPassword: "Again!Passw0rd",
		})
		requireAPIError(t, err, http.StatusBadRequest, httpx.MsgTokenInvalid)
	})

	_, err = e.client.Login(ctx, accountsdk.LoginRequest{UsernameOrEmail: "reset@x.com", Password: "Str0ng!Pass"})
	requireAPIError(t, err, http.StatusUnauthorized, "")

	_, err = e.client.Login(ctx, accountsdk.LoginRequest{UsernameOrEmail: "reset@x.com", Password: "R3set!Passw0rd"})
	require.NoError(t, err)
}

func TestProfile(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	ada, _ := e.signup(t, "ada@x.com")
	grace, _ := e.signup(t, "grace@x.com")

	user, err := ada.GetProfile(ctx)
	require.NoError(t, err)
	require.Equal(t, "ada@x.com", user.Email)
	require.Empty(t, user.UserName)

	user, err = ada.UpdateProfile(ctx, accountsdk.ProfileUpdateRequest{
		UserName:    ptr("ada_l"),
		Gender:      ptr("female"),
		BirthDate:   ptr("1815-12-10"),
		PhoneNumber: ptr("+44 (20) 7946-0000"),
	})
	require.NoError(t, err)
	require.Equal(t, "ada_l", user.UserName)
	require.Equal(t, "female", user.Gender)
	require.Equal(t, "1815-12-10", user.BirthDate)
	require.Equal(t, "Ada", user.FirstName)

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "empty update",
			body:       map[string]any{},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Please provide at least one profile field to update",
		},
		{
			name:       "unknown field",
			body:       map[string]any{"email": "new@x.com"},
			wantStatus: http.StatusBadRequest,
			wantMsg:    accountshttp.MsgInvalidJSON,
		},
		{
			name:       "bad gender",
			body:       map[string]any{"gender": "other"},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "please input a gender (male or female)",
		},
		{
			name:       "bad birth date",
			body:       map[string]any{"birthDate": "10/12/1815"},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Please input a valid date format: yy-mm-dd",
		},
		{
			name:       "user name taken in another case",
			body:       map[string]any{"userName": "ADA_L"},
			wantStatus: http.StatusConflict,
			wantMsg:    `Username "ADA_L" is already taken`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := e.raw(t, http.MethodPut, "/profile", tt.body, func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+grace.Token())
			})
			require.Equal(t, tt.wantStatus, resp.StatusCode)
			require.Equal(t, tt.wantMsg, errorMessage(t, body))
		})
	}

	t.Run("user in token missing", func(t *testing.T) {
		ghost, err := e.codec.Issue(jwtx.Identity{UserID: 9999, Email: "ghost@x.com"})
		require.NoError(t, err)

		_, err = e.client.NewSession(ghost).GetProfile(ctx)
		requireAPIError(t, err, http.StatusNotFound, accountshttp.MsgUserNotFound)
	})
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	live, err := e.client.GetLiveness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)
	require.Equal(t, "test", live.Version)
	require.Nil(t, live.Checks)

	ready, err := e.client.GetReadiness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Status)
	require.NotNil(t, ready.Checks)
	require.Equal(t, "ok", ready.Checks.Database)

	require.NoError(t, e.store.Close())
	_, err = e.client.GetReadiness(ctx)
	requireAPIError(t, err, http.StatusServiceUnavailable, "")
}

func TestGlobalMiddleware(t *testing.T) {
	e := newTestEnv(t)

	resp, _ := e.raw(t, http.MethodGet, "/livez", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	require.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, _ = e.raw(t, http.MethodGet, "/livez", nil, func(r *http.Request) {
		r.Header.Set("X-Request-ID", "req-123")
	})
	require.Equal(t, "req-123", resp.Header.Get("X-Request-ID"))

	resp, _ = e.raw(t, http.MethodGet, "/swagger/doc.json", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSignupRateLimit(t *testing.T) {
	saved := httpx.StrictLimit
	httpx.StrictLimit = httpx.Limit{Requests: 2, Window: time.Minute, Burst: 2}
	t.Cleanup(func() { httpx.StrictLimit = saved })

	e := newTestEnv(t)

	for range 2 {
		resp, _ := e.raw(t, http.MethodPost, "/signup", `{}`, nil)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	}

	resp, body := e.raw(t, http.MethodPost, "/signup", `{}`, nil)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("Retry-After"))
	require.Equal(t, httpx.MsgTooManyRequests, errorMessage(t, body))
}
