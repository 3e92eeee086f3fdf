package account

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"study-planner-lite/internal/auth"
	"study-planner-lite/internal/backend"
	"study-planner-lite/internal/config"
	"study-planner-lite/internal/model"
	"study-planner-lite/internal/supabase"
	"study-planner-lite/internal/supabase/supabasetest"
)

func newService(t *testing.T, fake *supabasetest.Server) *Service {
	t.Helper()
	return newServiceWithSecret(t, fake, supabasetest.JWTSecret)
}

// newServiceWithSecret builds a Service whose backend verifies tokens with
// secret. An empty secret leaves verification to the auth service.
func newServiceWithSecret(t *testing.T, fake *supabasetest.Server, secret string) *Service {
	t.Helper()
	env := config.MapEnv{}
	if fake != nil {
		env[config.KeySupabaseURL] = fake.URL
		env[config.KeySupabaseAnonKey] = supabasetest.AnonKey
		if secret != "" {
			env[config.KeySupabaseJWTSecret] = secret
		}
	}
	loader := config.NewLoader(env, nil, zerolog.Nop())
	loader.Load(context.Background())
	return NewService(Options{
		Backend:      backend.NewAccessor(loader, nil, zerolog.Nop()),
		SiteURL:      "https://planner.example/",
		ProfileDelay: time.Millisecond,
		Logger:       zerolog.Nop(),
	})
}

func signUpForm() model.SignUpForm {
	return model.SignUpForm{
		Email:      "ada@example.com",
		Password:   "secret123",
		FirstName:  "Ada",
		LastName:   "Lovelace",
		University: "UCL",
		Major:      "Mathematics",
		YearLevel:  "3",
		Semester:   "2",
	}
}

func withSession(session *supabase.Session) context.Context {
	return supabase.WithCredentials(context.Background(), session.Credentials())
}

func TestSignUp_CreatesIdentityAndProfile(t *testing.T) {
	fake := supabasetest.New(t)
	svc := newService(t, fake)

	res := svc.SignUp(context.Background(), signUpForm())
	require.True(t, res.Success, res.Error)
	assert.Equal(t, OutcomeSucceeded, res.Outcome())
	require.NotNil(t, res.ProfileCreated)
	assert.True(t, *res.ProfileCreated)
	assert.Empty(t, res.Warning)
	assert.Equal(t, "https://planner.example/login.html", fake.Redirect("signup"))

	rows := fake.Rows("user_profiles")
	require.Len(t, rows, 1)
	assert.Equal(t, res.User.ID, rows[0]["user_id"])
	assert.Equal(t, "UCL", rows[0]["university"])
	assert.EqualValues(t, 2, rows[0]["semester"])

	profile := svc.GetUserProfile(withSession(res.Session))
	require.NotNil(t, profile)
	assert.Equal(t, "Ada", profile.FirstName)
}

func TestSignUp_ProfileFailureIsPartialSuccess(t *testing.T) {
	fake := supabasetest.New(t)
	fake.FailTable("user_profiles", http.StatusInternalServerError)
	svc := newService(t, fake)

	res := svc.SignUp(context.Background(), signUpForm())
	require.True(t, res.Success)
	assert.Equal(t, OutcomePartial, res.Outcome())
	require.NotNil(t, res.ProfileCreated)
	assert.False(t, *res.ProfileCreated)
	assert.NotEmpty(t, res.Warning)

	signIn := svc.SignIn(context.Background(), "ada@example.com", "secret123")
	require.True(t, signIn.Success, signIn.Error)
	require.NotNil(t, signIn.Session)
	assert.Equal(t, res.User.ID, signIn.User.ID)
}

func TestSignUp_IdentityFailure(t *testing.T) {
	fake := supabasetest.New(t)
	svc := newService(t, fake)

	require.True(t, svc.SignUp(context.Background(), signUpForm()).Success)
	res := svc.SignUp(context.Background(), signUpForm())
	assert.False(t, res.Success)
	assert.Equal(t, OutcomeFailed, res.Outcome())
	assert.Equal(t, "User already registered", res.Error)
	assert.Len(t, fake.Rows("user_profiles"), 1)
}

func TestSignUp_CancelledDuringDelay(t *testing.T) {
	fake := supabasetest.New(t)
	svc := newService(t, fake)
	svc.profileDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	res := svc.SignUp(ctx, signUpForm())
	assert.Equal(t, OutcomePartial, res.Outcome())
	assert.Empty(t, fake.Rows("user_profiles"))
}

func TestActions_Unavailable(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()

	for _, res := range []AuthResult{
		svc.SignUp(ctx, signUpForm()),
		svc.SignIn(ctx, "a@b.c", "x"),
		svc.SignOut(ctx),
		svc.ResetPassword(ctx, "a@b.c"),
	} {
		assert.False(t, res.Success)
		assert.Equal(t, "database connection not available", res.Error)
	}
	assert.Nil(t, svc.GetSession(ctx))
	assert.Nil(t, svc.GetCurrentUser(ctx))
}

func TestSignIn_WrongPassword(t *testing.T) {
	fake := supabasetest.New(t)
	fake.CreateUser("ada@example.com", "secret123")
	svc := newService(t, fake)

	res := svc.SignIn(context.Background(), "ada@example.com", "nope")
	assert.False(t, res.Success)
	assert.Equal(t, "Invalid login credentials", res.Error)
}

func TestGetSession(t *testing.T) {
	fake := supabasetest.New(t)
	id := fake.CreateUser("ada@example.com", "secret123")
	svc := newService(t, fake)

	assert.Nil(t, svc.GetSession(context.Background()))

	live := fake.Session(t, "ada@example.com")
	session := svc.GetSession(withSession(live))
	require.NotNil(t, session)
	assert.Equal(t, id, session.User.ID)
	assert.Equal(t, live.AccessToken, session.AccessToken)

	expired := fake.ExpiredSession(t, "ada@example.com")
	refreshed := svc.GetSession(withSession(expired))
	require.NotNil(t, refreshed)
	assert.NotEqual(t, expired.AccessToken, refreshed.AccessToken)

	noRefresh := supabase.WithCredentials(context.Background(), supabase.Credentials{AccessToken: expired.AccessToken})
	assert.Nil(t, svc.GetSession(noRefresh))

	_, ok := svc.RequireAuth(supabase.WithCredentials(context.Background(), supabase.Credentials{AccessToken: "garbage"}))
	assert.False(t, ok)
}

func forgedToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.CreateToken(userID, "mallory@example.com", auth.TokenConfig{Secret: "attacker", Expiry: time.Hour})
	require.NoError(t, err)
	return token
}

func TestGetSession_WithoutSecretAsksAuthService(t *testing.T) {
	fake := supabasetest.New(t)
	victim := fake.CreateUser("ada@example.com", "secret123")
	svc := newServiceWithSecret(t, fake, "")

	live := fake.Session(t, "ada@example.com")
	session, ok := svc.RequireAuth(withSession(live))
	require.True(t, ok)
	assert.Equal(t, victim, session.User.ID)
	assert.Equal(t, "ada@example.com", session.User.Email)

	forged := supabase.WithCredentials(context.Background(), supabase.Credentials{AccessToken: forgedToken(t, victim)})
	_, ok = svc.RequireAuth(forged)
	assert.False(t, ok)

	require.True(t, svc.SignOut(withSession(live)).Success)
	_, ok = svc.RequireAuth(withSession(live))
	assert.False(t, ok, "a revoked token must not pass")
}

func TestGetSession_WithSecretRejectsForgedSignature(t *testing.T) {
	fake := supabasetest.New(t)
	victim := fake.CreateUser("ada@example.com", "secret123")
	svc := newService(t, fake)

	forged := supabase.WithCredentials(context.Background(), supabase.Credentials{AccessToken: forgedToken(t, victim)})
	_, ok := svc.RequireAuth(forged)
	assert.False(t, ok)
}

func TestSignOut_RevokesSession(t *testing.T) {
	fake := supabasetest.New(t)
	fake.CreateUser("ada@example.com", "secret123")
	svc := newService(t, fake)

	live := fake.Session(t, "ada@example.com")
	ctx := withSession(live)
	require.NotNil(t, svc.GetCurrentUser(ctx))

	res := svc.SignOut(ctx)
	require.True(t, res.Success, res.Error)
	assert.Nil(t, svc.GetCurrentUser(ctx))

	assert.True(t, svc.SignOut(context.Background()).Success)
}

func TestResetPassword_Redirect(t *testing.T) {
	fake := supabasetest.New(t)
	svc := newService(t, fake)

	res := svc.ResetPassword(context.Background(), "ada@example.com")
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "https://planner.example/reset-password.html", fake.Redirect("recover"))
	assert.Equal(t, []string{"ada@example.com"}, fake.RecoveredEmails())
}

func TestUserID(t *testing.T) {
	fake := supabasetest.New(t)
	id := fake.CreateUser("ada@example.com", "secret123")
	svc := newService(t, fake)

	got, ok := svc.UserID(withSession(fake.Session(t, "ada@example.com")))
	require.True(t, ok)
	assert.Equal(t, id, got)

	_, ok = svc.UserID(context.Background())
	assert.False(t, ok)
}
