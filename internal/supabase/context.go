package supabase

import "context"

// Credentials are the caller's session tokens.
type Credentials struct {
	AccessToken  string
	RefreshToken string
}

type credentialsKey struct{}

// WithCredentials attaches the caller's tokens to ctx. Table requests made
// with that ctx run as the caller instead of the anonymous role.
func WithCredentials(ctx context.Context, creds Credentials) context.Context {
	return context.WithValue(ctx, credentialsKey{}, creds)
}

func CredentialsFromContext(ctx context.Context) (Credentials, bool) {
	creds, ok := ctx.Value(credentialsKey{}).(Credentials)
	return creds, ok && creds.AccessToken != ""
}
