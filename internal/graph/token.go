package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// tokenURLFormat is the Microsoft identity platform v2.0 token endpoint,
// parameterized by tenant ID.
const tokenURLFormat = "https://login.microsoftonline.com/%s/oauth2/v2.0/token"

// defaultScope requests all application permissions granted to the client
// on the Graph API.
const defaultScope = "https://graph.microsoft.com/.default"

// ClientCredentials holds the app-only credentials for the
// client-credentials OAuth2 grant. Supplied once at process start.
type ClientCredentials struct {
	TenantID     string
	ClientID     string
	ClientSecret string
}

// TokenProvider implements TokenSource using the client-credentials grant.
// The underlying oauth2 token source caches the token until expiry, so
// only the first request per expiry window hits the identity provider.
type TokenProvider struct {
	ts     oauth2.TokenSource
	logger *slog.Logger
}

// NewTokenProvider creates a TokenProvider for the given credentials.
// ctx must outlive the provider; it is bound to the underlying token
// source and used for every token refresh request.
func NewTokenProvider(ctx context.Context, creds ClientCredentials, httpClient *http.Client, logger *slog.Logger) *TokenProvider {
	cfg := &clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     fmt.Sprintf(tokenURLFormat, creds.TenantID),
		Scopes:       []string{defaultScope},
	}

	return newTokenProvider(ctx, cfg, httpClient, logger)
}

// newTokenProvider accepts a pre-built clientcredentials.Config so tests
// can inject a fake token endpoint.
func newTokenProvider(ctx context.Context, cfg *clientcredentials.Config, httpClient *http.Client, logger *slog.Logger) *TokenProvider {
	if logger == nil {
		logger = slog.Default()
	}

	if httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	}

	return &TokenProvider{
		ts:     cfg.TokenSource(ctx),
		logger: logger,
	}
}

// Token returns a bearer token, fetching a fresh one from the identity
// provider when the cached token is absent or expired. A non-success
// response from the token endpoint is returned as *AuthError carrying
// the status code and response body.
func (p *TokenProvider) Token() (string, error) {
	tok, err := p.ts.Token()
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			statusCode := 0
			if re.Response != nil {
				statusCode = re.Response.StatusCode
			}

			p.logger.Error("token acquisition failed",
				slog.Int("status", statusCode),
			)

			return "", &AuthError{
				StatusCode: statusCode,
				Body:       string(re.Body),
			}
		}

		return "", fmt.Errorf("graph: acquiring token: %w", err)
	}

	return tok.AccessToken, nil
}
