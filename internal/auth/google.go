package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GoogleUserInfoURL is the OpenID Connect userinfo endpoint.
const GoogleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// GoogleUser is the subset of the userinfo claims we store.
//
// Subject ("sub") is Google's stable account identifier and becomes the
// user's primary key.
type GoogleUser struct {
	Subject string `json:"sub"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

// GoogleProvider wraps golang.org/x/oauth2 for Google's Authorization Code flow.
//
// The flow:
//  1. AuthURL sends the browser to Google's consent screen with our state.
//  2. Google redirects back to the configured redirect URI with a code.
//  3. Exchange trades the code for an access token (server-to-server,
//     using the client secret) and reads the userinfo claims with it.
type GoogleProvider struct {
	config      *oauth2.Config
	userInfoURL string
}

// GoogleOption customizes a GoogleProvider. Tests use it to point the
// provider at local endpoints.
type GoogleOption func(*GoogleProvider)

// WithEndpoints overrides the authorization, token and userinfo URLs.
func WithEndpoints(authURL, tokenURL, userInfoURL string) GoogleOption {
	return func(p *GoogleProvider) {
		p.config.Endpoint = oauth2.Endpoint{
			AuthURL:   authURL,
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		}
		p.userInfoURL = userInfoURL
	}
}

// NewGoogleProvider creates a GoogleProvider for the given OAuth client.
// redirectURI must match one of the client's authorized redirect URIs.
func NewGoogleProvider(clientID, clientSecret, redirectURI string, opts ...GoogleOption) *GoogleProvider {
	p := &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: GoogleUserInfoURL,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AuthURL returns the consent-screen URL carrying state.
func (p *GoogleProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades an authorization code for the user's identity claims.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*GoogleUser, error) {
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}
	if oauthToken == nil || oauthToken.AccessToken == "" {
		return nil, errors.New("auth: token endpoint returned no access token")
	}

	client := p.config.Client(ctx, oauthToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("auth: building userinfo request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: calling userinfo endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: userinfo endpoint returned status %d", resp.StatusCode)
	}

	var user GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("auth: decoding userinfo response: %w", err)
	}
	if user.Subject == "" {
		return nil, errors.New("auth: userinfo response has no subject")
	}

	return &user, nil
}
