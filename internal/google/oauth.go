package google

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	oauthgoogle "golang.org/x/oauth2/google"
)

const calendarScope = "https://www.googleapis.com/auth/calendar"

func (c *Client) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.config.ClientID,
		ClientSecret: c.config.ClientSecret,
		RedirectURL:  c.config.RedirectURL,
		Scopes:       []string{calendarScope},
		Endpoint:     oauthgoogle.Endpoint,
	}
}

// AuthCodeURL builds the consent URL the admin is redirected to. Offline
// access plus forced approval makes Google return a refresh token even on
// repeat consent, which the refresher depends on.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauthConfig().AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades the consent code for the initial token pair.
func (c *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := c.oauthConfig().Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("err exchanging auth code: %w", err)
	}
	return token, nil
}
