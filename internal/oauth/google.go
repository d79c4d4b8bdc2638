// Package oauth implements the Google sign-in redirect flow.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gamehub/apiserver/config"
	"github.com/gamehub/apiserver/internal/services"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

// Provider is an OAuth identity provider used by the redirect handlers.
type Provider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (services.GoogleProfile, error)
}

type tokenValidator interface {
	Validate(ctx context.Context, idToken string, audience string) (*idtoken.Payload, error)
}

// GoogleProvider exchanges authorization codes with Google and verifies
// the returned id_token.
type GoogleProvider struct {
	config    *oauth2.Config
	validator tokenValidator
}

func NewGoogleProvider(ctx context.Context, cfg config.GoogleConfig) (*GoogleProvider, error) {
	if !cfg.Enabled() {
		return nil, errors.New("google client id and secret are required")
	}

	validator, err := idtoken.NewValidator(ctx)
	if err != nil {
		return nil, fmt.Errorf("id token validator: %w", err)
	}

	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "profile", "email"},
		},
		validator: validator,
	}, nil
}

func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

func (p *GoogleProvider) Exchange(ctx context.Context, code string) (services.GoogleProfile, error) {
	if strings.TrimSpace(code) == "" {
		return services.GoogleProfile{}, errors.New("missing authorization code")
	}

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return services.GoogleProfile{}, fmt.Errorf("exchange code: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return services.GoogleProfile{}, errors.New("no id_token in token response")
	}

	payload, err := p.validator.Validate(ctx, rawIDToken, p.config.ClientID)
	if err != nil {
		return services.GoogleProfile{}, fmt.Errorf("verify id token: %w", err)
	}
	return profileFromClaims(payload.Subject, payload.Claims)
}

func profileFromClaims(subject string, claims map[string]any) (services.GoogleProfile, error) {
	email, _ := claims["email"].(string)
	if email == "" {
		return services.GoogleProfile{}, errors.New("google account has no email")
	}
	if verified, ok := claims["email_verified"].(bool); ok && !verified {
		return services.GoogleProfile{}, errors.New("email not verified by google")
	}
	name, _ := claims["name"].(string)

	return services.GoogleProfile{Subject: subject, Email: email, Name: name}, nil
}
