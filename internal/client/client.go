// Package client is a typed HTTP client for the GameHub API together with
// the signed-in session and the result reporter used by local games.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gamehub/apiserver/types"
)

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

func isStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the API at baseURL. A nil httpClient gets a
// default with a request timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

type messageResponse struct {
	Message string `json:"message"`
}

type registerResponse struct {
	Message string            `json:"message"`
	User    types.UserSummary `json:"user"`
}

// LoginResult is a successful login.
type LoginResult struct {
	Message string            `json:"message"`
	Token   string            `json:"token"`
	User    types.UserSummary `json:"user"`
}

type userResponse struct {
	Message string     `json:"message"`
	User    types.User `json:"user"`
}

type gamesResponse struct {
	Games []types.Game `json:"games"`
	Tags  []string     `json:"tags"`
}

func (c *Client) do(ctx context.Context, method, path, token string, payload, result any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var msg messageResponse
		_ = json.Unmarshal(data, &msg)
		return &APIError{Status: resp.StatusCode, Message: msg.Message}
	}

	if result == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) Register(ctx context.Context, name, email, password string) (types.UserSummary, error) {
	var resp registerResponse
	payload := map[string]string{"name": name, "email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/register", "", payload, &resp); err != nil {
		return types.UserSummary{}, err
	}
	return resp.User, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var resp LoginResult
	payload := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/login", "", payload, &resp); err != nil {
		return LoginResult{}, err
	}
	return resp, nil
}

// Me returns the full user a token refers to.
func (c *Client) Me(ctx context.Context, token string) (types.User, error) {
	var user types.User
	if err := c.do(ctx, http.MethodPost, "/api/me", "", map[string]string{"token": token}, &user); err != nil {
		return types.User{}, err
	}
	return user.Normalize(), nil
}

// Logout revokes token on the server.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/api/logout", token, nil, nil)
}

func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	var resp messageResponse
	if err := c.do(ctx, http.MethodPost, "/api/forgot-password", "", map[string]string{"email": email}, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *Client) ResetPassword(ctx context.Context, resetToken, password string) (string, error) {
	var resp messageResponse
	path := "/api/reset-password/" + url.PathEscape(resetToken)
	if err := c.do(ctx, http.MethodPost, path, "", map[string]string{"password": password}, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// RecordResult posts a finished game and returns the updated user.
func (c *Client) RecordResult(ctx context.Context, token string, result types.GameResult) (types.User, error) {
	var resp userResponse
	if err := c.do(ctx, http.MethodPost, "/api/stats/record", token, result, &resp); err != nil {
		return types.User{}, err
	}
	return resp.User.Normalize(), nil
}

func (c *Client) AddFavorite(ctx context.Context, token, gameID string) (types.User, string, error) {
	return c.favorite(ctx, "/api/favorites/add", token, gameID)
}

func (c *Client) RemoveFavorite(ctx context.Context, token, gameID string) (types.User, string, error) {
	return c.favorite(ctx, "/api/favorites/remove", token, gameID)
}

func (c *Client) favorite(ctx context.Context, path, token, gameID string) (types.User, string, error) {
	var resp userResponse
	if err := c.do(ctx, http.MethodPost, path, token, map[string]string{"gameId": gameID}, &resp); err != nil {
		return types.User{}, "", err
	}
	return resp.User.Normalize(), resp.Message, nil
}

// Games lists the catalog, filtered by a title search or a tag.
func (c *Client) Games(ctx context.Context, search, tag string) ([]types.Game, []string, error) {
	q := url.Values{}
	if search != "" {
		q.Set("q", search)
	}
	if tag != "" {
		q.Set("tag", tag)
	}
	path := "/api/games"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp gamesResponse
	if err := c.do(ctx, http.MethodGet, path, "", nil, &resp); err != nil {
		return nil, nil, err
	}
	return resp.Games, resp.Tags, nil
}

func (c *Client) Game(ctx context.Context, id string) (types.Game, error) {
	var game types.Game
	if err := c.do(ctx, http.MethodGet, "/api/games/"+url.PathEscape(id), "", nil, &game); err != nil {
		return types.Game{}, err
	}
	return game, nil
}
