package clients

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

// ErrInvalidSession is returned when the identity-service rejects the token
var ErrInvalidSession = errors.New("invalid or expired session")

// IdentityClient handles communication with the identity-service
type IdentityClient struct {
	baseURL    string
	httpClient *http.Client
}

// Session is the resolved caller identity from identity-service
type Session struct {
	UserID       string `json:"userId"`
	Email        string `json:"email"`
	IsSuperAdmin bool   `json:"isSuperAdmin"`
}

// SessionResponse from identity-service
type SessionResponse struct {
	Success bool     `json:"success"`
	Data    *Session `json:"data,omitempty"`
	Message *string  `json:"message,omitempty"`
}

// NewIdentityClient creates a new identity client
func NewIdentityClient() *IdentityClient {
	baseURL := os.Getenv("IDENTITY_SERVICE_URL")
	if baseURL == "" {
		baseURL = "http://identity-service:8080"
	}

	return &IdentityClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// VerifySession resolves a bearer token to a session.
// Returns ErrInvalidSession when the token is missing, expired or revoked.
func (c *IdentityClient) VerifySession(token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}

	url := fmt.Sprintf("%s/api/v1/sessions/me", c.baseURL)

	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[IdentityClient] Error calling sessions API: %v", err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrInvalidSession
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Printf("[IdentityClient] Sessions API returned %d: %s", resp.StatusCode, string(body))
		return nil, fmt.Errorf("failed to verify session: %d", resp.StatusCode)
	}

	var result SessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Printf("[IdentityClient] Error decoding session response: %v", err)
		return nil, err
	}
	if result.Data == nil {
		return nil, ErrInvalidSession
	}

	return result.Data, nil
}
