package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrUserInfoUnavailable is returned when the identity provider cannot
// describe the token's subject
var ErrUserInfoUnavailable = errors.New("userinfo unavailable")

// Auth0UserInfo is the subset of the /userinfo response used to provision
// an account
type Auth0UserInfo struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Auth0Service reads the profile behind an access token from Auth0
type Auth0Service struct {
	userInfoURL string
	httpClient  *http.Client
}

// NewAuth0Service creates a client for the tenant domain. A domain that
// already carries a scheme is used as-is, which lets tests point it at a
// local server. A nil client gets a 10 second timeout.
func NewAuth0Service(domain string, client *http.Client) *Auth0Service {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	base := strings.TrimSuffix(domain, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	return &Auth0Service{userInfoURL: base + "/userinfo", httpClient: client}
}

// GetUserInfo fetches the profile of the access token's subject
func (s *Auth0Service) GetUserInfo(ctx context.Context, accessToken string) (*Auth0UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserInfoUnavailable, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("Failed to close userinfo response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrUserInfoUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var info Auth0UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode userinfo response: %w", err)
	}
	return &info, nil
}
