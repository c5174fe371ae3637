package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// IdentityProfile is the subset of identity provider profile data stored on a user
type IdentityProfile struct {
	Sub     string `json:"sub"` // identity provider user ID
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// IdentityService fetches profile data from an OIDC issuer's /userinfo endpoint.
// Used during registration when the access token carries no email claim.
type IdentityService struct {
	issuer     string
	httpClient *http.Client
}

// NewIdentityService creates a userinfo client for the given issuer URL or domain
func NewIdentityService(issuer string) *IdentityService {
	return &IdentityService{
		issuer: issuer,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *IdentityService) userInfoURL() string {
	base := strings.TrimSuffix(s.issuer, "/")
	if strings.HasPrefix(base, "http://") || strings.HasPrefix(base, "https://") {
		return base + "/userinfo"
	}
	return "https://" + base + "/userinfo"
}

// GetUserInfo fetches the caller's profile using their access token
func (s *IdentityService) GetUserInfo(ctx context.Context, accessToken string) (*IdentityProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Add("Authorization", "Bearer "+accessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, NewUpstreamError("IDENTITY_UNAVAILABLE", "failed to call userinfo endpoint", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Printf("warning: failed to close userinfo response: %v", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, NewUpstreamError("IDENTITY_UNAVAILABLE",
			fmt.Sprintf("userinfo endpoint returned status %d", resp.StatusCode),
			fmt.Errorf("%s", strings.TrimSpace(string(body))))
	}

	var profile IdentityProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo response: %w", err)
	}

	return &profile, nil
}
