package livekit

import (
	"fmt"
	"time"

	"github.com/livekit/protocol/auth"
)

// ConnectionDetails is what a browser needs to join a LiveKit room.
type ConnectionDetails struct {
	URL   string `json:"url"`
	Token string `json:"token"`
}

// TokenMinter mints participant access tokens for voice sessions.
type TokenMinter struct {
	url       string
	apiKey    string
	apiSecret string
	ttl       time.Duration
}

// NewTokenMinter creates a minter for the given LiveKit deployment.
func NewTokenMinter(url, apiKey, apiSecret string, ttl time.Duration) *TokenMinter {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &TokenMinter{
		url:       url,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		ttl:       ttl,
	}
}

// Mint creates connection details for one participant joining a room.
func (m *TokenMinter) Mint(room, identity string) (*ConnectionDetails, error) {
	if m.apiKey == "" || m.apiSecret == "" {
		return nil, fmt.Errorf("livekit credentials are not configured")
	}

	canPublish := true
	canSubscribe := true
	grant := &auth.VideoGrant{
		RoomJoin:     true,
		Room:         room,
		CanPublish:   &canPublish,
		CanSubscribe: &canSubscribe,
	}

	token := auth.NewAccessToken(m.apiKey, m.apiSecret).
		SetVideoGrant(grant).
		SetIdentity(identity).
		SetValidFor(m.ttl)

	jwt, err := token.ToJWT()
	if err != nil {
		return nil, fmt.Errorf("failed to mint access token: %w", err)
	}

	return &ConnectionDetails{
		URL:   m.url,
		Token: jwt,
	}, nil
}
