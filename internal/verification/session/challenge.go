package session

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// sessionNamespace scopes wallet-derived session ids to this application.
var sessionNamespace = uuid.MustParse("6f1c7a52-3e0b-5d8e-9a44-7b1f0c2d9e31")

// WalletSessionID derives a stable session id from a wallet address, so the
// same wallet always polls the same key.
func WalletSessionID(wallet string) string {
	return uuid.NewSHA1(sessionNamespace, []byte(strings.ToLower(strings.TrimSpace(wallet)))).String()
}

// RandomSessionID returns a fresh session id.
func RandomSessionID() string {
	return uuid.NewString()
}

// ChallengeConfig describes the verification request rendered as a QR code.
type ChallengeConfig struct {
	AppName  string
	Scope    string
	Endpoint string
	// DeepLinkBase is the scanning app's universal link.
	DeepLinkBase string
	MinimumAge   int
	OFAC         bool
	Disclose     []string
}

// DefaultChallengeConfig requests the disclosures an IdentityRecord carries.
func DefaultChallengeConfig(endpoint string) ChallengeConfig {
	return ChallengeConfig{
		AppName:      "TravelProof",
		Scope:        "travelproof",
		Endpoint:     endpoint,
		DeepLinkBase: "https://redirect.self.xyz",
		MinimumAge:   18,
		OFAC:         true,
		Disclose:     []string{"nationality", "name", "date_of_birth", "gender", "passport_number", "issuing_state", "expiry_date"},
	}
}

// Challenge is the payload the scanning app reads.
type Challenge struct {
	AppName      string       `json:"appName"`
	Scope        string       `json:"scope"`
	Endpoint     string       `json:"endpoint"`
	EndpointType string       `json:"endpointType"`
	SessionID    string       `json:"sessionId"`
	UserID       string       `json:"userId"`
	UserIDType   string       `json:"userIdType"`
	Disclosures  Disclosures  `json:"disclosures"`
	Version      int          `json:"version"`
	deepLinkBase string
}

// Disclosures lists what the proof must reveal or assert.
type Disclosures struct {
	MinimumAge int      `json:"minimumAge,omitempty"`
	OFAC       bool     `json:"ofac"`
	Fields     []string `json:"fields"`
}

// NewChallenge builds the challenge for sessionID. The session id doubles as
// the user id the backend stores the record under.
func NewChallenge(cfg ChallengeConfig, sessionID string) (Challenge, error) {
	if sessionID == "" {
		return Challenge{}, fmt.Errorf("challenge requires a session id")
	}
	if cfg.Endpoint == "" {
		return Challenge{}, fmt.Errorf("challenge requires an endpoint")
	}
	userIDType := "uuid"
	if _, err := uuid.Parse(sessionID); err != nil {
		userIDType = "hex"
	}
	return Challenge{
		AppName:      cfg.AppName,
		Scope:        cfg.Scope,
		Endpoint:     cfg.Endpoint,
		EndpointType: endpointType(cfg.Endpoint),
		SessionID:    sessionID,
		UserID:       sessionID,
		UserIDType:   userIDType,
		Disclosures: Disclosures{
			MinimumAge: cfg.MinimumAge,
			OFAC:       cfg.OFAC,
			Fields:     append([]string(nil), cfg.Disclose...),
		},
		Version:      1,
		deepLinkBase: cfg.DeepLinkBase,
	}, nil
}

func endpointType(endpoint string) string {
	if strings.HasPrefix(endpoint, "https://") {
		return "https"
	}
	return "staging_http"
}

// String renders the QR payload.
func (c Challenge) String() string {
	b, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return string(b)
}

// DeepLink opens the scanning app directly on a mobile device.
func (c Challenge) DeepLink() string {
	base := c.deepLinkBase
	if base == "" {
		return ""
	}
	return base + "?selfApp=" + url.QueryEscape(c.String())
}
