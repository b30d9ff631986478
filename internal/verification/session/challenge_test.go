package session

import (
	"encoding/json"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletSessionID(t *testing.T) {
	a := WalletSessionID("0xAbC0000000000000000000000000000000000001")
	b := WalletSessionID(" 0xabc0000000000000000000000000000000000001 ")
	c := WalletSessionID("0xabc0000000000000000000000000000000000002")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(5), parsed.Version())
}

func TestRandomSessionID(t *testing.T) {
	assert.NotEqual(t, RandomSessionID(), RandomSessionID())
}

func TestNewChallenge(t *testing.T) {
	cfg := DefaultChallengeConfig("https://api.example.com/api/verify")
	id := WalletSessionID("0xabc")

	chal, err := NewChallenge(cfg, id)
	require.NoError(t, err)
	assert.Equal(t, "https", chal.EndpointType)
	assert.Equal(t, "uuid", chal.UserIDType)
	assert.Equal(t, 18, chal.Disclosures.MinimumAge)
	assert.True(t, chal.Disclosures.OFAC)
	assert.Contains(t, chal.Disclosures.Fields, "nationality")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(chal.String()), &decoded))
	assert.Equal(t, id, decoded["sessionId"])
	assert.Equal(t, "travelproof", decoded["scope"])
	assert.NotContains(t, decoded, "deepLinkBase")

	link := chal.DeepLink()
	require.True(t, strings.HasPrefix(link, "https://redirect.self.xyz?selfApp="))
	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.JSONEq(t, chal.String(), u.Query().Get("selfApp"))
}

func TestNewChallengeStagingEndpoint(t *testing.T) {
	chal, err := NewChallenge(DefaultChallengeConfig("http://localhost:8080/api/verify"), "deadbeef")
	require.NoError(t, err)
	assert.Equal(t, "staging_http", chal.EndpointType)
	assert.Equal(t, "hex", chal.UserIDType)
}

func TestNewChallengeRequiresInputs(t *testing.T) {
	_, err := NewChallenge(DefaultChallengeConfig("https://api.example.com"), "")
	assert.Error(t, err)

	_, err = NewChallenge(DefaultChallengeConfig(""), "session")
	assert.Error(t, err)
}

func TestDeepLinkWithoutBase(t *testing.T) {
	cfg := DefaultChallengeConfig("https://api.example.com")
	cfg.DeepLinkBase = ""
	chal, err := NewChallenge(cfg, "session")
	require.NoError(t, err)
	assert.Empty(t, chal.DeepLink())
}
