package verifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelproof/internal/identity/models"
	"travelproof/internal/platform/config"
	"travelproof/internal/platform/logger"
	"travelproof/internal/verification/session"
)

func TestNewFailsClosed(t *testing.T) {
	t.Run("no url in production is a configuration error even with insecure flag", func(t *testing.T) {
		cfg := config.Server{
			Environment: config.EnvProduction,
			Verifier:    config.VerifierConfig{AllowInsecure: true},
		}
		v, err := New(cfg, nil, logger.Discard())
		require.ErrorIs(t, err, ErrNotConfigured)
		assert.Nil(t, v)
	})

	t.Run("no url in development without flag is a configuration error", func(t *testing.T) {
		cfg := config.Server{Environment: config.EnvDevelopment}
		_, err := New(cfg, nil, logger.Discard())
		require.ErrorIs(t, err, ErrNotConfigured)
	})

	t.Run("explicit development flag yields the permissive verifier", func(t *testing.T) {
		cfg := config.Server{
			Environment: config.EnvDevelopment,
			Verifier:    config.VerifierConfig{AllowInsecure: true},
		}
		v, err := New(cfg, nil, logger.Discard())
		require.NoError(t, err)
		assert.IsType(t, &PermissiveVerifier{}, v)

		res, err := v.Verify(context.Background(), map[string]any{"a": 1}, []any{"1"})
		require.NoError(t, err)
		assert.True(t, res.Valid)
		assert.True(t, res.Degraded)
		assert.Equal(t, models.UnknownSubject, res.SubjectID)
	})

	t.Run("configured url yields the http verifier", func(t *testing.T) {
		cfg := config.Server{Verifier: config.VerifierConfig{URL: "http://verifier.local"}}
		v, err := New(cfg, nil, logger.Discard())
		require.NoError(t, err)
		assert.IsType(t, &HTTPVerifier{}, v)
	})
}

func TestHTTPVerifier(t *testing.T) {
	t.Run("valid proof returns filtered attributes", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req verifyRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "travelproof", req.Scope)
			assert.Len(t, req.PublicSignals, 2)

			_ = json.NewEncoder(w).Encode(map[string]any{
				"valid":     true,
				"subjectId": "nullifier-123",
				"attributes": map[string]any{
					"nationality":    "FRA",
					"favouriteColor": "blue",
				},
				"assertions": map[string]any{"isHuman": true, "isAdult": true, "notSanctioned": true},
			})
		}))
		defer srv.Close()

		v := NewHTTPVerifier(srv.URL, "travelproof", time.Second, srv.Client())
		res, err := v.Verify(context.Background(), map[string]any{"pi_a": []string{"1"}}, []any{"1", "2"})
		require.NoError(t, err)
		assert.True(t, res.Valid)
		assert.False(t, res.Degraded)
		assert.Equal(t, "nullifier-123", res.SubjectID)
		assert.Equal(t, map[string]any{"nationality": "FRA"}, res.Attributes)
		assert.True(t, res.Assertions.NotSanctioned)
	})

	t.Run("every field the challenge discloses is kept", func(t *testing.T) {
		disclose := session.DefaultChallengeConfig("https://api.example.com/api/verify").Disclose
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			attrs := make(map[string]any, len(disclose))
			for _, field := range disclose {
				attrs[field] = "value-" + field
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"valid": true, "subjectId": "s", "attributes": attrs})
		}))
		defer srv.Close()

		res, err := NewHTTPVerifier(srv.URL, "s", time.Second, srv.Client()).Verify(context.Background(), "p", []any{"1"})
		require.NoError(t, err)
		assert.Len(t, res.Attributes, len(models.KnownAttributes))
		for _, name := range models.KnownAttributes {
			assert.Contains(t, res.Attributes, name)
		}
		assert.Equal(t, "value-date_of_birth", res.Attributes[models.AttrDateOfBirth])
		assert.Equal(t, "value-passport_number", res.Attributes[models.AttrPassportNumber])
	})

	t.Run("record names win over their aliases", func(t *testing.T) {
		got := filterAttributes(map[string]any{
			"expiry_date": "alias",
			"expiryDate":  "record",
			"gender":      nil,
		})
		assert.Equal(t, map[string]any{models.AttrExpiryDate: "record"}, got)
	})

	t.Run("invalid proof is not an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"valid":false}`))
		}))
		defer srv.Close()

		res, err := NewHTTPVerifier(srv.URL, "s", time.Second, srv.Client()).Verify(context.Background(), "p", []any{"1"})
		require.NoError(t, err)
		assert.False(t, res.Valid)
	})

	t.Run("backend failure is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := NewHTTPVerifier(srv.URL, "s", time.Second, srv.Client()).Verify(context.Background(), "p", []any{"1"})
		assert.Error(t, err)
	})

	t.Run("malformed body is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		defer srv.Close()

		_, err := NewHTTPVerifier(srv.URL, "s", time.Second, srv.Client()).Verify(context.Background(), "p", []any{"1"})
		assert.Error(t, err)
	})
}
