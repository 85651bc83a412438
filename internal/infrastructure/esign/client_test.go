package esign

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"

	"marketlive/internal/config"
	"marketlive/internal/infrastructure/resilience"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	block := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	return key, string(block)
}

func TestNewClient_NotConfigured(t *testing.T) {
	_, err := NewClient(config.DocuSignConfig{}, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSendEnvelope(t *testing.T) {
	key, pemKey := testKey(t)

	var tokenCalls int
	var envelope envelopeDefinition
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/token":
			tokenCalls++
			require.NoError(t, r.ParseForm())
			assert.Equal(t, grantType, r.PostForm.Get("grant_type"))

			parsed, err := jwt.Parse(r.PostForm.Get("assertion"), func(*jwt.Token) (interface{}, error) {
				return &key.PublicKey, nil
			})
			require.NoError(t, err)
			claims := parsed.Claims.(jwt.MapClaims)
			assert.Equal(t, "integration-key", claims["iss"])
			assert.Equal(t, "user-guid", claims["sub"])
			assert.Equal(t, scopes, claims["scope"])

			_ = json.NewEncoder(w).Encode(map[string]interface{}{"access_token": "tok", "expires_in": 3600})
		case "/restapi/v2.1/accounts/acct-1/envelopes":
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&envelope))
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"envelopeId":"env-123","status":"sent"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client, err := NewClient(config.DocuSignConfig{
		BaseURL:        srv.URL + "/restapi",
		OAuthBaseURL:   srv.URL,
		IntegrationKey: "integration-key",
		UserID:         "user-guid",
		AccountID:      "acct-1",
		PrivateKeyPEM:  pemKey,
	}, resilience.NewBreaker(resilience.DefaultBreakerConfig("docusign"), nil))
	require.NoError(t, err)

	signer := Signer{Name: "Ada Shipper", Email: "ada@example.com"}
	for i := 0; i < 2; i++ {
		res, err := client.SendEnvelope(context.Background(), EnvelopeRequest{Signer: signer})
		require.NoError(t, err)
		assert.Equal(t, "env-123", res.EnvelopeID)
		assert.Equal(t, "sent", res.Status)
	}

	assert.Equal(t, 1, tokenCalls, "access token is cached")
	assert.Equal(t, defaultSubject, envelope.EmailSubject)
	require.Len(t, envelope.Documents, 1)
	assert.Equal(t, "Agreement.pdf", envelope.Documents[0].Name)
	require.Len(t, envelope.Recipients.Signers, 1)
	assert.Equal(t, "ada@example.com", envelope.Recipients.Signers[0].Email)
	assert.Equal(t, "1", envelope.Recipients.Signers[0].RecipientID)
}

func TestSendEnvelope_VendorError(t *testing.T) {
	_, pemKey := testKey(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"consent_required"}`))
	}))
	defer srv.Close()

	client, err := NewClient(config.DocuSignConfig{
		BaseURL:        srv.URL,
		OAuthBaseURL:   srv.URL,
		IntegrationKey: "k",
		UserID:         "u",
		AccountID:      "a",
		PrivateKeyPEM:  pemKey,
	}, resilience.NewBreaker(resilience.DefaultBreakerConfig("docusign"), nil))
	require.NoError(t, err)

	_, err = client.SendEnvelope(context.Background(), EnvelopeRequest{Signer: Signer{Name: "n", Email: "e@example.com"}})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
