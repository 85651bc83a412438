package esign

import (
	"bytes"
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"marketlive/internal/config"
	"marketlive/internal/infrastructure/resilience"
	appErrors "marketlive/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
)

const (
	grantType       = "urn:ietf:params:oauth:grant-type:jwt-bearer"
	scopes          = "signature impersonation"
	assertionTTL    = time.Hour
	tokenSafety     = 60 * time.Second
	defaultSubject  = "Please sign this Logistics Document"
	placeholderText = "Logistics Agreement Placeholder"
)

var ErrNotConfigured = errors.New("e-signature provider not configured")

type Signer struct {
	Name  string
	Email string
}

type EnvelopeRequest struct {
	Signer         Signer
	EmailSubject   string
	DocumentName   string
	DocumentBase64 string // placeholder agreement when empty
}

type EnvelopeResult struct {
	EnvelopeID string
	Status     string
	Recipients []Signer
}

// Client speaks the DocuSign eSignature REST API using the JWT bearer grant.
type Client struct {
	cfg        config.DocuSignConfig
	httpClient *http.Client
	breaker    *resilience.Breaker
	key        *rsa.PrivateKey
	now        func() time.Time

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

func NewClient(cfg config.DocuSignConfig, breaker *resilience.Breaker) (*Client, error) {
	if cfg.IntegrationKey == "" || cfg.UserID == "" || cfg.AccountID == "" || cfg.PrivateKeyPEM == "" {
		return nil, ErrNotConfigured
	}

	// Env files usually carry the PEM with escaped newlines.
	pem := strings.ReplaceAll(cfg.PrivateKeyPEM, `\n`, "\n")
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(pem))
	if err != nil {
		return nil, fmt.Errorf("failed to parse docusign private key: %w", err)
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		breaker:    breaker,
		key:        key,
		now:        time.Now,
	}, nil
}

// SendEnvelope creates and sends a single-signer envelope.
func (c *Client) SendEnvelope(ctx context.Context, req EnvelopeRequest) (*EnvelopeResult, error) {
	var result *EnvelopeResult
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		token, err := c.token(ctx)
		if err != nil {
			return err
		}
		result, err = c.createEnvelope(ctx, token, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

type envelopeDocument struct {
	DocumentBase64 string `json:"documentBase64"`
	Name           string `json:"name"`
	FileExtension  string `json:"fileExtension"`
	DocumentID     string `json:"documentId"`
}

type signHereTab struct {
	DocumentID string `json:"documentId"`
	PageNumber string `json:"pageNumber"`
	XPosition  string `json:"xPosition"`
	YPosition  string `json:"yPosition"`
}

type envelopeSigner struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	RecipientID  string `json:"recipientId"`
	RoutingOrder string `json:"routingOrder"`
	Tabs         struct {
		SignHereTabs []signHereTab `json:"signHereTabs"`
	} `json:"tabs"`
}

type envelopeDefinition struct {
	EmailSubject string             `json:"emailSubject"`
	Documents    []envelopeDocument `json:"documents"`
	Recipients   struct {
		Signers []envelopeSigner `json:"signers"`
	} `json:"recipients"`
	Status string `json:"status"`
}

func buildEnvelope(req EnvelopeRequest) envelopeDefinition {
	def := envelopeDefinition{
		EmailSubject: req.EmailSubject,
		Status:       "sent",
	}
	if def.EmailSubject == "" {
		def.EmailSubject = defaultSubject
	}

	doc := req.DocumentBase64
	if doc == "" {
		doc = base64.StdEncoding.EncodeToString([]byte(placeholderText))
	}
	name := req.DocumentName
	if name == "" {
		name = "Agreement.pdf"
	}
	def.Documents = []envelopeDocument{{
		DocumentBase64: doc,
		Name:           name,
		FileExtension:  "pdf",
		DocumentID:     "1",
	}}

	signer := envelopeSigner{
		Email:        req.Signer.Email,
		Name:         req.Signer.Name,
		RecipientID:  "1",
		RoutingOrder: "1",
	}
	signer.Tabs.SignHereTabs = []signHereTab{{
		DocumentID: "1",
		PageNumber: "1",
		XPosition:  "100",
		YPosition:  "100",
	}}
	def.Recipients.Signers = []envelopeSigner{signer}

	return def
}

func (c *Client) createEnvelope(ctx context.Context, token string, req EnvelopeRequest) (*EnvelopeResult, error) {
	body, err := json.Marshal(buildEnvelope(req))
	if err != nil {
		return nil, fmt.Errorf("failed to encode envelope: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v2.1/accounts/%s/envelopes", strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.AccountID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")

	var out struct {
		EnvelopeID string `json:"envelopeId"`
		Status     string `json:"status"`
	}
	if err := c.do(httpReq, &out); err != nil {
		return nil, fmt.Errorf("failed to create envelope: %w", err)
	}
	if out.EnvelopeID == "" {
		return nil, appErrors.NewAppError(appErrors.CodeVendor, "e-signature provider returned no envelope id", nil)
	}

	return &EnvelopeResult{
		EnvelopeID: out.EnvelopeID,
		Status:     out.Status,
		Recipients: []Signer{req.Signer},
	}, nil
}

func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.accessToken != "" && now.Before(c.expiresAt) {
		return c.accessToken, nil
	}

	assertion, err := c.assertion(now)
	if err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("grant_type", grantType)
	form.Set("assertion", assertion)

	endpoint := strings.TrimRight(c.cfg.OAuthBaseURL, "/") + "/oauth/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := c.do(req, &out); err != nil {
		return "", fmt.Errorf("failed to obtain docusign token: %w", err)
	}

	c.accessToken = out.AccessToken
	c.expiresAt = now.Add(time.Duration(out.ExpiresIn)*time.Second - tokenSafety)
	return c.accessToken, nil
}

// assertion is the RS256 JWT exchanged for an access token.
func (c *Client) assertion(now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"iss":   c.cfg.IntegrationKey,
		"sub":   c.cfg.UserID,
		"aud":   oauthHost(c.cfg.OAuthBaseURL),
		"iat":   now.Unix(),
		"exp":   now.Add(assertionTTL).Unix(),
		"scope": scopes,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign assertion: %w", err)
	}
	return signed, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return appErrors.NewAppError(appErrors.CodeVendor,
			fmt.Sprintf("e-signature provider returned %d", resp.StatusCode),
			errors.New(strings.TrimSpace(string(payload))))
	}
	return json.Unmarshal(payload, out)
}

func oauthHost(base string) string {
	if u, err := url.Parse(base); err == nil && u.Host != "" {
		return u.Host
	}
	return strings.TrimPrefix(strings.TrimPrefix(base, "https://"), "http://")
}
