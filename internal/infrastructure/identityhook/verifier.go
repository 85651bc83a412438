package identityhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"marketlive/internal/domain/user"
	appErrors "marketlive/pkg/errors"
)

const (
	HeaderID        = "svix-id"
	HeaderTimestamp = "svix-timestamp"
	HeaderSignature = "svix-signature"

	secretPrefix = "whsec_"
	tolerance    = 5 * time.Minute
)

// Verifier checks Svix-style signatures: base64(HMAC-SHA256(secret, id.timestamp.body)).
type Verifier struct {
	secret []byte
	now    func() time.Time
}

func NewVerifier(secret string) (*Verifier, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(secret, secretPrefix))
	if err != nil {
		return nil, fmt.Errorf("invalid webhook secret: %w", err)
	}
	return &Verifier{secret: key, now: time.Now}, nil
}

func (v *Verifier) Verify(payload []byte, headers http.Header) error {
	id := headers.Get(HeaderID)
	ts := headers.Get(HeaderTimestamp)
	sigs := headers.Get(HeaderSignature)
	if id == "" || ts == "" || sigs == "" {
		return fmt.Errorf("%w: missing svix headers", appErrors.ErrInvalidSignature)
	}

	seconds, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad timestamp", appErrors.ErrInvalidSignature)
	}
	sent := time.Unix(seconds, 0)
	if d := v.now().Sub(sent); d > tolerance || d < -tolerance {
		return fmt.Errorf("%w: timestamp outside tolerance", appErrors.ErrInvalidSignature)
	}

	expected := v.sign(id, ts, payload)
	for _, candidate := range strings.Fields(sigs) {
		version, sig, ok := strings.Cut(candidate, ",")
		if !ok || version != "v1" {
			continue
		}
		if hmac.Equal([]byte(sig), []byte(expected)) {
			return nil
		}
	}

	return fmt.Errorf("%w: no matching signature", appErrors.ErrInvalidSignature)
}

func (v *Verifier) sign(id, ts string, payload []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(id + "." + ts + "."))
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type emailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

type userData struct {
	ID                    string         `json:"id"`
	FirstName             string         `json:"first_name"`
	LastName              string         `json:"last_name"`
	Username              string         `json:"username"`
	EmailAddresses        []emailAddress `json:"email_addresses"`
	PrimaryEmailAddressID string         `json:"primary_email_address_id"`
}

type organizationData struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	ImageURL     string `json:"image_url"`
	CreatedBy    string `json:"created_by"`
	MembersCount *int   `json:"members_count"`
}

type membershipData struct {
	Role         string `json:"role"`
	Organization struct {
		ID string `json:"id"`
	} `json:"organization"`
	PublicUserData struct {
		UserID string `json:"user_id"`
	} `json:"public_user_data"`
}

// Decode maps a verified payload onto the user.SyncEvent variants.
func Decode(payload []byte) (user.SyncEvent, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, appErrors.Validation("malformed webhook payload", err)
	}

	switch env.Type {
	case user.EventUserCreated, user.EventUserUpdated:
		var d userData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return nil, appErrors.Validation("malformed user payload", err)
		}
		return user.UserSynced{
			Type:       env.Type,
			ExternalID: d.ID,
			Name:       displayName(d),
			Email:      primaryEmail(d),
		}, nil

	case user.EventUserDeleted:
		var d userData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return nil, appErrors.Validation("malformed user payload", err)
		}
		return user.UserDeleted{ExternalID: d.ID}, nil

	case user.EventOrganizationCreated, user.EventOrganizationUpdated:
		var d organizationData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return nil, appErrors.Validation("malformed organization payload", err)
		}
		return user.OrganizationSynced{
			Type:         env.Type,
			ExternalID:   d.ID,
			Name:         d.Name,
			Slug:         d.Slug,
			ImageURL:     d.ImageURL,
			CreatedBy:    d.CreatedBy,
			MembersCount: d.MembersCount,
		}, nil

	case user.EventOrganizationDeleted:
		var d organizationData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return nil, appErrors.Validation("malformed organization payload", err)
		}
		return user.OrganizationDeleted{ExternalID: d.ID}, nil

	case user.EventMembershipCreated, user.EventMembershipUpdated, user.EventMembershipDeleted:
		var d membershipData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return nil, appErrors.Validation("malformed membership payload", err)
		}
		return user.MembershipChanged{
			Type:    env.Type,
			UserID:  d.PublicUserData.UserID,
			OrgID:   d.Organization.ID,
			Role:    d.Role,
			Removed: env.Type == user.EventMembershipDeleted,
		}, nil
	}

	return user.IgnoredSyncEvent{Type: env.Type}, nil
}

func displayName(d userData) string {
	name := strings.TrimSpace(d.FirstName + " " + d.LastName)
	if name == "" {
		name = d.Username
	}
	if name == "" {
		name = "Anonymous"
	}
	return name
}

func primaryEmail(d userData) string {
	for _, e := range d.EmailAddresses {
		if e.ID == d.PrimaryEmailAddressID {
			return e.EmailAddress
		}
	}
	if len(d.EmailAddresses) > 0 {
		return d.EmailAddresses[0].EmailAddress
	}
	return ""
}
