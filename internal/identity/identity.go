// Package identity carries the authenticated caller through use cases.
package identity

import "strings"

const (
	RoleClient             = "client"
	RoleAdmin              = "admin"
	RolePlatformSuperAdmin = "platform:superadmin"
)

// Identity is the caller of an operation. A nil *Identity means anonymous.
type Identity struct {
	// Subject is the identity provider's user id (the token's sub claim).
	Subject string
	// UserID is the local users row id once the subject has been synced.
	UserID string
	OrgID  string
	Role   string
	Email  string
	Name   string
}

// NormalizeRole maps provider role spellings onto the local role names.
// Organization roles such as "org:admin" pass through unchanged; they grant
// nothing platform-wide.
func NormalizeRole(role string) string {
	r := strings.ToLower(strings.TrimSpace(role))
	switch r {
	case "platform-superadmin", "platform_superadmin", RolePlatformSuperAdmin:
		return RolePlatformSuperAdmin
	case "admin":
		return RoleAdmin
	case "":
		return ""
	default:
		return r
	}
}

// IsAdmin reports whether the identity belongs to the admin-class allow-list.
func (i *Identity) IsAdmin() bool {
	if i == nil {
		return false
	}
	switch NormalizeRole(i.Role) {
	case RoleAdmin, RolePlatformSuperAdmin:
		return true
	}
	return false
}

// Owner returns the key stored on records created by this identity. Records
// are keyed by the provider subject so notifications can be addressed to it.
func (i *Identity) Owner() string {
	if i == nil {
		return ""
	}
	return i.Subject
}

// Owns reports whether a record owned by ownerID belongs to this identity.
func (i *Identity) Owns(ownerID string) bool {
	if i == nil || ownerID == "" {
		return false
	}
	return ownerID == i.UserID || ownerID == i.Subject
}

func (i *Identity) Authenticated() bool {
	return i != nil && i.Subject != ""
}
