package user

// Identity-provider sync event types.
const (
	EventUserCreated         = "user.created"
	EventUserUpdated         = "user.updated"
	EventUserDeleted         = "user.deleted"
	EventOrganizationCreated = "organization.created"
	EventOrganizationUpdated = "organization.updated"
	EventOrganizationDeleted = "organization.deleted"
	EventMembershipCreated   = "organizationMembership.created"
	EventMembershipUpdated   = "organizationMembership.updated"
	EventMembershipDeleted   = "organizationMembership.deleted"
)

type SyncEvent interface {
	EventType() string
}

type UserSynced struct {
	Type       string
	ExternalID string
	Name       string
	Email      string
}

type UserDeleted struct {
	ExternalID string
}

type OrganizationSynced struct {
	Type         string
	ExternalID   string
	Name         string
	Slug         string
	ImageURL     string
	CreatedBy    string
	MembersCount *int
}

type OrganizationDeleted struct {
	ExternalID string
}

// MembershipChanged sets or, when Removed, clears a user's organization.
type MembershipChanged struct {
	Type    string
	UserID  string
	OrgID   string
	Role    string
	Removed bool
}

type IgnoredSyncEvent struct {
	Type string
}

func (e UserSynced) EventType() string         { return e.Type }
func (UserDeleted) EventType() string          { return EventUserDeleted }
func (e OrganizationSynced) EventType() string { return e.Type }
func (OrganizationDeleted) EventType() string  { return EventOrganizationDeleted }
func (e MembershipChanged) EventType() string  { return e.Type }
func (e IgnoredSyncEvent) EventType() string   { return e.Type }
