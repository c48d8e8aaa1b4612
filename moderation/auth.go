package moderation

import "slices"

// Actor is whoever triggers a moderation action.
type Actor struct {
	ID    string
	Roles []string
}

// Authorizer is the single check every moderator action passes through.
type Authorizer struct {
	moderators []string
	adminRoles []string
}

func NewAuthorizer(moderators, adminRoles []string) *Authorizer {
	return &Authorizer{
		moderators: slices.Clone(moderators),
		adminRoles: slices.Clone(adminRoles),
	}
}

// Allowed reports whether the actor is a configured moderator or holds
// one of the admin roles.
func (a *Authorizer) Allowed(actor Actor) bool {
	if a.IsModerator(actor.ID) {
		return true
	}
	for _, role := range actor.Roles {
		if slices.Contains(a.adminRoles, role) {
			return true
		}
	}
	return false
}

// IsModerator reports whether userID is on the moderator list.
func (a *Authorizer) IsModerator(userID string) bool {
	return userID != "" && slices.Contains(a.moderators, userID)
}

// Moderators returns the identities that receive new submissions.
func (a *Authorizer) Moderators() []string {
	return slices.Clone(a.moderators)
}
