package models

// Group represents a recurring set of people who share expenses
// (e.g., "Roommates", "Ski Trip"). Expenses may be scoped to a group.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group.
	Name string

	// CreatedBy is the user ID of the group creator.
	CreatedBy string

	// Members are the current members of the group. A user who left the
	// group disappears from this list; their historical expenses remain.
	Members []GroupMember

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// GroupMember records one user's membership in a group.
type GroupMember struct {
	UserID string

	// JoinedAt is the Unix timestamp when the user joined.
	JoinedAt int64
}

// MemberIDs returns the user IDs of all current members.
func (g *Group) MemberIDs() []string {
	ids := make([]string, len(g.Members))
	for i, m := range g.Members {
		ids[i] = m.UserID
	}
	return ids
}

// HasMember reports whether userID is a current member of the group.
func (g *Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}
