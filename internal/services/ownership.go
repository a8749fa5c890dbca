package services

// Owner identifies who a pocket, category or record belongs to. Exactly one
// field is set for pockets and categories.
type Owner struct {
	UserID  *string
	GroupID *string
}

func PersonalOwner(userID string) Owner {
	return Owner{UserID: &userID}
}

func GroupOwner(groupID string) Owner {
	return Owner{GroupID: &groupID}
}

func (o Owner) IsGroup() bool {
	return o.GroupID != nil
}

// normalized drops empty ids so that "" and nil mean the same thing.
func (o Owner) normalized() Owner {
	if o.UserID != nil && *o.UserID == "" {
		o.UserID = nil
	}
	if o.GroupID != nil && *o.GroupID == "" {
		o.GroupID = nil
	}
	return o
}

// ValidateOwner rejects owners that set both or neither side. Empty strings
// count as unset.
func ValidateOwner(userID, groupID *string) error {
	hasUser := userID != nil && *userID != ""
	hasGroup := groupID != nil && *groupID != ""
	switch {
	case hasUser && hasGroup:
		return newError(KindAmbiguousOwner, "set either user_id or group_id, not both")
	case !hasUser && !hasGroup:
		return newError(KindNoOwner, "user_id or group_id is required")
	}
	return nil
}

// sameContext reports whether two owners are the same user or the same group.
func sameContext(a, b Owner) bool {
	switch {
	case a.UserID != nil && b.UserID != nil:
		return *a.UserID == *b.UserID
	case a.GroupID != nil && b.GroupID != nil:
		return *a.GroupID == *b.GroupID
	}
	return false
}
