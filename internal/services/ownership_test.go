package services

import "testing"

func TestValidateOwner(t *testing.T) {
	user, group, empty := "user-1", "group-1", ""
	cases := []struct {
		name    string
		userID  *string
		groupID *string
		want    Kind
	}{
		{"personal", &user, nil, ""},
		{"group", nil, &group, ""},
		{"both", &user, &group, KindAmbiguousOwner},
		{"neither", nil, nil, KindNoOwner},
		{"empty strings", &empty, &empty, KindNoOwner},
		{"empty user with group", &empty, &group, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := KindOf(ValidateOwner(tc.userID, tc.groupID)); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestSameContext(t *testing.T) {
	if !sameContext(PersonalOwner("u"), PersonalOwner("u")) {
		t.Fatal("expected same personal owner")
	}
	if sameContext(PersonalOwner("u"), GroupOwner("u")) {
		t.Fatal("personal and group owners never match")
	}
	if sameContext(GroupOwner("g-1"), GroupOwner("g-2")) {
		t.Fatal("different groups must not match")
	}
}
