package enums

import "strings"

// UserType separates buyers from partners operating a shop.
type UserType string

const (
	UserTypeBuyer UserType = "buyer"
	UserTypeShop  UserType = "shop"
)

var userTypes = set[UserType]{UserTypeBuyer, UserTypeShop}

func (u UserType) String() string { return string(u) }

func (u UserType) IsValid() bool { return userTypes.has(u) }

// ParseUserType is case-insensitive. Empty input defaults to buyer.
func ParseUserType(value string) (UserType, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return UserTypeBuyer, nil
	}
	return userTypes.parse("user type", normalized)
}
