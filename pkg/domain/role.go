package domain

import (
	dErrors "tradematch/pkg/domain-errors"
)

// Role is the single strongly-typed role of a principal. It is resolved once
// when the principal is constructed (token issue or validation) and passed
// explicitly into every call; business logic never re-derives it from raw
// profile metadata.
type Role string

const (
	RoleCandidate Role = "candidate"
	RoleEmployer  Role = "employer"
	RoleAdmin     Role = "admin"
)

// ParseRole validates a raw role string from storage or token claims.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleCandidate, RoleEmployer, RoleAdmin:
		return Role(s), nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown role %q", s)
	}
}

// Principal is an authenticated actor: a user id plus its resolved role.
type Principal struct {
	UserID UserID
	Role   Role
}

// IsValid reports whether the principal carries a real user and role.
func (p Principal) IsValid() bool {
	return !p.UserID.IsNil() && (p.Role == RoleCandidate || p.Role == RoleEmployer || p.Role == RoleAdmin)
}
