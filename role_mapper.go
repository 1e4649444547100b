package ssobridge

import "github.com/setpar/sso-bridge/domain"

// elevatedRoleClaim is the external role string recognized as elevated.
const elevatedRoleClaim = "admin"

// MapRole maps the payload's privilege signals onto one of the two local
// roles. Stateless and deterministic: super-admin flag, owner flag, or an
// elevated role claim yield RoleAdmin, everything else RoleDefault.
func MapRole(payload *domain.SessionPayload) domain.Role {
	if payload.SuperAdmin || payload.Owner || payload.Role == elevatedRoleClaim {
		return domain.RoleAdmin
	}
	return domain.RoleDefault
}
