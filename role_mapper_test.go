package ssobridge

import (
	"testing"

	"github.com/setpar/sso-bridge/domain"
	"github.com/stretchr/testify/assert"
)

func TestMapRole(t *testing.T) {
	tests := []struct {
		name    string
		payload domain.SessionPayload
		want    domain.Role
	}{
		{name: "super admin flag", payload: domain.SessionPayload{SuperAdmin: true}, want: domain.RoleAdmin},
		{name: "owner flag", payload: domain.SessionPayload{Owner: true}, want: domain.RoleAdmin},
		{name: "elevated role string", payload: domain.SessionPayload{Role: "admin"}, want: domain.RoleAdmin},
		{name: "all signals", payload: domain.SessionPayload{SuperAdmin: true, Owner: true, Role: "admin"}, want: domain.RoleAdmin},
		{name: "no signals", payload: domain.SessionPayload{ExternalID: "U1"}, want: domain.RoleDefault},
		{name: "unrecognized role string", payload: domain.SessionPayload{Role: "manager"}, want: domain.RoleDefault},
		{name: "case sensitive role string", payload: domain.SessionPayload{Role: "Admin"}, want: domain.RoleDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapRole(&tt.payload))
		})
	}
}
