package postgres

import (
	"github.com/maestros-hub/maestros-community-backend/internal/domain/application"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/audit"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/member"
)

// Each repository must keep satisfying its domain port; a signature drift
// here breaks both binaries at the wiring sites.
var (
	_ application.Repository = (*ApplicationRepository)(nil)
	_ member.Repository      = (*MemberRepository)(nil)
	_ audit.Repository       = (*AuditRepository)(nil)
)
