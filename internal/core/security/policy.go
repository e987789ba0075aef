package security

import "github.com/sollo/sheet-admin/internal/core/domain"

// Operation names a gated action.
type Operation string

const (
	OpLogout        Operation = "logout"
	OpListUsers     Operation = "users.list"
	OpCreateUser    Operation = "users.create"
	OpUpdateUser    Operation = "users.update"
	OpDeleteUser    Operation = "users.delete"
	OpListRecords   Operation = "records.list"
	OpCreateRecord  Operation = "records.create"
	OpUpdateRecord  Operation = "records.update"
	OpDeleteRecord  Operation = "records.delete"
	OpImportRecords Operation = "records.import"
)

// policy maps each operation to the roles allowed to run it.
var policy = map[Operation][]domain.Role{
	OpLogout:        {domain.RoleAdmin, domain.RoleUser},
	OpListUsers:     {domain.RoleAdmin},
	OpCreateUser:    {domain.RoleAdmin},
	OpUpdateUser:    {domain.RoleAdmin},
	OpDeleteUser:    {domain.RoleAdmin},
	OpListRecords:   {domain.RoleAdmin, domain.RoleUser},
	OpCreateRecord:  {domain.RoleAdmin, domain.RoleUser},
	OpUpdateRecord:  {domain.RoleAdmin, domain.RoleUser},
	OpDeleteRecord:  {domain.RoleAdmin},
	OpImportRecords: {domain.RoleAdmin, domain.RoleUser},
}

// IsAuthorized reports whether claims may run op. Nil claims and unknown
// operations are denied.
func IsAuthorized(claims *domain.Claims, op Operation) bool {
	if claims == nil {
		return false
	}
	for _, r := range policy[op] {
		if r == claims.Role {
			return true
		}
	}
	return false
}
