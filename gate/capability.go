package gate

import (
	"library-admin/library"
	"library-admin/session"
)

// CanManage reports whether role may create, edit or delete records of
// entity. Lending (lend and return) is open to every authenticated role.
func CanManage(entity library.Entity, role session.Role) bool {
	switch entity {
	case library.EntityBooks, library.EntityAuthors, library.EntityPublishers, library.EntityUsers:
		return role.Is(session.RoleAdmin)
	case library.EntityLending:
		_, ok := session.ParseRole(string(role))
		return ok
	default:
		return false
	}
}

// CanView reports whether role may open the section at all.
func CanView(entity library.Entity, role session.Role) bool {
	if _, ok := session.ParseRole(string(role)); !ok {
		return false
	}
	if entity == library.EntityUsers {
		return role.Is(session.RoleAdmin)
	}
	return true
}

// Required is the role a section's pages demand from the gate, or "".
func Required(entity library.Entity) session.Role {
	if entity == library.EntityUsers {
		return session.RoleAdmin
	}
	return ""
}

// Sections is the navigation menu for role, in menu order.
func Sections(role session.Role) []library.Entity {
	var out []library.Entity
	for _, e := range library.Entities {
		if CanView(e, role) {
			out = append(out, e)
		}
	}
	return out
}
