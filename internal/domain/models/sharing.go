package models

// ShareRole is the role a sharing grant confers on a non-owner principal.
type ShareRole string

const (
	// ShareRoleViewer grants read access to the resource's content.
	ShareRoleViewer ShareRole = "viewer"
	// ShareRoleEditor grants read and write access to the resource's
	// content. Editors never gain governance rights (visibility, sharing,
	// rename, deletion); those remain owner-exclusive.
	ShareRoleEditor ShareRole = "editor"
)

// Valid reports whether the role is one of the known sharing roles.
func (r ShareRole) Valid() bool {
	return r == ShareRoleViewer || r == ShareRoleEditor
}

// ShareGrant authorizes the principal with the given email to act on a
// resource with the given role. A resource holds at most one grant per
// email; replacing the grant set is a wholesale operation (last write wins).
type ShareGrant struct {
	Email string    `bson:"email"`
	Role  ShareRole `bson:"role"`
}
