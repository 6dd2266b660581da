// internal/app/system/authz/authz.go

// Package authz decides whether a principal may act on a resource.
//
// Evaluate is a pure function over the resource snapshot passed in: it
// performs no I/O and holds no state. Callers fetch a fresh record
// immediately before evaluating so the decision never reflects stale
// visibility or sharing data.
package authz

import (
	"strings"

	"github.com/dalemusser/stratadrive/internal/domain/models"
)

// Level is the access level an operation requires.
type Level int

const (
	// LevelRead covers content reads: download, view, list, clone source.
	LevelRead Level = iota + 1
	// LevelEdit covers content writes by collaborators.
	LevelEdit
	// LevelOwn covers governance: visibility, sharing, rename, deletion.
	// Only ownership satisfies it; public visibility and sharing grants
	// never do.
	LevelOwn
)

func (l Level) String() string {
	switch l {
	case LevelRead:
		return "read"
	case LevelEdit:
		return "edit"
	case LevelOwn:
		return "own"
	default:
		return "unknown"
	}
}

// Decision is the outcome of a permission evaluation.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow(reason string) Decision { return Decision{Allowed: true, Reason: reason} }

// Deny is the uniform denial. The reason is deliberately unspecific so it
// can be surfaced to callers without leaking whether the resource is shared
// with anyone else.
func Deny() Decision { return Decision{Allowed: false, Reason: "access denied"} }

// grantLevel maps a sharing role to the highest level it satisfies.
// Grants never reach LevelOwn.
func grantLevel(role models.ShareRole) Level {
	switch role {
	case models.ShareRoleEditor:
		return LevelEdit
	case models.ShareRoleViewer:
		return LevelRead
	default:
		return 0
	}
}

// Evaluate decides whether p may act on r at the required level.
//
// Rules short-circuit in order: ownership grants everything; public
// visibility grants reads to anyone; a sharing grant for p's email grants
// up to the grant's level. Everything else is denied. File and Folder
// variants are gated identically through the models.Resource view.
func Evaluate(p models.Principal, r models.Resource, required Level) Decision {
	if r.Owner() == p.ID {
		return allow("owner")
	}
	if required == LevelRead && r.Public() {
		return allow("public")
	}
	for _, g := range r.Grants() {
		// Grants are stored folded, but the authentication layer may hand
		// us a mixed-case email. Match case-insensitively.
		if strings.EqualFold(g.Email, p.Email) && grantLevel(g.Role) >= required {
			return allow("shared:" + string(g.Role))
		}
	}
	return Deny()
}

// CanRead reports whether p may read r.
func CanRead(p models.Principal, r models.Resource) bool {
	return Evaluate(p, r, LevelRead).Allowed
}

// CanGovern reports whether p holds governance rights over r.
func CanGovern(p models.Principal, r models.Resource) bool {
	return Evaluate(p, r, LevelOwn).Allowed
}
