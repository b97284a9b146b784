package models

// Role is the account role stored with a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// ViewerKind tags the identity a request is made under.
type ViewerKind int

const (
	ViewerAnonymous ViewerKind = iota
	ViewerUser
	ViewerAdmin
)

func (k ViewerKind) String() string {
	switch k {
	case ViewerAnonymous:
		return "anonymous"
	case ViewerUser:
		return "user"
	case ViewerAdmin:
		return "admin"
	}
	return "unknown"
}

// Viewer identifies who is acting: an anonymous caller, a signed-in user or
// an administrator. ID is empty for anonymous viewers.
type Viewer struct {
	Kind ViewerKind
	ID   string
}

func AnonymousViewer() Viewer {
	return Viewer{Kind: ViewerAnonymous}
}

func UserViewer(id string) Viewer {
	return Viewer{Kind: ViewerUser, ID: id}
}

func AdminViewer(id string) Viewer {
	return Viewer{Kind: ViewerAdmin, ID: id}
}

// ViewerFor builds the viewer for an authenticated account.
func ViewerFor(id string, role Role) Viewer {
	if role == RoleAdmin {
		return AdminViewer(id)
	}
	return UserViewer(id)
}

func (v Viewer) IsAdmin() bool {
	return v.Kind == ViewerAdmin
}

func (v Viewer) Authenticated() bool {
	return v.Kind != ViewerAnonymous && v.ID != ""
}

// Owns reports whether the viewer is the account identified by ownerID.
func (v Viewer) Owns(ownerID string) bool {
	return v.Authenticated() && ownerID != "" && v.ID == ownerID
}
