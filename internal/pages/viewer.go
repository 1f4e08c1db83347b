package pages

import "github.com/MarcoPoloResearchLab/modelhub/internal/auth"

// Viewer is the optional session a page is rendered for. Handlers resolve it
// once per request and pass it to every page builder.
type Viewer struct {
	session *auth.Session
}

// SignedInViewer wraps a validated session.
func SignedInViewer(session auth.Session) Viewer {
	return Viewer{session: &session}
}

// AnonymousViewer is a viewer without a session.
func AnonymousViewer() Viewer {
	return Viewer{}
}

// Session returns the viewer's session, if any.
func (v Viewer) Session() (auth.Session, bool) {
	if v.session == nil {
		return auth.Session{}, false
	}
	return *v.session, true
}

// SignedIn reports whether the viewer has a session.
func (v Viewer) SignedIn() bool {
	return v.session != nil
}

// Name is the display label of the signed-in viewer, or empty.
func (v Viewer) Name() string {
	if v.session == nil {
		return ""
	}
	return v.session.Name()
}
