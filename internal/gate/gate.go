// Package gate decides which screens are reachable for a given session, as a
// declarative table over (authenticated, role, profile complete) rather than
// conditionals scattered through a navigation tree.
package gate

import "clinic-client/internal/model"

// Screen names one navigable surface of the client.
type Screen string

const (
	ScreenLogin            Screen = "login"
	ScreenRegister         Screen = "register"
	ScreenPatientInfo      Screen = "patient-info"
	ScreenHome             Screen = "home"
	ScreenNewSubmission    Screen = "new-submission"
	ScreenSubmissionDetail Screen = "submission-detail"
	ScreenLogout           Screen = "logout"
)

// State is the input to the gating decision.
type State struct {
	Authenticated   bool
	Role            model.Role
	ProfileComplete bool
}

var (
	anonymousScreens  = []Screen{ScreenLogin, ScreenRegister}
	incompleteScreens = []Screen{ScreenPatientInfo, ScreenLogout}
	mainScreens       = []Screen{ScreenHome, ScreenSubmissionDetail, ScreenNewSubmission, ScreenLogout}
)

// Visible returns the screen set for the state. An authenticated patient with
// an incomplete profile is held on the patient-info surface until the profile
// is filled in; doctors are never gated on profile fields.
func Visible(s State) []Screen {
	switch {
	case !s.Authenticated:
		return clone(anonymousScreens)
	case s.Role == model.RolePatient && !s.ProfileComplete:
		return clone(incompleteScreens)
	default:
		return clone(mainScreens)
	}
}

// Allows reports whether the screen is in the visible set for the state.
func Allows(s State, screen Screen) bool {
	for _, v := range Visible(s) {
		if v == screen {
			return true
		}
	}
	return false
}

func clone(s []Screen) []Screen {
	return append([]Screen(nil), s...)
}
