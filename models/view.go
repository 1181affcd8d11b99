package models

import "fmt"

// View identifies a navigable module of the dashboard
type View string

const (
	ViewDashboard    View = "dashboard"
	ViewSystems      View = "systems"
	ViewIdentity     View = "identity"
	ViewAnalytics    View = "analytics"
	ViewSettings     View = "settings"
	ViewClinic       View = "clinic"
	ViewLab          View = "lab"
	ViewPharmacy     View = "pharmacy"
	ViewTelemedicine View = "telemedicine"
	ViewDeveloper    View = "developer"
)

// ViewAccessDenied is the render target used in place of a view the
// current role may not see. It is never part of AllViews.
const ViewAccessDenied View = "access_denied"

var allViews = []View{
	ViewDashboard,
	ViewSystems,
	ViewIdentity,
	ViewAnalytics,
	ViewSettings,
	ViewClinic,
	ViewLab,
	ViewPharmacy,
	ViewTelemedicine,
	ViewDeveloper,
}

// AllViews returns every declared view in declaration order
func AllViews() []View {
	out := make([]View, len(allViews))
	copy(out, allViews)
	return out
}

// IsValid reports whether v is a declared view. The access-denied
// sentinel is not a valid view.
func (v View) IsValid() bool {
	for _, known := range allViews {
		if v == known {
			return true
		}
	}
	return false
}

// String returns the wire form of the view
func (v View) String() string {
	return string(v)
}

// ParseView converts a raw string into a declared View
func ParseView(s string) (View, error) {
	v := View(s)
	if !v.IsValid() {
		return "", fmt.Errorf("unknown view %q", s)
	}
	return v, nil
}
