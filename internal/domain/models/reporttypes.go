// internal/domain/models/reporttypes.go
package models

// Canonical incident category identifiers.
//
// These values are stored in the database in the Report.Category field and
// are used throughout the application as stable, language-agnostic keys.
// Human-facing labels should be provided by the consuming UI.
const (
	CategoryFire          = "fire"
	CategoryRoadAccident  = "road_accident"
	CategoryMedical       = "medical"
	CategoryCrime         = "crime"
	CategoryDisaster      = "disaster"
	CategoryInfraCollapse = "infrastructure_collapse"
	CategoryOther         = "other"
)

// Categories is the full set of allowed incident categories.
//
// This slice is the single source of truth for validation. Any new category
// must be added here (and given a department in the matching table) to be
// considered valid.
var Categories = []string{
	CategoryFire,
	CategoryRoadAccident,
	CategoryMedical,
	CategoryCrime,
	CategoryDisaster,
	CategoryInfraCollapse,
	CategoryOther,
}

// IsValidCategory reports whether c is one of the allowed categories.
func IsValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// Report severity levels.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// Severities is the full set of allowed severities.
var Severities = []string{SeverityHigh, SeverityMedium, SeverityLow}

// IsValidSeverity reports whether s is one of the allowed severities.
func IsValidSeverity(s string) bool {
	return s == SeverityHigh || s == SeverityMedium || s == SeverityLow
}

// DefaultSeverity is applied when a new report carries no severity.
const DefaultSeverity = SeverityLow

// Report lifecycle statuses.
//
// A report starts unverified, moves to assigning once the verification
// pipeline attaches a responder, and to assigned when an employee accepts.
// verified is the explicit "dispatchable but nobody available" side state the
// assignment protocol falls back to when a responder runs out of idle
// employees. resolved is terminal.
const (
	StatusUnverified = "unverified"
	StatusVerified   = "verified"
	StatusAssigning  = "assigning"
	StatusAssigned   = "assigned"
	StatusResolved   = "resolved"
)

// Statuses is the full set of allowed report statuses.
var Statuses = []string{
	StatusUnverified,
	StatusVerified,
	StatusAssigning,
	StatusAssigned,
	StatusResolved,
}

// IsValidStatus reports whether s is one of the allowed statuses.
func IsValidStatus(s string) bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

// Employee duty statuses.
const (
	EmployeeIdle = "idle"
	EmployeeBusy = "busy"
)

// Vote actions accepted by the voting endpoint.
const (
	VoteUp   = "upvote"
	VoteDown = "downvote"
)

// Assignment response actions.
const (
	ActionAccept = "accept"
	ActionReject = "reject"
	ActionPass   = "pass"
)
