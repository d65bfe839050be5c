// Package match implements the matching engine: given a report's category
// and location, it selects the single nearest responder of the mapped
// department and records it as the report's owner.
//
// Besides the forwarding protocol, this is the only code that appends to a
// report's ownership trail.
package match

import (
	"context"
	"math"

	reportstore "github.com/rashikacodes/pulstrix/internal/app/store/reports"
	responderstore "github.com/rashikacodes/pulstrix/internal/app/store/responders"
	"github.com/rashikacodes/pulstrix/internal/domain/models"
	"go.uber.org/zap"
)

// Departments (values stored on responder documents).
const (
	DeptFire     = "Fire Department"
	DeptTraffic  = "Traffic Police"
	DeptHealth   = "Health Department"
	DeptPolice   = "Police Department"
	DeptDisaster = "Disaster Management"
	DeptWorks    = "Public Works Department"
	DeptGeneral  = "General"
)

// Departments lists every department a responder may register under.
var Departments = []string{
	DeptFire, DeptTraffic, DeptHealth, DeptPolice, DeptDisaster, DeptWorks, DeptGeneral,
}

// IsValidDepartment reports whether d is a known department.
func IsValidDepartment(d string) bool {
	for _, known := range Departments {
		if d == known {
			return true
		}
	}
	return false
}

// departmentTable maps each report category to exactly one department.
var departmentTable = map[string]string{
	models.CategoryFire:          DeptFire,
	models.CategoryRoadAccident:  DeptTraffic,
	models.CategoryMedical:       DeptHealth,
	models.CategoryCrime:         DeptPolice,
	models.CategoryDisaster:      DeptDisaster,
	models.CategoryInfraCollapse: DeptWorks,
	models.CategoryOther:         DeptGeneral,
}

// DepartmentFor returns the department responsible for a report category.
// Unknown categories fall through to the general department.
func DepartmentFor(category string) string {
	if d, ok := departmentTable[category]; ok {
		return d
	}
	return DeptGeneral
}

// candidateLimit bounds the proximity query; only the nearest few are needed
// to break distance ties deterministically.
const candidateLimit = 5

// Engine selects the nearest eligible responder for a report.
type Engine struct {
	responders *responderstore.Store
	reports    *reportstore.Store
	log        *zap.Logger
}

// NewEngine builds a matching engine over the given stores.
func NewEngine(responders *responderstore.Store, reports *reportstore.Store, logger *zap.Logger) *Engine {
	return &Engine{responders: responders, reports: reports, log: logger}
}

// Match finds the nearest responder for the report's category and location
// and appends it as owner, transitioning the report unverified→assigning.
//
// Returns (nil, nil) when no responder of the department exists: the report
// stays unverified, which is a reportable condition rather than an error.
// Returns (responder, nil) with the report untouched when a concurrent
// transition already moved the report out of unverified.
func (e *Engine) Match(ctx context.Context, report *models.Report) (*models.Responder, error) {
	department := DepartmentFor(report.Category)

	candidates, err := e.responders.NearestByDepartment(ctx, department, report.Location, candidateLimit)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		e.log.Warn("no responder available for report",
			zap.String("report_id", report.ID.Hex()),
			zap.String("department", department))
		return nil, nil
	}

	chosen := Nearest(candidates, report.Location)

	attached, err := e.reports.AttachResponder(ctx, report.ID, chosen.ID, models.StatusUnverified)
	if err != nil {
		return nil, err
	}
	if !attached {
		e.log.Info("report left unverified state before match could attach",
			zap.String("report_id", report.ID.Hex()))
		return &chosen, nil
	}

	e.log.Info("report matched to responder",
		zap.String("report_id", report.ID.Hex()),
		zap.String("responder_id", chosen.ID.Hex()),
		zap.String("department", department))
	return &chosen, nil
}

// Nearest picks the closest responder to loc from a non-empty candidate
// slice. Distance ties are broken by ObjectID order so selection stays
// deterministic. The slice normally arrives pre-sorted by $near, but the
// distances are recomputed here so the tie-break does not depend on server
// ordering.
func Nearest(candidates []models.Responder, loc models.GeoPoint) models.Responder {
	best := candidates[0]
	bestDist := DistanceMeters(best.Location, loc)

	for _, c := range candidates[1:] {
		d := DistanceMeters(c.Location, loc)
		switch {
		case d < bestDist:
			best, bestDist = c, d
		case d == bestDist && c.ID.Hex() < best.ID.Hex():
			best = c
		}
	}
	return best
}

// DistanceMeters returns the haversine distance between two points.
func DistanceMeters(a, b models.GeoPoint) float64 {
	const earthRadiusMeters = 6371000.0

	lat1 := a.Lat() * math.Pi / 180
	lat2 := b.Lat() * math.Pi / 180
	dLat := (b.Lat() - a.Lat()) * math.Pi / 180
	dLng := (b.Lng() - a.Lng()) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
