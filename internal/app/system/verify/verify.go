// Package verify runs the post-creation verification pipeline: duplicate
// detection against recent reports, severity classification, and the initial
// responder match. The pipeline is detached from the create-report request so
// submitters never wait on collaborator services.
package verify

import (
	"context"
	"fmt"
	"strings"
	"time"

	reportstore "github.com/rashikacodes/pulstrix/internal/app/store/reports"
	"github.com/rashikacodes/pulstrix/internal/app/system/match"
	"github.com/rashikacodes/pulstrix/internal/app/system/mlclient"
	"github.com/rashikacodes/pulstrix/internal/app/system/notify"
	"github.com/rashikacodes/pulstrix/internal/domain/models"
	"go.uber.org/zap"
)

const (
	// textWindow and textRadius bound the search for the original of a
	// textual duplicate: same vicinity, reported within the last few hours.
	textWindow = 3 * time.Hour
	textRadius = 2000.0 // meters

	// imageWindow bounds which earlier report images are compared against a
	// new report's image.
	imageWindow = 24 * time.Hour

	// runTimeout caps one detached pipeline run end to end.
	runTimeout = 2 * time.Minute
)

// criticalKeywords force severity high when the classifier is unreachable.
var criticalKeywords = []string{"fire", "blood", "explosion", "dead", "collapse"}

// Runner executes the verification pipeline for newly created reports.
type Runner struct {
	reports  *reportstore.Store
	ml       *mlclient.Client
	matcher  *match.Engine
	notifier *notify.Notifier
	log      *zap.Logger
}

// NewRunner builds a pipeline runner over the given collaborators.
func NewRunner(reports *reportstore.Store, ml *mlclient.Client, matcher *match.Engine, notifier *notify.Notifier, logger *zap.Logger) *Runner {
	return &Runner{reports: reports, ml: ml, matcher: matcher, notifier: notifier, log: logger}
}

// Run verifies the report in a detached goroutine. Panics are contained so a
// pipeline failure can never take the server down with it.
func (r *Runner) Run(report models.Report) {
	go func() {
		defer func() {
			if p := recover(); p != nil {
				r.log.Error("verification pipeline panicked",
					zap.String("report_id", report.ID.Hex()),
					zap.Any("panic", p))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()

		if err := r.Verify(ctx, report); err != nil {
			r.log.Error("verification pipeline failed",
				zap.String("report_id", report.ID.Hex()),
				zap.Error(err))
		}
	}()
}

// Verify runs the pipeline synchronously: dedup, severity, match. It is safe
// to call again for the same report; anything past unverified is a no-op, so
// a redelivered or replayed report cannot be dispatched twice.
func (r *Runner) Verify(ctx context.Context, report models.Report) error {
	if report.Status != models.StatusUnverified {
		return nil
	}

	if original, dup := r.findDuplicate(ctx, report); dup {
		return r.resolveDuplicate(ctx, report, original)
	}

	severity := r.classifySeverity(ctx, report)
	if severity != report.Severity {
		if _, err := r.reports.SetSeverity(ctx, report.ID, severity); err != nil {
			return err
		}
		report.Severity = severity
	}

	responder, err := r.matcher.Match(ctx, &report)
	if err != nil {
		return err
	}
	if responder == nil {
		// No responder of the department exists yet; the report stays
		// unverified and shows up again when one registers.
		return nil
	}

	r.notifier.Send(notify.Target{UserID: responder.ID.Hex()}, notify.Payload{
		Title: "New incident reported",
		Body:  fmt.Sprintf("A %s report near you needs assignment.", report.Category),
		URL:   "/reports/" + report.ID.Hex(),
	})
	return nil
}

// findDuplicate checks the report against recent reports, first by
// description, then by image. It returns the original when one can be
// located; a duplicate verdict without a locatable original is discarded,
// since resolving against nothing would silently drop the report.
// Collaborator failures degrade to "not a duplicate".
func (r *Runner) findDuplicate(ctx context.Context, report models.Report) (*models.Report, bool) {
	if strings.TrimSpace(report.Description) != "" {
		dup, err := r.ml.CheckTextDuplicate(ctx, report.Description, report.Location.Lat(), report.Location.Lng())
		if err != nil {
			r.log.Warn("text dedup unavailable, skipping",
				zap.String("report_id", report.ID.Hex()), zap.Error(err))
		} else if dup {
			since := time.Now().UTC().Add(-textWindow)
			original, err := r.reports.MostRecentNear(ctx, report.Location, textRadius, since, report.ID)
			if err != nil {
				r.log.Warn("original lookup failed after text dedup hit",
					zap.String("report_id", report.ID.Hex()), zap.Error(err))
			} else if original != nil {
				return original, true
			} else {
				r.log.Info("text dedup hit but no original in window, keeping report",
					zap.String("report_id", report.ID.Hex()))
			}
		}
	}

	if report.Image == "" {
		return nil, false
	}

	since := time.Now().UTC().Add(-imageWindow)
	candidates, err := r.reports.RecentWithImages(ctx, since, report.ID)
	if err != nil {
		r.log.Warn("image candidate lookup failed, skipping image dedup",
			zap.String("report_id", report.ID.Hex()), zap.Error(err))
		return nil, false
	}
	if len(candidates) == 0 {
		return nil, false
	}

	refs := make([]mlclient.ImageRef, 0, len(candidates))
	for _, c := range candidates {
		refs = append(refs, imageRef(c))
	}

	matches, err := r.ml.CheckImageDuplicate(ctx, imageRef(report), refs)
	if err != nil {
		r.log.Warn("image dedup unavailable, skipping",
			zap.String("report_id", report.ID.Hex()), zap.Error(err))
		return nil, false
	}

	// Several candidates can come back as the same incident; the one the
	// service scored highest is the duplicate target.
	var best *mlclient.ImageMatch
	for i := range matches {
		if matches[i].Decision != mlclient.DecisionSameIncident {
			continue
		}
		if best == nil || matches[i].SimilarityScore > best.SimilarityScore {
			best = &matches[i]
		}
	}
	if best == nil {
		return nil, false
	}
	for i := range candidates {
		if candidates[i].ID.Hex() == best.IncidentID {
			return &candidates[i], true
		}
	}
	return nil, false
}

func (r *Runner) resolveDuplicate(ctx context.Context, report models.Report, original *models.Report) error {
	note := fmt.Sprintf("Duplicate of report %s; resolved automatically.", original.ID.Hex())
	if err := r.reports.ResolveAsDuplicate(ctx, report.ID, note); err != nil {
		return err
	}
	if err := r.reports.IncrementDuplicates(ctx, original.ID); err != nil {
		r.log.Warn("failed to bump duplicate count on original",
			zap.String("original_id", original.ID.Hex()), zap.Error(err))
	}

	r.log.Info("report resolved as duplicate",
		zap.String("report_id", report.ID.Hex()),
		zap.String("original_id", original.ID.Hex()))

	r.notifier.Send(notify.Target{UserID: report.SessionID}, notify.Payload{
		Title: "Incident already reported",
		Body:  "This incident has already been reported and is being handled.",
		URL:   "/reports/" + original.ID.Hex(),
	})
	return nil
}

// classifySeverity asks the priority service for a label and falls back to a
// keyword scan of the description when the service cannot answer.
func (r *Runner) classifySeverity(ctx context.Context, report models.Report) string {
	res, err := r.ml.ClassifyPriority(ctx, report.ID.Hex(), report.Category, report.Description, report.Image != "")
	if err != nil {
		r.log.Warn("priority service unavailable, using keyword heuristic",
			zap.String("report_id", report.ID.Hex()), zap.Error(err))
		return KeywordSeverity(report.Description, report.Severity)
	}

	switch strings.ToUpper(res.Priority) {
	case "HIGH":
		return models.SeverityHigh
	case "MEDIUM":
		return models.SeverityMedium
	case "LOW":
		return models.SeverityLow
	default:
		r.log.Warn("priority service returned unknown label",
			zap.String("report_id", report.ID.Hex()),
			zap.String("priority", res.Priority))
		return KeywordSeverity(report.Description, report.Severity)
	}
}

// KeywordSeverity escalates to high when the description mentions a critical
// keyword, otherwise keeps the current severity.
func KeywordSeverity(description, current string) string {
	lower := strings.ToLower(description)
	for _, kw := range criticalKeywords {
		if strings.Contains(lower, kw) {
			return models.SeverityHigh
		}
	}
	return current
}

func imageRef(rep models.Report) mlclient.ImageRef {
	return mlclient.ImageRef{
		ImageID:    rep.ID.Hex(),
		IncidentID: rep.ID.Hex(),
		ImageURL:   rep.Image,
		Latitude:   rep.Location.Lat(),
		Longitude:  rep.Location.Lng(),
		Timestamp:  rep.CreatedAt.UTC().Format(time.RFC3339),
	}
}
