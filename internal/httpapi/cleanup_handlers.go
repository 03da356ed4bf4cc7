package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"horse.fit/dealsweep/internal/dedup"
)

type cleanupRequest struct {
	Strategy          string `json:"strategy,omitempty"`
	Days              int    `json:"days,omitempty"`
	Date              string `json:"date,omitempty"`
	MaxDeletions      int    `json:"max_deletions,omitempty"`
	ConfirmationToken string `json:"confirmation_token,omitempty"`
}

type skippedDeletionResponse struct {
	ArticleID int64  `json:"article_id"`
	Reason    string `json:"reason"`
}

type runReportResponse struct {
	RunID             string                    `json:"run_id"`
	Mode              string                    `json:"mode"`
	State             string                    `json:"state"`
	StartedAt         time.Time                 `json:"started_at"`
	FinishedAt        time.Time                 `json:"finished_at"`
	Analyzed          int                       `json:"analyzed"`
	PairsScored       int                       `json:"pairs_scored"`
	Escalated         int                       `json:"escalated"`
	SemanticOverrides int                       `json:"semantic_overrides"`
	GroupsFound       int                       `json:"groups_found"`
	RedundantCount    int                       `json:"redundant_count"`
	Deleted           int                       `json:"deleted"`
	FailedDeletions   int                       `json:"failed_deletions"`
	PartiallyApplied  bool                      `json:"partially_applied"`
	RejectedReasons   []string                  `json:"rejected_reasons,omitempty"`
	Skipped           []skippedDeletionResponse `json:"skipped,omitempty"`
	GroupRationales   []string                  `json:"group_rationales,omitempty"`
}

func (s *Server) handleCleanupPreview(c echo.Context) error {
	return s.handleCleanupRun(c, dedup.ModePreview)
}

func (s *Server) handleCleanupApply(c echo.Context) error {
	return s.handleCleanupRun(c, dedup.ModeApply)
}

func (s *Server) handleCleanupRun(c echo.Context, mode dedup.Mode) error {
	if s.runner == nil {
		return fail(c, http.StatusServiceUnavailable, "Cleanup runner is not available", nil)
	}

	var req cleanupRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}

	window, err := parseWindowRequest(req)
	if err != nil {
		return failValidation(c, map[string]string{"window": err.Error()})
	}

	report, err := s.runner.Run(c.Request().Context(), dedup.RunRequest{
		Window:            window,
		Mode:              mode,
		Limits:            dedup.Limits{MaxDeletions: req.MaxDeletions},
		ConfirmationToken: req.ConfirmationToken,
	})
	if err != nil {
		if errors.Is(err, dedup.ErrRunActive) {
			return fail(c, http.StatusConflict, "A cleanup run is already active", nil)
		}
		s.logger.Error().Err(err).Str("mode", string(mode)).Msg("cleanup run failed")
		return internalError(c, "Cleanup run failed")
	}

	return success(c, toRunReportResponse(report))
}

func parseWindowRequest(req cleanupRequest) (dedup.Window, error) {
	days := req.Days
	if days <= 0 {
		days = 7
	}

	strategy := strings.TrimSpace(strings.ToLower(req.Strategy))
	switch strategy {
	case "", string(dedup.WindowRecency):
		return dedup.Window{Strategy: dedup.WindowRecency, Days: days}, nil
	case string(dedup.WindowPublicationDate):
		date, err := time.Parse("2006-01-02", strings.TrimSpace(req.Date))
		if err != nil {
			return dedup.Window{}, fmt.Errorf("date must be YYYY-MM-DD for the publication-date strategy")
		}
		return dedup.Window{Strategy: dedup.WindowPublicationDate, Days: days, Date: date.UTC()}, nil
	default:
		return dedup.Window{}, fmt.Errorf("strategy must be recency or publication-date")
	}
}

func toRunReportResponse(report dedup.RunReport) runReportResponse {
	resp := runReportResponse{
		RunID:             report.RunID,
		Mode:              string(report.Mode),
		State:             string(report.State),
		StartedAt:         report.StartedAt,
		FinishedAt:        report.FinishedAt,
		Analyzed:          report.Analyzed,
		PairsScored:       report.PairsScored,
		Escalated:         report.Escalated,
		SemanticOverrides: report.SemanticOverrides,
		GroupsFound:       report.GroupsFound,
		RedundantCount:    report.RedundantCount,
		Deleted:           report.Deleted,
		FailedDeletions:   report.FailedDeletions,
		PartiallyApplied:  report.PartiallyApplied,
		RejectedReasons:   report.RejectedReasons,
		GroupRationales:   report.GroupRationales,
	}
	for _, skipped := range report.Skipped {
		resp.Skipped = append(resp.Skipped, skippedDeletionResponse{
			ArticleID: skipped.ArticleID,
			Reason:    skipped.Reason,
		})
	}
	return resp
}

func decodeJSONBody(c echo.Context, dest any) error {
	decoder := json.NewDecoder(c.Request().Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("request body must be valid JSON")
	}
	return nil
}
