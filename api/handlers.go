/*
handlers.go - HTTP API handlers for the participation-rate engine

PURPOSE:
  Exposes the participation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to the pure
  functions in package participation.

ENDPOINTS:
  Assignments:
    GET    /api/assignments                      List (optional ?member_id=)
    POST   /api/assignments                      Create or replace one
    POST   /api/assignments/import               Replace the whole snapshot
    GET    /api/assignments/{id}                 Get one
    DELETE /api/assignments/{id}                 Delete one

  Risk:
    GET    /api/summaries                        Classified, sorted members
    GET    /api/members/{id}/summary             One member
    GET    /api/members/{id}/affected-projects   Projects touched by an HR event
    GET    /api/report                           Report contract
    GET    /api/cross-verify                     Cross-verification groups
    GET    /api/matrix                           Settlement-system risk matrix

  Ruleset:
    GET    /api/ruleset                          Current ruleset document
    PUT    /api/ruleset                          Replace (JSON or YAML body)

  Snapshots:
    GET    /api/snapshots                        Archived reports, newest first
    POST   /api/snapshots                        Archive the current report

ARCHITECTURE:
  Handler holds the store, the active ruleset and a clock. Every computing
  endpoint loads the full snapshot from the store and runs the engine on it;
  nothing is cached between requests. Only the ruleset is shared mutable
  state and it sits behind a RWMutex.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, invalid ruleset
  - 404: Assignment or member not found
  - 409: Structural duplicate in the snapshot
  - 500: Internal errors (logged)

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - scheduler.go: Periodic snapshot job
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/warp/participation-engine/factory"
	"github.com/warp/participation-engine/participation"
)

// maxBodyBytes bounds request bodies, snapshot imports included.
const maxBodyBytes = 8 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is everything the handlers persist through.
type Store interface {
	participation.AssignmentStore
	participation.SnapshotStore
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store Store
	Log   zerolog.Logger

	// Now and NewID are replaceable for tests.
	Now   func() time.Time
	NewID func() string

	validate *validator.Validate

	mu      sync.RWMutex
	ruleset participation.Ruleset

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a handler serving the given ruleset.
func NewHandler(store Store, rs participation.Ruleset, log zerolog.Logger) *Handler {
	return &Handler{
		Store:    store,
		Log:      log.With().Str("component", "api").Logger(),
		Now:      time.Now,
		NewID:    uuid.NewString,
		validate: validator.New(),
		ruleset:  rs,
	}
}

// Ruleset returns the active ruleset.
func (h *Handler) Ruleset() participation.Ruleset {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ruleset
}

// SetRuleset validates and swaps the active ruleset.
func (h *Handler) SetRuleset(rs participation.Ruleset) error {
	if err := rs.Validate(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ruleset = rs
	return nil
}

func (h *Handler) engine() *participation.Engine {
	return &participation.Engine{Ruleset: h.Ruleset(), Now: h.Now}
}

// =============================================================================
// ASSIGNMENT HANDLERS
// =============================================================================

// ListAssignments returns the snapshot, or one member's part of it.
func (h *Handler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	var (
		as  []participation.Assignment
		err error
	)
	if member := strings.TrimSpace(r.URL.Query().Get("member_id")); member != "" {
		as, err = h.Store.ListByMember(r.Context(), participation.MemberID(member))
	} else {
		as, err = h.Store.ListAssignments(r.Context())
	}
	if err != nil {
		h.internalError(w, "Failed to list assignments", err)
		return
	}
	writeJSON(w, http.StatusOK, toAssignmentDTOs(as))
}

// CreateAssignment creates or replaces one assignment.
func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req AssignmentRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = h.NewID()
	}
	a, err := toAssignment(req, id, h.Now())
	if err != nil {
		h.writeDomainError(w, "Invalid assignment", err)
		return
	}
	if err := participation.Validate(a); err != nil {
		h.writeDomainError(w, "Invalid assignment", err)
		return
	}

	// The record must not create a structural duplicate in the snapshot.
	existing, err := h.Store.ListAssignments(r.Context())
	if err != nil {
		h.internalError(w, "Failed to load assignments", err)
		return
	}
	if err := participation.ValidateSnapshot(withReplaced(existing, a)); err != nil {
		h.writeDomainError(w, "Assignment conflicts with the snapshot", err)
		return
	}

	if err := h.Store.SaveAssignment(r.Context(), a); err != nil {
		h.internalError(w, "Failed to save assignment", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAssignmentDTO(a))
}

// withReplaced returns the snapshot as it would be after saving a.
func withReplaced(as []participation.Assignment, a participation.Assignment) []participation.Assignment {
	out := make([]participation.Assignment, 0, len(as)+1)
	replaced := false
	for _, existing := range as {
		if existing.ID == a.ID {
			out = append(out, a)
			replaced = true
			continue
		}
		out = append(out, existing)
	}
	if !replaced {
		out = append(out, a)
	}
	return out
}

// ImportAssignments replaces the whole snapshot after validating it as one.
func (h *Handler) ImportAssignments(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	now := h.Now()
	as := make([]participation.Assignment, 0, len(req.Assignments))
	for _, ar := range req.Assignments {
		id := strings.TrimSpace(ar.ID)
		if id == "" {
			id = h.NewID()
		}
		a, err := toAssignment(ar, id, now)
		if err != nil {
			h.writeDomainError(w, "Invalid assignment", err)
			return
		}
		as = append(as, a)
	}
	if err := participation.ValidateSnapshot(as); err != nil {
		h.writeDomainError(w, "Invalid snapshot", err)
		return
	}

	if err := h.Store.ReplaceAll(r.Context(), as); err != nil {
		h.internalError(w, "Failed to import assignments", err)
		return
	}
	h.Log.Info().Int("assignments", len(as)).Msg("snapshot imported")
	writeJSON(w, http.StatusOK, ImportResponse{Imported: len(as)})
}

// GetAssignment returns one assignment.
func (h *Handler) GetAssignment(w http.ResponseWriter, r *http.Request) {
	id := participation.AssignmentID(chi.URLParam(r, "id"))
	a, err := h.Store.GetAssignment(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Assignment not found", err)
		return
	}
	writeJSON(w, http.StatusOK, toAssignmentDTO(a))
}

// DeleteAssignment removes one assignment.
func (h *Handler) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	id := participation.AssignmentID(chi.URLParam(r, "id"))
	if err := h.Store.DeleteAssignment(r.Context(), id); err != nil {
		h.writeDomainError(w, "Assignment not found", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// RISK HANDLERS
// =============================================================================

// ListSummaries returns every member, classified and sorted.
func (h *Handler) ListSummaries(w http.ResponseWriter, r *http.Request) {
	as, ok := h.loadSnapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.engine().Summaries(as))
}

// GetMemberSummary returns one member's classified summary.
func (h *Handler) GetMemberSummary(w http.ResponseWriter, r *http.Request) {
	as, ok := h.loadSnapshot(w, r)
	if !ok {
		return
	}
	s, err := h.engine().MemberSummary(as, participation.MemberID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, "Member not found", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// GetAffectedProjects lists the projects to re-check after an HR event.
func (h *Handler) GetAffectedProjects(w http.ResponseWriter, r *http.Request) {
	as, ok := h.loadSnapshot(w, r)
	if !ok {
		return
	}
	member := chi.URLParam(r, "id")
	projects := participation.AffectedProjects(as, participation.MemberID(member))

	dto := AffectedProjectsDTO{MemberID: member, Projects: make([]string, len(projects))}
	for i, p := range projects {
		dto.Projects[i] = string(p)
	}
	writeJSON(w, http.StatusOK, dto)
}

// GetReport returns the report contract.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	as, ok := h.loadSnapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.engine().BuildReport(as))
}

// GetCrossVerify returns the cross-verification groups.
func (h *Handler) GetCrossVerify(w http.ResponseWriter, r *http.Request) {
	as, ok := h.loadSnapshot(w, r)
	if !ok {
		return
	}
	groups := h.engine().CrossVerify(as)
	if groups == nil {
		groups = []participation.CrossVerifyGroup{}
	}
	writeJSON(w, http.StatusOK, groups)
}

// GetMatrix returns the static settlement-system pair matrix.
func (h *Handler) GetMatrix(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, participation.RiskMatrix())
}

// =============================================================================
// RULESET HANDLERS
// =============================================================================

// GetRuleset returns the active ruleset document.
func (h *Handler) GetRuleset(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, factory.ToJSON(h.Ruleset()))
}

// UpdateRuleset replaces the active ruleset. YAML bodies are accepted when
// the Content-Type says so.
func (h *Handler) UpdateRuleset(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body", err)
		return
	}

	format := factory.FormatJSON
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		format = factory.FormatYAML
	}
	rs, err := factory.ParseRuleset(body, format)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid ruleset", err)
		return
	}
	if err := h.SetRuleset(rs); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid ruleset", err)
		return
	}

	h.Log.Info().
		Str("version", rs.Version).
		Str("warning_rate", rs.WarningRate.String()).
		Str("limit_rate", rs.LimitRate.String()).
		Msg("ruleset replaced")
	writeJSON(w, http.StatusOK, factory.ToJSON(rs))
}

// =============================================================================
// SNAPSHOT HANDLERS
// =============================================================================

// ListSnapshots returns archived reports, newest first (?limit=, default 20).
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", fmt.Errorf("limit must be a non-negative integer, got %q", v))
			return
		}
		limit = n
	}

	snaps, err := h.Store.ListSnapshots(r.Context(), limit)
	if err != nil {
		h.internalError(w, "Failed to list snapshots", err)
		return
	}
	dtos := make([]SnapshotDTO, len(snaps))
	for i, s := range snaps {
		dtos[i] = toSnapshotDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateSnapshot archives the current report and returns it.
func (h *Handler) CreateSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.TakeSnapshot(r.Context())
	if err != nil {
		h.internalError(w, "Failed to take snapshot", err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// TakeSnapshot builds a report from the stored snapshot and archives it.
func (h *Handler) TakeSnapshot(ctx context.Context) (participation.ReportSnapshot, error) {
	as, err := h.Store.ListAssignments(ctx)
	if err != nil {
		return participation.ReportSnapshot{}, fmt.Errorf("load assignments: %w", err)
	}

	report := h.engine().BuildReport(as)
	snap := participation.ReportSnapshot{
		ID:             h.NewID(),
		TakenAt:        report.GeneratedAt,
		RulesetVersion: report.RulesetVersion,
		Report:         report,
	}
	if err := h.Store.SaveSnapshot(ctx, snap); err != nil {
		return participation.ReportSnapshot{}, fmt.Errorf("save snapshot: %w", err)
	}

	h.Log.Info().
		Str("snapshot", snap.ID).
		Str("ruleset", snap.RulesetVersion).
		Int("members", report.TotalMembers).
		Int("danger", report.Counts[participation.RiskDanger]).
		Int("warning", report.Counts[participation.RiskWarning]).
		Int("overlaps", len(report.PeriodOverlaps)).
		Msg("report snapshot archived")
	return snap, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) loadSnapshot(w http.ResponseWriter, r *http.Request) ([]participation.Assignment, bool) {
	as, err := h.Store.ListAssignments(r.Context())
	if err != nil {
		h.internalError(w, "Failed to load assignments", err)
		return nil, false
	}
	return as, true
}

// decodeAndValidate reads a JSON body into dst and runs struct validation.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   "Validation failed",
				Code:    "validation",
				Details: fieldErrorDetails(fieldErrs),
			})
			return false
		}
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

// fieldErrorDetails renders validator errors as field -> rule.
func fieldErrorDetails(errs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(errs))
	for _, fe := range errs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		details[fe.Namespace()] = rule
	}
	return details
}

// writeDomainError maps engine errors to HTTP status codes.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case participation.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, participation.ErrDuplicateAssignment):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: message, Code: "duplicate", Details: err.Error()})
	case participation.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.internalError(w, message, err)
	}
}

func (h *Handler) internalError(w http.ResponseWriter, message string, err error) {
	h.Log.Error().Err(err).Msg(message)
	writeError(w, http.StatusInternalServerError, message, err)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
