package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
)

type AttendanceHandler interface {
	CreatePunch(w http.ResponseWriter, r *http.Request)
	ManualCreate(w http.ResponseWriter, r *http.Request)
	ManualUpdate(w http.ResponseWriter, r *http.Request)
	ListLogs(w http.ResponseWriter, r *http.Request)
	ListDaily(w http.ResponseWriter, r *http.Request)
	GetSubjectLogs(w http.ResponseWriter, r *http.Request)
	GetSubjectDaily(w http.ResponseWriter, r *http.Request)
	RebuildDay(w http.ResponseWriter, r *http.Request)
	ExportDaily(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.ReconciliationService
	exportService     attendance.ExportService
}

func NewAttendanceHandler(attendanceService attendance.ReconciliationService, exportService attendance.ExportService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
		exportService:     exportService,
	}
}

// CreatePunch implements AttendanceHandler.
func (h *attendanceHandlerImpl) CreatePunch(w http.ResponseWriter, r *http.Request) {
	var req attendance.PunchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode punch request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.attendanceService.CreatePunch(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if result.Duplicate {
		response.SuccessWithMessage(w, attendance.DuplicatePunchMessage, result)
		return
	}

	response.Created(w, "Punch recorded", result)
}

// ManualCreate implements AttendanceHandler.
func (h *attendanceHandlerImpl) ManualCreate(w http.ResponseWriter, r *http.Request) {
	var req attendance.ManualEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode manual entry request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.attendanceService.ManualCreate(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Manual attendance recorded", result)
}

// ManualUpdate implements AttendanceHandler.
func (h *attendanceHandlerImpl) ManualUpdate(w http.ResponseWriter, r *http.Request) {
	var req attendance.ManualEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode manual entry request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.attendanceService.ManualUpdate(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Manual attendance updated", result)
}

// ListLogs implements AttendanceHandler.
func (h *attendanceHandlerImpl) ListLogs(w http.ResponseWriter, r *http.Request) {
	filter := attendance.LogFilter{}

	if date := r.URL.Query().Get("date"); date != "" {
		filter.Date = &date
	}
	filter.Page, filter.Limit = pagination(r)

	if err := filter.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	results, err := h.attendanceService.ListLogs(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// ListDaily implements AttendanceHandler.
func (h *attendanceHandlerImpl) ListDaily(w http.ResponseWriter, r *http.Request) {
	filter := dailyFilterFromQuery(r)
	filter.Page, filter.Limit = pagination(r)

	if err := filter.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	results, err := h.attendanceService.ListDaily(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// GetSubjectLogs implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetSubjectLogs(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "ref")
	if !canViewSubject(r, ref) {
		response.HandleError(w, user.ErrInsufficientPermissions)
		return
	}

	logs, err := h.attendanceService.GetLogsForSubject(r.Context(), ref)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, logs)
}

// GetSubjectDaily implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetSubjectDaily(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "ref")
	if !canViewSubject(r, ref) {
		response.HandleError(w, user.ErrInsufficientPermissions)
		return
	}

	daily, err := h.attendanceService.GetDailyForSubject(r.Context(), ref)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, daily)
}

// RebuildDay implements AttendanceHandler.
func (h *attendanceHandlerImpl) RebuildDay(w http.ResponseWriter, r *http.Request) {
	var req attendance.RebuildDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode rebuild request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.attendanceService.RebuildDay(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Daily attendance rebuilt", result)
}

// ExportDaily implements AttendanceHandler.
func (h *attendanceHandlerImpl) ExportDaily(w http.ResponseWriter, r *http.Request) {
	filter := dailyFilterFromQuery(r)

	buf, filename, err := h.exportService.ExportDaily(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Attachment(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", filename, buf)
}

func dailyFilterFromQuery(r *http.Request) attendance.DailyFilter {
	filter := attendance.DailyFilter{}
	query := r.URL.Query()

	if date := query.Get("date"); date != "" {
		filter.Date = &date
	}
	if startDate := query.Get("start_date"); startDate != "" {
		filter.StartDate = &startDate
	}
	if endDate := query.Get("end_date"); endDate != "" {
		filter.EndDate = &endDate
	}
	if status := query.Get("status"); status != "" {
		filter.Status = &status
	}

	return filter
}

func pagination(r *http.Request) (page, limit int) {
	page = 1
	if p := r.URL.Query().Get("page"); p != "" {
		if pageNum, err := strconv.Atoi(p); err == nil && pageNum > 0 {
			page = pageNum
		}
	}

	limit = 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if limitNum, err := strconv.Atoi(l); err == nil && limitNum > 0 {
			limit = limitNum
		}
	}

	return page, limit
}

// canViewSubject allows managers any subject and everyone else only the
// employee or user id carried by their own token.
func canViewSubject(r *http.Request, ref string) bool {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return false
	}

	role, _ := claims["role"].(string)
	if user.HasPermission(user.Role(role), user.PermissionAttendanceViewAll) {
		return true
	}
	if !user.HasPermission(user.Role(role), user.PermissionAttendanceViewOwn) {
		return false
	}

	if userID, ok := claims["user_id"].(string); ok && userID == ref {
		return true
	}
	if employeeID, ok := claims["employee_id"].(string); ok && employeeID == ref {
		return true
	}
	return false
}
