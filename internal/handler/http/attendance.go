package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/terrapesca/checkin-backend-go/internal/domain/attendance"
	"github.com/terrapesca/checkin-backend-go/internal/handler/http/response"
)

type AttendanceHandler interface {
	CheckIn(w http.ResponseWriter, r *http.Request)
	CheckOut(w http.ResponseWriter, r *http.Request)
	GetMyEvents(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// CheckIn implements AttendanceHandler.
func (h *attendanceHandlerImpl) CheckIn(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, attendance.KindCheckIn)
}

// CheckOut implements AttendanceHandler.
func (h *attendanceHandlerImpl) CheckOut(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, attendance.KindCheckOut)
}

func (h *attendanceHandlerImpl) submit(w http.ResponseWriter, r *http.Request, kind attendance.Kind) {
	var req attendance.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.attendanceService.Submit(r.Context(), kind, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if result.Queued {
		response.Accepted(w, "Attendance queued for sync", result)
		return
	}
	response.Created(w, "Attendance recorded", result)
}

// GetMyEvents implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetMyEvents(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	events, err := h.attendanceService.GetMyEvents(r.Context(), limit)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if events == nil {
		events = []attendance.Event{}
	}

	response.Success(w, events)
}

// List implements AttendanceHandler.
func (h *attendanceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		response.BadRequest(w, err.Error(), nil)
		return
	}

	result, err := h.attendanceService.ListEvents(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	totalPages := int((result.TotalItems + int64(filter.Limit) - 1) / int64(filter.Limit))
	response.SuccessWithMeta(w, result.Events, &response.Meta{
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalItems: result.TotalItems,
		TotalPages: totalPages,
	})
}

func parseListFilter(r *http.Request) (attendance.ListFilter, error) {
	q := r.URL.Query()
	var filter attendance.ListFilter

	if v := q.Get("vendor_id"); v != "" {
		filter.VendorID = &v
	}
	if v := q.Get("kind"); v != "" {
		kind := attendance.Kind(v)
		if !kind.Valid() {
			return filter, errInvalidQuery("kind must be check_in or check_out")
		}
		filter.Kind = &kind
	}
	if v := q.Get("is_late"); v != "" {
		late, err := strconv.ParseBool(v)
		if err != nil {
			return filter, errInvalidQuery("is_late must be a boolean")
		}
		filter.IsLate = &late
	}
	if v := q.Get("work_week"); v != "" {
		week, err := strconv.Atoi(v)
		if err != nil {
			return filter, errInvalidQuery("work_week must be an integer")
		}
		filter.WorkWeek = &week
	}
	if v := q.Get("from"); v != "" {
		from, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, errInvalidQuery("from must be YYYY-MM-DD")
		}
		filter.From = &from
	}
	if v := q.Get("to"); v != "" {
		to, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, errInvalidQuery("to must be YYYY-MM-DD")
		}
		end := to.Add(24*time.Hour - time.Nanosecond)
		filter.To = &end
	}

	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Normalize()

	return filter, nil
}

type errInvalidQuery string

func (e errInvalidQuery) Error() string { return string(e) }
