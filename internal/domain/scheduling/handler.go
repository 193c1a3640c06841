package scheduling

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinidesk/clinidesk/internal/platform/auth"
	"github.com/clinidesk/clinidesk/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole(string(RoleAdmin), string(RoleFrontDesk), string(RoleDoctor), string(RolePatient)))
	read.GET("/appointments", h.ListAppointments)
	read.GET("/appointments/:id", h.GetAppointment)
	read.GET("/schedule/layout", h.Layout)

	write := api.Group("", auth.RequireRole(string(RoleAdmin), string(RoleFrontDesk), string(RoleDoctor)))
	write.POST("/appointments", h.CreateAppointment)
	write.PUT("/appointments/:id", h.EditAppointment)
	write.POST("/appointments/:id/transition", h.TransitionAppointment)
}

type createRequest struct {
	PatientID uuid.UUID  `json:"patient_id"`
	DoctorID  uuid.UUID  `json:"doctor_id"`
	ServiceID *uuid.UUID `json:"service_id,omitempty"`
	Start     time.Time  `json:"start"`
	End       time.Time  `json:"end"`
	Type      string     `json:"type"`
	Notes     string     `json:"notes"`
}

type editRequest struct {
	Start             *time.Time `json:"start,omitempty"`
	End               *time.Time `json:"end,omitempty"`
	DoctorID          *uuid.UUID `json:"doctor_id,omitempty"`
	ServiceID         *uuid.UUID `json:"service_id,omitempty"`
	Type              *string    `json:"type,omitempty"`
	Notes             *string    `json:"notes,omitempty"`
	ExpectedUpdatedAt time.Time  `json:"expected_updated_at"`
}

type transitionRequest struct {
	Target            AppointmentStatus `json:"target"`
	ExpectedUpdatedAt time.Time         `json:"expected_updated_at"`
}

func (h *Handler) CreateAppointment(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	in := CreateInput{
		PatientID: req.PatientID,
		DoctorID:  req.DoctorID,
		ServiceID: req.ServiceID,
		Window:    TimeRange{Start: req.Start, End: req.End},
		Type:      req.Type,
		Notes:     req.Notes,
	}
	a, err := h.svc.Create(c.Request().Context(), in, identityFrom(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.Get(id, identityFrom(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

// ListAppointments serves the three list shapes the desk screens need:
// by doctor, by patient, or everything overlapping a window.
func (h *Handler) ListAppointments(c echo.Context) error {
	ident := identityFrom(c)
	pg := pagination.FromContext(c)

	var appts []Appointment
	switch {
	case c.QueryParam("doctor_id") != "":
		did, err := uuid.Parse(c.QueryParam("doctor_id"))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor_id")
		}
		appts = h.svc.ListByDoctor(did, ident)
	case c.QueryParam("patient_id") != "":
		pid, err := uuid.Parse(c.QueryParam("patient_id"))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		appts = h.svc.ListByPatient(pid, ident)
	default:
		view, err := windowFromQuery(c)
		if err != nil {
			return err
		}
		appts = h.svc.ListByWindow(view, ident)
	}

	total := len(appts)
	appts = pagination.Page(appts, pg.Limit, pg.Offset)
	return c.JSON(http.StatusOK, pagination.NewResponse(appts, total, pg.Limit, pg.Offset))
}

func (h *Handler) EditAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req editRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.ExpectedUpdatedAt.IsZero() {
		return echo.NewHTTPError(http.StatusBadRequest, "expected_updated_at is required")
	}

	patch := Patch{
		DoctorID:  req.DoctorID,
		ServiceID: req.ServiceID,
		Type:      req.Type,
		Notes:     req.Notes,
	}
	if req.Start != nil || req.End != nil {
		if req.Start == nil || req.End == nil {
			return echo.NewHTTPError(http.StatusBadRequest, "start and end must be changed together")
		}
		patch.Window = &TimeRange{Start: *req.Start, End: *req.End}
	}

	a, err := h.svc.Edit(c.Request().Context(), id, patch, req.ExpectedUpdatedAt, identityFrom(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) TransitionAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req transitionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.ExpectedUpdatedAt.IsZero() {
		return echo.NewHTTPError(http.StatusBadRequest, "expected_updated_at is required")
	}

	a, err := h.svc.Transition(c.Request().Context(), id, req.Target, req.ExpectedUpdatedAt, identityFrom(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Layout(c echo.Context) error {
	view, err := windowFromQuery(c)
	if err != nil {
		return err
	}
	slots := h.svc.Layout(c.Request().Context(), view, identityFrom(c))
	return c.JSON(http.StatusOK, map[string]interface{}{
		"view":  view,
		"slots": slots,
	})
}

func windowFromQuery(c echo.Context) (TimeRange, error) {
	from, err := time.Parse(time.RFC3339, c.QueryParam("from"))
	if err != nil {
		return TimeRange{}, echo.NewHTTPError(http.StatusBadRequest, "invalid from (want RFC3339)")
	}
	to, err := time.Parse(time.RFC3339, c.QueryParam("to"))
	if err != nil {
		return TimeRange{}, echo.NewHTTPError(http.StatusBadRequest, "invalid to (want RFC3339)")
	}
	view := TimeRange{Start: from, End: to}
	if !view.Valid() {
		return TimeRange{}, echo.NewHTTPError(http.StatusBadRequest, "to must be after from")
	}
	return view, nil
}

func identityFrom(c echo.Context) Identity {
	p := auth.PrincipalFromContext(c.Request().Context())
	return Identity{
		UserID:    p.UserID,
		Role:      Role(p.Role),
		DoctorID:  p.DoctorID,
		PatientID: p.PatientID,
	}
}

// httpError maps engine errors onto HTTP status codes. Validation is 422 so
// the UI can tell "malformed request" (400) apart from "well-formed but
// unbookable"; stale writes are 412 to match the conditional-request idiom.
func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrStaleAppointment):
		return echo.NewHTTPError(http.StatusPreconditionFailed, err.Error())
	case errors.Is(err, ErrConflict), errors.Is(err, ErrTerminal):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrSaveFailed):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
