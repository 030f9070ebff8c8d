package booking

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinibook/clinibook/internal/platform/auth"
	"github.com/clinibook/clinibook/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes wires the public booking surface and the authenticated
// staff surface.
func (h *Handler) RegisterRoutes(public *echo.Group, staff *echo.Group) {
	public.GET("/available-slots", h.AvailableSlots)
	public.POST("/appointment", h.CreateBooking)

	staff.GET("/appointments", h.ListAppointments)
	staff.POST("/appointments", h.StaffCreate)
	staff.GET("/appointments/:id", h.GetAppointment)
	staff.PUT("/appointments/:id/cancel", h.Cancel)
	staff.PUT("/appointments/:id/reschedule", h.Reschedule)
	staff.PUT("/appointments/:id/confirm", h.Confirm)
}

// respondError maps a booking error to its HTTP shape. The two 409 kinds
// carry different payloads: a duplicate booking surfaces the conflicting
// appointment so the client can show it.
func respondError(c echo.Context, err error) error {
	var be *Error
	if !errors.As(err, &be) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	switch be.Kind {
	case KindNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": be.Message})
	case KindValidation:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": be.Message})
	case KindSlotUnavailable:
		return c.JSON(http.StatusConflict, echo.Map{"error": be.Message})
	case KindDuplicateBooking:
		return c.JSON(http.StatusConflict, echo.Map{
			"error":                be.Message,
			"existing_appointment": be.Existing,
		})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": be.Message})
	}
}

func (h *Handler) AvailableSlots(c echo.Context) error {
	professionalID, err := uuid.Parse(c.QueryParam("professional_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid professional_id")
	}
	specialtyID, err := uuid.Parse(c.QueryParam("specialty_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid specialty_id")
	}
	date, err := time.Parse("2006-01-02", c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
	}

	slots, err := h.svc.AvailableSlots(c.Request().Context(), professionalID, specialtyID, date)
	if err != nil {
		return respondError(c, err)
	}
	if slots == nil {
		slots = []TimeOfDay{}
	}
	return c.JSON(http.StatusOK, echo.Map{"available_slots": slots})
}

type bookingPayload struct {
	ProfessionalID string  `json:"professional_id"`
	SpecialtyID    string  `json:"specialty_id"`
	Date           string  `json:"date"`
	Time           string  `json:"time"`
	Notes          *string `json:"notes"`
	Patient        struct {
		Name       string `json:"name"`
		Email      string `json:"email"`
		Phone      string `json:"phone"`
		NationalID string `json:"national_id"`
		BirthDate  string `json:"birth_date"`
	} `json:"patient"`
}

func (p *bookingPayload) toRequest() (BookingRequest, error) {
	var req BookingRequest
	professionalID, err := uuid.Parse(p.ProfessionalID)
	if err != nil {
		return req, Validationf("invalid professional_id")
	}
	specialtyID, err := uuid.Parse(p.SpecialtyID)
	if err != nil {
		return req, Validationf("invalid specialty_id")
	}
	date, err := time.Parse("2006-01-02", p.Date)
	if err != nil {
		return req, Validationf("invalid date %q, want YYYY-MM-DD", p.Date)
	}
	tod, err := ParseTimeOfDay(p.Time)
	if err != nil {
		return req, Validationf("invalid time %q, want HH:MM", p.Time)
	}
	req = BookingRequest{
		ProfessionalID: professionalID,
		SpecialtyID:    specialtyID,
		StartTime:      tod.At(date),
		Notes:          p.Notes,
		Patient: PatientDetails{
			Name:       p.Patient.Name,
			Email:      p.Patient.Email,
			Phone:      p.Patient.Phone,
			NationalID: p.Patient.NationalID,
		},
	}
	if p.Patient.BirthDate != "" {
		bd, err := time.Parse("2006-01-02", p.Patient.BirthDate)
		if err != nil {
			return req, Validationf("invalid birth_date %q, want YYYY-MM-DD", p.Patient.BirthDate)
		}
		req.Patient.BirthDate = &bd
	}
	return req, nil
}

func (h *Handler) CreateBooking(c echo.Context) error {
	var p bookingPayload
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req, err := p.toRequest()
	if err != nil {
		return respondError(c, err)
	}
	result, err := h.svc.CreateBooking(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"appointment_id": result.Appointment.ID,
		"patient_id":     result.PatientID,
		"patient_name":   result.PatientName,
	})
}

// StaffCreate books on behalf of a patient; the appointment starts out
// confirmed. Non-admin staff may only book their own agenda.
func (h *Handler) StaffCreate(c echo.Context) error {
	var p bookingPayload
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req, err := p.toRequest()
	if err != nil {
		return respondError(c, err)
	}
	ctx := c.Request().Context()
	if auth.RoleFromContext(ctx) != auth.RoleAdmin &&
		req.ProfessionalID != auth.ProfessionalIDFromContext(ctx) {
		return echo.NewHTTPError(http.StatusForbidden, "cannot book another professional's agenda")
	}
	req.Confirmed = true
	result, err := h.svc.CreateBooking(ctx, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"appointment_id": result.Appointment.ID,
		"patient_id":     result.PatientID,
		"patient_name":   result.PatientName,
	})
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListAppointments(c echo.Context) error {
	ctx := c.Request().Context()
	pg := pagination.FromContext(c)

	var f ListFilter
	// Admins see everything; members and limited accounts only their own
	// agenda. The scope is passed down explicitly.
	if auth.RoleFromContext(ctx) != auth.RoleAdmin {
		own := auth.ProfessionalIDFromContext(ctx)
		f.ProfessionalScope = []uuid.UUID{own}
	}
	if raw := c.QueryParam("professional_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid professional_id")
		}
		f.ProfessionalID = &id
	}
	if raw := c.QueryParam("patient_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		f.PatientID = &id
	}
	if raw := c.QueryParam("status"); raw != "" {
		status, ok := NormalizeStatus(raw)
		if !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid status")
		}
		f.Status = &status
	}
	if raw := c.QueryParam("date"); raw != "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		}
		f.Date = &date
	}

	items, total, err := h.svc.List(ctx, f, pg.Limit, pg.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Cancel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.svc.Cancel(c.Request().Context(), id, body.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Confirm(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.Confirm(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Reschedule(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		DateTime string `json:"date_time"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	newStart, err := parseDateTime(body.DateTime)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date_time, want YYYY-MM-DD HH:MM")
	}
	a, err := h.svc.Reschedule(c.Request().Context(), id, newStart)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

var dateTimeLayouts = []string{"2006-01-02 15:04", "2006-01-02T15:04", time.RFC3339}

func parseDateTime(s string) (time.Time, error) {
	var err error
	for _, layout := range dateTimeLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}
