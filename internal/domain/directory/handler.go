package directory

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinibook/clinibook/internal/domain/booking"
	"github.com/clinibook/clinibook/internal/platform/auth"
	"github.com/clinibook/clinibook/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes wires the directory endpoints. Login and the specialty
// catalog are public so the booking page can render without a session;
// everything that mutates the directory is admin-only.
func (h *Handler) RegisterRoutes(public, staff *echo.Group) {
	public.POST("/login", h.Login)
	public.GET("/specialties", h.ListSpecialties)
	public.GET("/professionals", h.ListProfessionals)
	public.GET("/professionals/:id/specialties", h.AssignedSpecialties)

	admin := auth.RequireRole(auth.RoleAdmin)

	staff.POST("/professionals", h.CreateProfessional, admin)
	staff.GET("/professionals/:id", h.GetProfessional)
	staff.PUT("/professionals/:id", h.UpdateProfessional, admin)
	staff.DELETE("/professionals/:id", h.DeleteProfessional, admin)

	staff.POST("/specialties", h.CreateSpecialty, admin)
	staff.GET("/specialties/:id", h.GetSpecialty)
	staff.PUT("/specialties/:id", h.UpdateSpecialty, admin)
	staff.DELETE("/specialties/:id", h.DeleteSpecialty, admin)

	staff.POST("/professionals/:id/specialties", h.AssignSpecialty, admin)
	staff.PUT("/professionals/:id/specialties/:specialtyId/terms", h.AcceptTerms)
	staff.GET("/professionals/:id/pending-terms", h.PendingTerms)

	staff.GET("/professionals/:id/schedule", h.GetSchedule)
	staff.PUT("/professionals/:id/schedule", h.SaveSchedule)
}

func (h *Handler) Login(c echo.Context) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	token, pro, err := h.svc.Login(c.Request().Context(), body.Email, body.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, ErrInvalidCredentials.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"token":        token,
		"professional": pro,
	})
}

func (h *Handler) CreateProfessional(c echo.Context) error {
	var in ProfessionalInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	pro, err := h.svc.CreateProfessional(c.Request().Context(), in)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return echo.NewHTTPError(http.StatusConflict, ErrEmailTaken.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, pro)
}

func (h *Handler) GetProfessional(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	pro, err := h.svc.GetProfessional(c.Request().Context(), id)
	if err != nil {
		return notFoundOr500(err)
	}
	return c.JSON(http.StatusOK, pro)
}

func (h *Handler) UpdateProfessional(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in ProfessionalInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	pro, err := h.svc.UpdateProfessional(c.Request().Context(), id, in)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrEmailTaken):
			return echo.NewHTTPError(http.StatusConflict, ErrEmailTaken.Error())
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return c.JSON(http.StatusOK, pro)
}

func (h *Handler) DeleteProfessional(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteProfessional(c.Request().Context(), id); err != nil {
		return notFoundOr500(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListProfessionals(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListProfessionals(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) CreateSpecialty(c echo.Context) error {
	var in SpecialtyInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	spec, err := h.svc.CreateSpecialty(c.Request().Context(), in)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, spec)
}

func (h *Handler) GetSpecialty(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	spec, err := h.svc.GetSpecialty(c.Request().Context(), id)
	if err != nil {
		return notFoundOr500(err)
	}
	return c.JSON(http.StatusOK, spec)
}

func (h *Handler) UpdateSpecialty(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in SpecialtyInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	spec, err := h.svc.UpdateSpecialty(c.Request().Context(), id, in)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, spec)
}

func (h *Handler) DeleteSpecialty(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteSpecialty(c.Request().Context(), id); err != nil {
		return notFoundOr500(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListSpecialties(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListSpecialties(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) AssignSpecialty(c echo.Context) error {
	proID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		SpecialtyID uuid.UUID `json:"specialty_id"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if body.SpecialtyID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "specialty_id is required")
	}
	a, err := h.svc.AssignSpecialty(c.Request().Context(), proID, body.SpecialtyID)
	if err != nil {
		return notFoundOr500(err)
	}
	return c.JSON(http.StatusCreated, a)
}

// AcceptTerms lets the professional (or an admin) accept the terms text for
// one of their specialties. Non-admins can only accept their own.
func (h *Handler) AcceptTerms(c echo.Context) error {
	proID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	specID, err := uuid.Parse(c.Param("specialtyId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid specialty id")
	}
	if err := h.requireSelfOrAdmin(c, proID); err != nil {
		return err
	}
	var body struct {
		TermsAndConditions string `json:"terms_and_conditions"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.AcceptTerms(c.Request().Context(), proID, specID, body.TermsAndConditions); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "accepted"})
}

func (h *Handler) AssignedSpecialties(c echo.Context) error {
	proID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	items, err := h.svc.AssignedSpecialties(c.Request().Context(), proID)
	if err != nil {
		return notFoundOr500(err)
	}
	if items == nil {
		items = []*AssignedSpecialty{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) PendingTerms(c echo.Context) error {
	proID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.requireSelfOrAdmin(c, proID); err != nil {
		return err
	}
	items, err := h.svc.PendingTerms(c.Request().Context(), proID)
	if err != nil {
		return notFoundOr500(err)
	}
	if items == nil {
		items = []*AssignedSpecialty{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetSchedule(c echo.Context) error {
	proID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	specID, err := optionalSpecialtyID(c)
	if err != nil {
		return err
	}
	week, err := h.svc.Schedule(c.Request().Context(), proID, specID)
	if err != nil {
		return notFoundOr500(err)
	}
	return c.JSON(http.StatusOK, week)
}

func (h *Handler) SaveSchedule(c echo.Context) error {
	proID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.requireSelfOrAdmin(c, proID); err != nil {
		return err
	}
	specID, err := optionalSpecialtyID(c)
	if err != nil {
		return err
	}
	var week booking.WeeklySchedule
	if err := c.Bind(&week); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.SaveSchedule(c.Request().Context(), proID, specID, week); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, week)
}

func (h *Handler) requireSelfOrAdmin(c echo.Context, proID uuid.UUID) error {
	ctx := c.Request().Context()
	if auth.RoleFromContext(ctx) == auth.RoleAdmin {
		return nil
	}
	if auth.ProfessionalIDFromContext(ctx) != proID {
		return echo.NewHTTPError(http.StatusForbidden, "cannot act on another professional")
	}
	return nil
}

func notFoundOr500(err error) error {
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func optionalSpecialtyID(c echo.Context) (*uuid.UUID, error) {
	raw := c.QueryParam("specialty_id")
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid specialty_id")
	}
	return &id, nil
}
