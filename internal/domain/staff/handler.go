package staff

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ShubhamKarampure/HealthyTray/internal/platform/apperr"
	"github.com/ShubhamKarampure/HealthyTray/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/auth/login", h.Login)
	api.GET("/auth/me", h.Me)
	api.POST("/auth/register", h.Register, auth.RequireRole(auth.RoleManager))

	api.GET("/meals/pantry-staff", h.ListPantryStaff)
	api.GET("/meals/delivery-staff", h.ListDeliveryStaff)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	res, err := h.svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) Register(c echo.Context) error {
	var in RegisterInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	u, err := h.svc.Register(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *Handler) Me(c echo.Context) error {
	p, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return apperr.Unauthenticated("authentication required")
	}
	u, err := h.svc.ResolveUser(c.Request().Context(), p.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) ListPantryStaff(c echo.Context) error {
	return h.listByRole(c, auth.RolePantry, "no pantry staff found")
}

func (h *Handler) ListDeliveryStaff(c echo.Context) error {
	return h.listByRole(c, auth.RoleDelivery, "no delivery personnel found")
}

func (h *Handler) listByRole(c echo.Context, role auth.Role, emptyMsg string) error {
	items, err := h.svc.ListByRole(c.Request().Context(), role)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return apperr.NotFound(emptyMsg)
	}
	return c.JSON(http.StatusOK, items)
}
