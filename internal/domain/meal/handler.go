package meal

import (
	"net/http"

	"github.com/google/uuid"
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
	meals := api.Group("/meals")

	meals.GET("/patient/:id", h.GetPatientMeals)
	meals.GET("/patient/:id/history", h.ListPatientMealHistory)
	meals.POST("/patient/:id", h.AssignMeal, auth.RequireRole(auth.RoleManager))

	meals.GET("/:mealId", h.GetMeal)
	meals.PUT("/:mealId/status", h.UpdateStatus,
		auth.RequireRole(auth.RoleManager, auth.RolePantry, auth.RoleDelivery))
	meals.PUT("/:mealId/delivery-personnel", h.AssignDeliveryPersonnel,
		auth.RequireRole(auth.RoleManager, auth.RolePantry))
}

func (h *Handler) GetPatientMeals(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	plan, err := h.svc.GetPatientMeals(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, plan)
}

func (h *Handler) ListPatientMealHistory(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	items, err := h.svc.ListPatientMealHistory(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) AssignMeal(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	actor, err := principal(c)
	if err != nil {
		return err
	}
	var in AssignMealInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	slot, err := h.svc.AssignMeal(c.Request().Context(), actor, id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, slot)
}

func (h *Handler) GetMeal(c echo.Context) error {
	id, err := uuid.Parse(c.Param("mealId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid meal id")
	}
	slot, err := h.svc.GetMeal(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, slot)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("mealId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid meal id")
	}
	actor, err := principal(c)
	if err != nil {
		return err
	}
	var upd StatusUpdate
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	slot, err := h.svc.UpdateStatus(c.Request().Context(), actor, id, upd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, slot)
}

type assignDeliveryRequest struct {
	DeliveryPersonnelID string `json:"deliveryPersonnelId"`
}

func (h *Handler) AssignDeliveryPersonnel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("mealId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid meal id")
	}
	actor, err := principal(c)
	if err != nil {
		return err
	}
	var req assignDeliveryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	slot, err := h.svc.AssignDeliveryPersonnel(c.Request().Context(), actor, id, req.DeliveryPersonnelID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, slot)
}

func principal(c echo.Context) (auth.Principal, error) {
	p, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return auth.Principal{}, apperr.Unauthenticated("authentication required")
	}
	return p, nil
}
