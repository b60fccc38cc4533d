package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/taskpilot/taskpilot/internal/memory"
	"github.com/taskpilot/taskpilot/internal/plan"
)

// RunsHandler exposes the run, dry-run and history endpoints.
type RunsHandler struct {
	Runner  *Runner
	History *memory.History
}

// Register mounts the handler on the API group.
func (h *RunsHandler) Register(g *echo.Group) {
	g.POST("/run", h.run)
	g.POST("/plan", h.planOnly)
	g.GET("/history", h.history)
	g.GET("/history/:id", h.historyGet)
}

type runRequest struct {
	Command string `json:"command"`
	Email   string `json:"email,omitempty"`
	Profile string `json:"profile,omitempty"`
}

type runResponse struct {
	ID         string    `json:"id"`
	Plan       plan.Plan `json:"plan"`
	Logs       []string  `json:"logs"`
	DurationMS int64     `json:"duration_ms"`
}

func (h *RunsHandler) run(c echo.Context) error {
	var req runRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Command == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "command is required")
	}

	rec, err := h.Runner.Run(c.Request().Context(), req.Command, req.Email, req.Profile)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, runResponse{
		ID:         rec.ID,
		Plan:       rec.Plan,
		Logs:       rec.Logs,
		DurationMS: rec.Duration.Milliseconds(),
	})
}

func (h *RunsHandler) planOnly(c echo.Context) error {
	var req runRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Command == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "command is required")
	}
	p, err := h.Runner.PlanOnly(c.Request().Context(), req.Command, req.Email)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"plan": p})
}

func (h *RunsHandler) history(c echo.Context) error {
	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = parsed
	}

	var (
		recs []memory.Record
		err  error
	)
	if q := c.QueryParam("q"); q != "" {
		recs, err = h.History.Search(c.Request().Context(), q, limit)
	} else {
		recs, err = h.History.Recent(c.Request().Context(), limit)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if recs == nil {
		recs = []memory.Record{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"runs": recs})
}

func (h *RunsHandler) historyGet(c echo.Context) error {
	rec, err := h.History.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, memory.ErrRunNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "run not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rec)
}
