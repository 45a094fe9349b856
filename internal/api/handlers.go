package api

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"paramview/internal/engine"
	"paramview/internal/export"
	"paramview/internal/models"
	"paramview/internal/viewer"
)

const mimeArrowStream = "application/vnd.apache.arrow.stream"

type Handler struct {
	viewer *viewer.Service
	ready  atomic.Bool
	now    func() time.Time
}

// NewHandler returns a handler that answers 503 on plot routes until
// SetReady(true) is called.
func NewHandler(v *viewer.Service) *Handler {
	return &Handler{viewer: v, now: time.Now}
}

// SetReady flips the handler out of (or back into) the loading state.
func (h *Handler) SetReady(ready bool) { h.ready.Store(ready) }

// NewServer builds the echo instance with the standard middleware stack and
// the handler's routes.
func NewServer(h *Handler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.JSONSerializer = JSONSerializer{}
	e.Use(middleware.CORS())
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	h.RegisterRoutes(e)
	return e
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")
	api.GET("/health", h.GetHealth)

	plots := api.Group("/plots", h.requireReady)
	plots.GET("", h.GetPlots)
	plots.GET("/:key/parameters", h.GetParameters)
	plots.GET("/:key/view", h.GetView)
	plots.GET("/:key/export.csv", h.ExportCSV)
	plots.GET("/:key/export.arrow", h.ExportArrow)
	plots.GET("/:key/export.png", h.ExportPNG)
	plots.POST("/:key/reload", h.Reload)
}

func (h *Handler) requireReady(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !h.ready.Load() {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "data loading")
		}
		return next(c)
	}
}

// httpError maps engine error kinds onto HTTP statuses.
func httpError(err error) error {
	switch {
	case errors.Is(err, engine.ErrSchemaMissing):
		return echo.NewHTTPError(http.StatusNotFound, err.Error()).SetInternal(err)
	case errors.Is(err, engine.ErrNotLoaded):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error()).SetInternal(err)
	case errors.Is(err, engine.ErrSourceUnavailable):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error()).SetInternal(err)
	}
	return err
}

// --- HANDLERS ---

// querySelection reads every query parameter as a numeric choice.
func querySelection(c echo.Context) (map[string]float64, error) {
	set := make(map[string]float64)
	for name, vals := range c.QueryParams() {
		if len(vals) == 0 {
			continue
		}
		v, err := strconv.ParseFloat(vals[0], 64)
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("parameter %s: %q is not a number", name, vals[0]))
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("parameter %s: %q is not a finite number", name, vals[0]))
		}
		set[name] = v
	}
	return set, nil
}

func (h *Handler) view(c echo.Context) (*viewer.View, error) {
	key := c.Param("key")
	set, err := querySelection(c)
	if err != nil {
		return nil, err
	}
	sel, err := h.viewer.Resolve(key, set)
	if err != nil {
		return nil, httpError(err)
	}
	v, err := h.viewer.View(key, sel)
	if err != nil {
		return nil, httpError(err)
	}
	return v, nil
}

func (h *Handler) GetHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"ready":  h.ready.Load(),
		"loaded": h.viewer.Store().Loaded(),
	})
}

// returns the app header, enabled plots and the one to activate first
func (h *Handler) GetPlots(c echo.Context) error {
	active, _ := h.viewer.ActivePlot()
	plots := h.viewer.Plots()
	if plots == nil {
		plots = []viewer.PlotInfo{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"app":    h.viewer.Store().Config().App,
		"plots":  plots,
		"active": active,
	})
}

func (h *Handler) GetParameters(c echo.Context) error {
	set, err := h.viewer.Parameters(c.Param("key"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, set)
}

func (h *Handler) GetView(c echo.Context) error {
	v, err := h.view(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) attachment(c echo.Context, name, contentType string, body []byte) error {
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, contentType, body)
}

// exportSlice runs one of the slice writers; an empty slice answers 204.
func (h *Handler) exportSlice(c echo.Context, ext, contentType string, write func(*bytes.Buffer, *models.Slice) (int, error)) error {
	v, err := h.view(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	n, err := write(&buf, v.Slice)
	if err != nil {
		return err
	}
	if n == 0 {
		return c.NoContent(http.StatusNoContent)
	}
	return h.attachment(c, export.Filename(v.PlotKey, "data", ext, h.now()), contentType, buf.Bytes())
}

func (h *Handler) ExportCSV(c echo.Context) error {
	return h.exportSlice(c, "csv", "text/csv; charset=utf-8", func(b *bytes.Buffer, s *models.Slice) (int, error) {
		return export.WriteCSV(b, s)
	})
}

func (h *Handler) ExportArrow(c echo.Context) error {
	return h.exportSlice(c, "arrow", mimeArrowStream, func(b *bytes.Buffer, s *models.Slice) (int, error) {
		return export.WriteArrow(b, s)
	})
}

func (h *Handler) ExportPNG(c echo.Context) error {
	v, err := h.view(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := export.RenderPNG(&buf, v.Plot); err != nil {
		return err
	}
	return h.attachment(c, export.Filename(v.PlotKey, "plot", "png", h.now()), "image/png", buf.Bytes())
}

func (h *Handler) Reload(c echo.Context) error {
	key := c.Param("key")
	store := h.viewer.Store()
	if err := store.Load(c.Request().Context(), key); err != nil {
		log.Errorf("api: reload %s: %v", key, err)
		return httpError(err)
	}
	ds, err := store.Get(key)
	if err != nil {
		return httpError(err)
	}
	loadedAt, _ := store.LoadedAt(key)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"plot_key":  key,
		"rows":      ds.NumRows(),
		"loaded_at": loadedAt,
	})
}
