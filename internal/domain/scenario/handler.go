package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/tcg/scenario-sheets/internal/extract"
	"github.com/tcg/scenario-sheets/internal/platform/auth"
	"github.com/tcg/scenario-sheets/internal/platform/export"
	"github.com/tcg/scenario-sheets/internal/platform/source"
	"github.com/tcg/scenario-sheets/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Read endpoints: parsing an upload does not change any state.
	readGroup := api.Group("", auth.RequireRole(auth.RoleViewer, auth.RoleAuthor))
	readGroup.POST("/scenarios/parse", h.ParseScenario)
	readGroup.POST("/workbooks/sheets", h.ListSheets)
	readGroup.GET("/scenarios", h.ListScenarios)
	readGroup.GET("/scenarios/:id", h.GetScenario)

	writeGroup := api.Group("", auth.RequireRole(auth.RoleAuthor))
	writeGroup.POST("/scenarios", h.ImportScenario)
	writeGroup.DELETE("/scenarios/:id", h.DeleteScenario)
}

// ParseScenario returns the parse result. With ?format=json|yaml it returns
// only the scenario file, encoded as the CLI writes it.
func (h *Handler) ParseScenario(c echo.Context) error {
	name := c.QueryParam("sheet")
	if name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "sheet query parameter is required")
	}
	var format export.Format
	if raw := c.QueryParam("format"); raw != "" {
		f, err := export.ParseFormat(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		format = f
	}
	wb, err := openUpload(c)
	if err != nil {
		return err
	}
	defer wb.Close()

	res, err := h.svc.Parse(c.Request().Context(), wb, name)
	if err != nil {
		return httpError(err)
	}
	if format == "" {
		return c.JSON(http.StatusOK, res)
	}

	var buf bytes.Buffer
	if err := export.Encode(&buf, res.Document, format); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	file := export.FileName(res.Document.Metadata.ScenarioName, 0, format)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", file))
	c.Response().Header().Set("X-Scenario-Warnings", fmt.Sprint(len(res.Warnings)))
	return c.Blob(http.StatusOK, format.ContentType(), buf.Bytes())
}

func (h *Handler) ListSheets(c echo.Context) error {
	wb, err := openUpload(c)
	if err != nil {
		return err
	}
	defer wb.Close()

	names, err := h.svc.Sheets(c.Request().Context(), wb)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string][]string{"sheets": names})
}

func (h *Handler) ImportScenario(c echo.Context) error {
	if !h.svc.HasStore() {
		return httpError(ErrNoStore)
	}
	name := c.QueryParam("sheet")
	if name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "sheet query parameter is required")
	}
	wb, err := openUpload(c)
	if err != nil {
		return err
	}
	defer wb.Close()

	rec, err := h.svc.Import(c.Request().Context(), wb, name)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) GetScenario(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rec, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) ListScenarios(c echo.Context) error {
	pg := pagination.FromContext(c)
	sheetName := c.QueryParam("sheet")
	items, total, err := h.svc.List(c.Request().Context(), sheetName, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	query := url.Values{}
	if sheetName != "" {
		query.Set("sheet", sheetName)
	}
	resp := pagination.NewResponse(items, total, pg.Limit, pg.Offset).
		WithLinks(pg, c.Request().URL.Path, query)
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) DeleteScenario(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// openUpload reads the workbook from a multipart "file" field, or from the
// raw request body for any other content type.
func openUpload(c echo.Context) (*source.Workbook, error) {
	var body io.Reader = c.Request().Body
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		file, err := c.FormFile("file")
		if err != nil {
			// The body limit surfaces as a read error while the form is parsed.
			var he *echo.HTTPError
			if errors.As(err, &he) && he.Code == http.StatusRequestEntityTooLarge {
				return nil, he
			}
			return nil, echo.NewHTTPError(http.StatusBadRequest, "file is required")
		}
		f, err := file.Open()
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "failed to open uploaded file")
		}
		defer f.Close()
		body = f
	}

	wb, err := source.OpenReader(body)
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return nil, he
		}
		if errors.Is(err, source.ErrFileTooLarge) {
			return nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge, err.Error())
		}
		return nil, echo.NewHTTPError(http.StatusBadRequest, "body is not a valid xlsx workbook")
	}
	return wb, nil
}

// httpError maps service errors to HTTP responses. Structural failures carry
// the section and row so authors can find the problem in the sheet.
func httpError(err error) error {
	var se *extract.StructuralError
	switch {
	case errors.As(err, &se):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, map[string]interface{}{
			"message": se.Error(),
			"kind":    se.Kind.Error(),
			"section": se.Section,
			"row":     se.Row,
		})
	case errors.Is(err, source.ErrSheetNotFound), errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNoStore):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
