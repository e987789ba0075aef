package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sollo/sheet-admin/internal/api/metrics"
	"github.com/sollo/sheet-admin/internal/core/domain"
	"github.com/sollo/sheet-admin/internal/core/ports"
)

const (
	maxRecordBody         = 1 << 20
	defaultUploadMaxBytes = 10 << 20
)

// RecordHandler proxies record CRUD to the spreadsheet store and accepts
// bulk uploads.
type RecordHandler struct {
	records        ports.RecordService
	uploadMaxBytes int64
}

// NewRecordHandler returns a RecordHandler. uploadMaxBytes <= 0 selects a
// 10 MiB limit.
func NewRecordHandler(records ports.RecordService, uploadMaxBytes int64) *RecordHandler {
	if uploadMaxBytes <= 0 {
		uploadMaxBytes = defaultUploadMaxBytes
	}
	return &RecordHandler{records: records, uploadMaxBytes: uploadMaxBytes}
}

// List returns the upstream record list verbatim.
//
// @Summary      List records
// @Tags         records
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  object
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /records [get]
func (h *RecordHandler) List(c echo.Context) error {
	rec, err := h.records.List(c.Request().Context())
	observeRecord("list", err)
	if err != nil {
		return err
	}
	return c.JSONBlob(http.StatusOK, rec)
}

// Create appends a record.
//
// @Summary      Create record
// @Tags         records
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      object  true  "Record fields"
// @Success      200   {object}  object
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /records [post]
func (h *RecordHandler) Create(c echo.Context) error {
	body, err := readJSONBody(c)
	if err != nil {
		return err
	}
	rec, err := h.records.Create(c.Request().Context(), body)
	observeRecord("create", err)
	if err != nil {
		return err
	}
	return c.JSONBlob(http.StatusOK, rec)
}

// Update patches the record at a row index.
//
// @Summary      Update record
// @Tags         records
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        index  path      int     true  "Row index"
// @Param        body   body      object  true  "Fields to change"
// @Success      200    {object}  object
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Failure      502    {object}  map[string]string
// @Failure      503    {object}  map[string]string
// @Router       /records/{index} [patch]
func (h *RecordHandler) Update(c echo.Context) error {
	index, err := parseIndex(c)
	if err != nil {
		return err
	}
	body, err := readJSONBody(c)
	if err != nil {
		return err
	}
	rec, err := h.records.Update(c.Request().Context(), index, body)
	observeRecord("update", err)
	if err != nil {
		return err
	}
	return c.JSONBlob(http.StatusOK, rec)
}

// Delete removes the record at a row index. Admin only.
//
// @Summary      Delete record
// @Tags         records
// @Produce      json
// @Security     BearerAuth
// @Param        index  path      int  true  "Row index"
// @Success      200    {object}  object
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Failure      403    {object}  map[string]string
// @Failure      502    {object}  map[string]string
// @Failure      503    {object}  map[string]string
// @Router       /records/{index} [delete]
func (h *RecordHandler) Delete(c echo.Context) error {
	index, err := parseIndex(c)
	if err != nil {
		return err
	}
	rec, err := h.records.Delete(c.Request().Context(), index)
	observeRecord("delete", err)
	if err != nil {
		return err
	}
	return c.JSONBlob(http.StatusOK, rec)
}

// Upload imports every data row of an .xlsx or .csv file as a new record.
//
// @Summary      Bulk upload
// @Tags         records
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file  true  "Spreadsheet (.xlsx or .csv)"
// @Success      200   {object}  domain.ImportResult
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /upload [post]
func (h *RecordHandler) Upload(c echo.Context) error {
	req := c.Request()
	req.Body = http.MaxBytesReader(c.Response(), req.Body, h.uploadMaxBytes)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.NewValidationError("file exceeds %d bytes", h.uploadMaxBytes)
		}
		return domain.NewValidationError("file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return domain.NewValidationError("cannot read uploaded file")
	}
	defer f.Close()

	result, err := h.records.Import(req.Context(), fh.Filename, f)
	if err != nil {
		return err
	}
	metrics.ImportRowsTotal.WithLabelValues("imported").Add(float64(result.Imported))
	metrics.ImportRowsTotal.WithLabelValues("failed").Add(float64(result.Failed))
	return c.JSON(http.StatusOK, result)
}

func parseIndex(c echo.Context) (int, error) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		return 0, domain.NewValidationError("record index must be a non-negative integer")
	}
	return index, nil
}

// readJSONBody returns the request body untouched once it is known to be JSON.
func readJSONBody(c echo.Context) (domain.Record, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxRecordBody+1))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid payload").SetInternal(err)
	}
	if len(body) > maxRecordBody {
		return nil, domain.NewValidationError("request body exceeds %d bytes", maxRecordBody)
	}
	if !json.Valid(body) {
		return nil, domain.NewValidationError("request body must be valid JSON")
	}
	return domain.Record(body), nil
}

func observeRecord(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.RecordRequestsTotal.WithLabelValues(op, outcome).Inc()
}
