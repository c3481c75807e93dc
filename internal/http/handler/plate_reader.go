package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"platereader/internal/http/middleware"
	"platereader/internal/model"
	"platereader/internal/service"
)

// ImageField is the multipart field the proxy endpoint reads.
const ImageField = "image"

// PlateResponse mirrors the recognizer's results array under the "plate" key.
type PlateResponse struct {
	Plate []model.Detection `json:"plate"`
}

// ReadPlate relays one uploaded image to the plate recognizer.
//
// @Summary      Read license plates from an image
// @Tags         plates
// @Accept       multipart/form-data
// @Produce      json
// @Param        image  formData  file  true  "Vehicle image"
// @Success      200  {object}  PlateResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /api/plate-reader [post]
func ReadPlate(svc service.PlateReaderService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile(ImageField)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, MsgNoImage)
		}

		rid := middleware.RequestIDFrom(c)
		reqLog := log.With(zap.String("request_id", rid))
		if sc := trace.SpanContextFromContext(c.UserContext()); sc.HasTraceID() {
			reqLog = reqLog.With(zap.String("trace_id", sc.TraceID().String()))
		}

		f, err := fh.Open()
		if err != nil {
			reqLog.Error("plate_reader_open_failed", zap.String("error", err.Error()))
			return writeError(c, fiber.StatusInternalServerError, MsgInternal)
		}
		defer f.Close()

		dets, err := svc.Read(c.UserContext(), service.ImageUpload{
			Reader:      f,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			RequestID:   rid,
		})
		if err != nil {
			reqLog.Error("plate_reader_failed", zap.String("error", err.Error()))
			return writeError(c, fiber.StatusInternalServerError, MsgInternal)
		}
		return c.JSON(PlateResponse{Plate: dets})
	}
}

// AuditSummary reports aggregate counts from the recognition audit log.
//
// @Summary      Recognition audit summary
// @Tags         audit
// @Produce      json
// @Param        window  query  string  false  "Look-back window, Go duration syntax"  default(24h)
// @Success      200  {object}  repository.AuditSummary
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /api/audit/summary [get]
func AuditSummary(svc service.PlateReaderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		window, err := time.ParseDuration(c.Query("window", "24h"))
		if err != nil || window <= 0 {
			return writeError(c, fiber.StatusBadRequest, "Invalid window")
		}

		res, err := svc.AuditSummary(c.UserContext(), window)
		if err != nil {
			if errors.Is(err, service.ErrAuditDisabled) {
				return writeError(c, fiber.StatusNotFound, "Not Found")
			}
			return writeError(c, fiber.StatusInternalServerError, MsgInternal)
		}
		return c.JSON(res)
	}
}
