package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/handler/http/response"
)

// maxDevicePushBytes bounds a single terminal upload.
const maxDevicePushBytes = 4 << 20

// DeviceHandler speaks the push protocol of biometric terminals. Terminals
// retry anything other than a plain "OK", so every push is acknowledged.
type DeviceHandler interface {
	Handshake(w http.ResponseWriter, r *http.Request)
	Push(w http.ResponseWriter, r *http.Request)
}

type deviceHandlerImpl struct {
	ingestionService attendance.IngestionService
}

func NewDeviceHandler(ingestionService attendance.IngestionService) DeviceHandler {
	return &deviceHandlerImpl{
		ingestionService: ingestionService,
	}
}

// Handshake implements DeviceHandler.
func (h *deviceHandlerImpl) Handshake(w http.ResponseWriter, r *http.Request) {
	slog.Debug("device handshake", "serial", r.URL.Query().Get("SN"))
	response.PlainText(w, "OK")
}

// Push implements DeviceHandler.
func (h *deviceHandlerImpl) Push(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxDevicePushBytes)
	defer body.Close()

	h.ingestionService.Ingest(r.Context(), r.URL.Query().Get("SN"), body)
	response.PlainText(w, "OK")
}
