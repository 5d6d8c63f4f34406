package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"
)

func bindJSONBytes(body []byte, target any) error {
	return json.Unmarshal(body, target)
}

func parseRFC3339(value string) (time.Time, error) {
	return time.Parse(time.RFC3339, value)
}

// mapInternalError logs an unexpected error and returns an opaque 500,
// mirroring pkg/api/errors.go's mapServiceError fallback branch.
func mapInternalError(err error) *echo.HTTPError {
	slog.Error("unexpected httpapi error", "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
