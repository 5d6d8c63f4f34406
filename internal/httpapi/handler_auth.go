package httpapi

import (
	"errors"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/carlosapgomes/eda-triage/ent/user"
	"github.com/carlosapgomes/eda-triage/internal/admin"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"token"`
	Role      string `json:"role"`
	ExpiresAt string `json:"expires_at"`
}

func (s *Server) loginHandler(c *echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed JSON body")
	}

	issued, err := s.auth.Login(c.Request().Context(), req.Email, req.Password, c.Request().RemoteAddr)
	if err != nil {
		if errors.Is(err, admin.ErrInvalidCredentials) || errors.Is(err, admin.ErrAccountNotActive) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		}
		return mapInternalError(err)
	}

	u, err := s.client.User.Query().Where(user.Email(req.Email)).Only(c.Request().Context())
	if err != nil {
		return mapInternalError(err)
	}

	return c.JSON(http.StatusOK, loginResponse{
		Token:     issued.Token,
		Role:      string(u.Role),
		ExpiresAt: issued.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}
