package httpapi

import (
	"net/http"
	"strconv"

	echo "github.com/labstack/echo/v5"

	"github.com/carlosapgomes/eda-triage/ent"
)

func (s *Server) listPromptsHandler(c *echo.Context) error {
	prompts, err := s.prompts.List(c.Request().Context())
	if err != nil {
		return mapInternalError(err)
	}
	return c.JSON(http.StatusOK, prompts)
}

type createPromptRequest struct {
	Name    string `json:"name"`
	Version int    `json:"version"`
	Content string `json:"content"`
}

func (s *Server) createPromptHandler(c *echo.Context) error {
	var req createPromptRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed JSON body")
	}
	prompt, err := s.prompts.Create(c.Request().Context(), req.Name, req.Version, req.Content)
	if err != nil {
		return mapInternalError(err)
	}
	return c.JSON(http.StatusCreated, prompt)
}

func (s *Server) activatePromptHandler(c *echo.Context) error {
	name := c.Param("name")
	version, err := strconv.Atoi(c.Param("version"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "version must be an integer")
	}
	if err := s.prompts.Activate(c.Request().Context(), name, version); err != nil {
		return mapInternalError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) listUsersHandler(c *echo.Context) error {
	users, err := s.users.List(c.Request().Context())
	if err != nil {
		return mapInternalError(err)
	}
	return c.JSON(http.StatusOK, users)
}

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (s *Server) createUserHandler(c *echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed JSON body")
	}
	u, err := s.users.CreateUser(c.Request().Context(), req.Email, req.Password, req.Role)
	if err != nil {
		return mapInternalError(err)
	}
	return c.JSON(http.StatusCreated, u)
}

func (s *Server) listCasesHandler(c *echo.Context) error {
	cases, err := s.client.TriageCase.Query().
		Order(ent.Desc("created_at")).
		Limit(100).
		All(c.Request().Context())
	if err != nil {
		return mapInternalError(err)
	}
	return c.JSON(http.StatusOK, cases)
}

func (s *Server) getCaseHandler(c *echo.Context) error {
	caseRecord, err := s.client.TriageCase.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if ent.IsNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "case not found")
		}
		return mapInternalError(err)
	}
	return c.JSON(http.StatusOK, caseRecord)
}
