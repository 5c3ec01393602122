package echo

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	app "github.com/mohammadpnp/member-import/internal/application/member"
	"github.com/mohammadpnp/member-import/internal/logging"
)

type MemberHandler struct {
	useCase app.GetMemberByID
}

func NewMemberHandler(useCase app.GetMemberByID) *MemberHandler {
	return &MemberHandler{useCase: useCase}
}

func (h *MemberHandler) GetMemberByID(c echo.Context) error {
	out, err := h.useCase.Execute(c.Request().Context(), app.GetMemberByIDInput{
		ClubID: c.Param("clubID"),
		ID:     c.Param("id"),
	})
	if err != nil {
		if errors.Is(err, app.ErrInvalidMemberID) {
			return respondError(c, http.StatusBadRequest, CodeBadRequest, "club id and member id must be valid UUIDs")
		}
		if errors.Is(err, app.ErrMemberNotFound) {
			return respondError(c, http.StatusNotFound, CodeNotFound, "member not found")
		}

		logging.FromContext(c.Request().Context()).WithError(err).Error("failed to get member")
		return respondError(c, http.StatusInternalServerError, CodeInternalError, "failed to get member")
	}

	return c.JSON(http.StatusOK, apiResponse{Data: out})
}
