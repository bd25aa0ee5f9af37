package api

import (
	"net/http"

	"github.com/Domenick1991/medcare/internal/domain"
	"github.com/gin-gonic/gin"
)

// errorResponse is the single failure envelope for every endpoint.
type errorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func writeError(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	c.JSON(statusFor(kind), errorResponse{Kind: string(kind), Message: err.Error()})
}

func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
