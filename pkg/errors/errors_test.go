package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructorsCarryStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, NotFound("gone").Code)
	assert.Equal(t, http.StatusBadRequest, BadRequest("nope").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, Unprocessable("too short").Code)
	assert.Equal(t, http.StatusInternalServerError, Internal(errors.New("boom"), "failed").Code)
}

func TestErrorIncludesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Internal(cause, "snapshot failed")

	assert.Equal(t, "snapshot failed: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "gone", NotFound("gone").Error())
}

func TestGetStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, GetStatusCode(NotFound("gone")))
	assert.Equal(t, http.StatusInternalServerError, GetStatusCode(errors.New("plain")))

	wrapped := fmt.Errorf("while exporting: %w", BadRequest("bad format"))
	assert.Equal(t, http.StatusBadRequest, GetStatusCode(wrapped))
}
