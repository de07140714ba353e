package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{NotFound("x"), http.StatusNotFound},
		{Validation("x"), http.StatusBadRequest},
		{Conflict("x"), http.StatusConflict},
		{Unauthorized("x"), http.StatusUnauthorized},
		{Forbidden("x"), http.StatusForbidden},
		{Upstream("x", errors.New("boom")), http.StatusBadGateway},
		{Unavailable("x"), http.StatusServiceUnavailable},
		{Internal("x"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.err.HTTPStatus(), tc.err.Message)
	}
}

func TestIsSeesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("get audit: %w", NotFound("audit not found"))

	assert.True(t, Is(err, KindNotFound))
	assert.False(t, Is(err, KindConflict))
	assert.Equal(t, KindNotFound, GetKind(err))
	assert.False(t, Is(errors.New("plain"), KindNotFound))
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Wrap(KindUnavailable, "queue unavailable", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "queue unavailable", err.Error())
	assert.Equal(t, http.StatusServiceUnavailable, err.HTTPStatus())
}

func TestUnknownKindIsBadRequest(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, New(KindUnknown, "odd").HTTPStatus())
}
