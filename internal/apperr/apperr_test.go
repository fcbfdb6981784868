package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("missing field"), http.StatusBadRequest},
		{Authentication("no token"), http.StatusUnauthorized},
		{Authorization("not yours"), http.StatusForbidden},
		{NotFound("order %s not found", "x"), http.StatusNotFound},
		{Conflict("already paid"), http.StatusBadRequest},
		{InvalidState("cannot cancel"), http.StatusBadRequest},
		{Unavailable("sold out"), http.StatusBadRequest},
		{Capacity("slot full"), http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, StatusCode(c.err), c.err.Error())
	}
}

func TestWrappedErrorKeepsKind(t *testing.T) {
	err := fmt.Errorf("creating order: %w", NotFound("menu item %s not found", "m1"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
	assert.Equal(t, "not_found", Kind(err))
	assert.Equal(t, "internal_error", Kind(errors.New("plain")))
}
