package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssaraswat/campus-services/internal/repository"
)

func TestOrderTransitionErrorStatusCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"missing order", repository.ErrNotFound, http.StatusNotFound},
		{"wrong source state", repository.ErrConflict, http.StatusConflict},
		{"database failure", errors.New("driver: bad connection"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			require.NoError(t, orderTransitionError(c, tc.err))
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}
