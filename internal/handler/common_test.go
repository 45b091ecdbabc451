package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(target string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestGetUserIDAcceptsNumericTypes(t *testing.T) {
	for _, v := range []interface{}{uint64(9), int(9), int64(9), float64(9), "9"} {
		c := newTestContext("/")
		c.Set("user_id", v)
		id, err := getUserID(c)
		require.NoError(t, err)
		assert.Equal(t, uint64(9), id)
	}
}

func TestGetUserIDRejectsGarbage(t *testing.T) {
	c := newTestContext("/")
	_, err := getUserID(c)
	assert.Error(t, err)

	c.Set("user_id", "not-a-number")
	_, err = getUserID(c)
	assert.Error(t, err)
}

func TestParseIDParam(t *testing.T) {
	c := newTestContext("/")
	c.SetParamNames("id")
	c.SetParamValues("17")
	id, err := parseIDParam(c, "id")
	require.NoError(t, err)
	assert.Equal(t, uint64(17), id)

	c.SetParamValues("0")
	_, err = parseIDParam(c, "id")
	assert.Error(t, err)

	c.SetParamValues("abc")
	_, err = parseIDParam(c, "id")
	assert.Error(t, err)
}

func TestPageParams(t *testing.T) {
	c := newTestContext("/?limit=10&offset=30")
	limit, offset := pageParams(c, 50, 200)
	assert.Equal(t, 10, limit)
	assert.Equal(t, 30, offset)

	c = newTestContext("/")
	limit, offset = pageParams(c, 50, 200)
	assert.Equal(t, 50, limit)
	assert.Equal(t, 0, offset)

	c = newTestContext("/?limit=9999&offset=-4")
	limit, offset = pageParams(c, 50, 200)
	assert.Equal(t, 200, limit)
	assert.Equal(t, 0, offset)
}
