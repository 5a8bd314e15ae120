package common

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/menu-recommendation/api/internal/public/domain"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestWriteDomainError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteDomainError(nil, rec, &domain.ValidationError{Field: "lat", Message: "lat の値が不正です"}, "x")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "lat", decodeBody(t, rec)["field"])

	rec = httptest.NewRecorder()
	WriteDomainError(nil, rec, domain.NewProviderError("places", domain.StatusQuotaExceeded, nil), "x")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "OVER_QUERY_LIMIT", decodeBody(t, rec)["status"])

	rec = httptest.NewRecorder()
	WriteDomainError(nil, rec, errors.New("boom"), "取得に失敗しました")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "取得に失敗しました", decodeBody(t, rec)["error"])
}

func TestParseCoordinate(t *testing.T) {
	c, err := ParseCoordinate(url.Values{}, "lat", "lng")
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = ParseCoordinate(url.Values{"lat": {"37.5665"}, "lng": {"126.978"}}, "lat", "lng")
	require.NoError(t, err)
	assert.Equal(t, 126.978, c.Lng)

	_, err = ParseCoordinate(url.Values{"lat": {"37.5"}}, "lat", "lng")
	assert.True(t, domain.IsValidation(err))

	_, err = ParseCoordinate(url.Values{"lat": {"91"}, "lng": {"0"}}, "lat", "lng")
	assert.True(t, domain.IsValidation(err))
}

func TestParsePositiveIntParam(t *testing.T) {
	v, err := ParsePositiveIntParam(url.Values{}, "radius", 1000)
	require.NoError(t, err)
	assert.Equal(t, 1000, v)

	v, err = ParsePositiveIntParam(url.Values{"radius": {" 800 "}}, "radius", 1000)
	require.NoError(t, err)
	assert.Equal(t, 800, v)

	for _, raw := range []string{"abc", "-5", "0", "1.5"} {
		_, err = ParsePositiveIntParam(url.Values{"radius": {raw}}, "radius", 1000)
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr, raw)
		assert.Equal(t, "radius", verr.Field)
	}
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, reason := BearerToken(r)
	assert.NotEmpty(t, reason)

	r.Header.Set("Authorization", "Basic abc")
	_, reason = BearerToken(r)
	assert.NotEmpty(t, reason)

	r.Header.Set("Authorization", "Bearer abc.def")
	token, reason := BearerToken(r)
	assert.Empty(t, reason)
	assert.Equal(t, "abc.def", token)
}
