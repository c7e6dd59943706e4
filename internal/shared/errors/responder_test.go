package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

var errDomain = errors.New("order locked")

func serve(t *testing.T, handler gin.HandlerFunc) (*httptest.ResponseRecorder, ProblemDetail) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/v1/work-orders/wo-1", handler)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/work-orders/wo-1", nil))

	var problem ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	return rec, problem
}

func TestChainedResponderUsesFirstMatchingMapper(t *testing.T) {
	responder := NewChainedResponder("https://errors.example",
		func(err error) (ProblemDetail, bool) { return ProblemDetail{}, false },
		func(err error) (ProblemDetail, bool) {
			if errors.Is(err, errDomain) {
				return ErrOrderLocked.WithDetail(err.Error()), true
			}
			return ProblemDetail{}, false
		},
	)
	rec, problem := serve(t, func(c *gin.Context) {
		responder.RespondError(c, errDomain)
	})

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
	require.Equal(t, "https://errors.example"+TypeOrderLocked, problem.Type)
	require.Equal(t, "order locked", problem.Detail)
	require.Equal(t, "/v1/work-orders/wo-1", problem.Instance)
}

func TestUnmappedErrorsHideDetail(t *testing.T) {
	responder := NewChainedResponder("")
	rec, problem := serve(t, func(c *gin.Context) {
		responder.RespondError(c, errors.New("pq: connection refused"))
	})

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, TypeInternal, problem.Type)
	require.Empty(t, problem.Detail)
}

func TestProblemDetailPassesThrough(t *testing.T) {
	rec, problem := serve(t, func(c *gin.Context) {
		DefaultResponder.RespondError(c, ErrNotFound.WithDetail("missing"))
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "missing", problem.Detail)
	require.Equal(t, "Resource Not Found: missing", ErrNotFound.WithDetail("missing").Error())
}
