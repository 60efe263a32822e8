package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type readiness bool

func (r readiness) Ready() bool { return bool(r) }

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for _, ready := range []bool{true, false} {
		router := gin.New()
		router.GET("/health", Handler(readiness(ready)))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusOK, w.Code)

		var resp Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, ready, resp.IndexReady)
		assert.False(t, resp.Timestamp.IsZero())
	}
}
