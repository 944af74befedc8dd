package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type observation struct {
	method string
	path   string
	status int
}

type recorder struct{ got []observation }

func (r *recorder) ObserveHTTP(method, path string, status int, _ time.Duration) {
	r.got = append(r.got, observation{method, path, status})
}

func TestMetricsMiddleware_UsesRouteTemplate(t *testing.T) {
	obs := &recorder{}
	r := mux.NewRouter()
	r.Use(MetricsMiddleware(obs))
	r.HandleFunc("/exports/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}).Methods(http.MethodGet)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/exports/42", nil))

	require.Len(t, obs.got, 1)
	assert.Equal(t, observation{http.MethodGet, "/exports/{id}", http.StatusAccepted}, obs.got[0])
}
