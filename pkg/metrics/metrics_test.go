package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_ObserveOperation(t *testing.T) {
	r := NewRecorder("bank")
	r.ObserveOperation("deposit", "ok")
	r.ObserveOperation("deposit", "ok")
	r.ObserveOperation("withdraw", "insufficient_funds")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.operations.WithLabelValues("deposit", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.operations.WithLabelValues("withdraw", "insufficient_funds")))
	assert.Equal(t, 2, testutil.CollectAndCount(r.operations))
}

func TestRecorder_Handler(t *testing.T) {
	r := NewRecorder("bank")
	r.ObserveOperation("create_customer", "ok")

	srv := httptest.NewServer(NewServer(":0", r).Handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `bank_operations_total{operation="create_customer",outcome="ok"} 1`)
}
