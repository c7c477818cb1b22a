package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/querykit/v1/observability"
	"github.com/Aleph-Alpha/querykit/v1/queryerr"
)

func TestObserveQuery(t *testing.T) {
	m := NewMetrics(Config{ServiceName: "querykit"})

	m.ObserveOperation(observability.OperationContext{Component: "catalog", Operation: "query", Resource: "game", SubResource: "external"})
	m.ObserveOperation(observability.OperationContext{Component: "catalog", Operation: "query", Resource: "game", SubResource: "external"})
	m.ObserveOperation(observability.OperationContext{
		Component: "catalog", Operation: "query", Resource: "game", SubResource: "invalid",
		Error: queryerr.InvalidField("game", "colour", "not declared"),
	})
	m.ObserveOperation(observability.OperationContext{
		Component: "catalog", Operation: "query", Resource: "savedata", SubResource: "local",
		Error: queryerr.Backend("find in savedatas", errors.New("timeout")),
	})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.queriesTotal.WithLabelValues("game", "external")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queryErrorsTotal.WithLabelValues("game", "client")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queryErrorsTotal.WithLabelValues("savedata", "backend")))
	assert.Equal(t, 0, testutil.CollectAndCount(m.backendDuration))
}

func TestObserveBackend(t *testing.T) {
	m := NewMetrics(Config{ServiceName: "querykit"})

	m.ObserveOperation(observability.OperationContext{Component: "igdb", Operation: "execute", Duration: 120 * time.Millisecond})
	m.ObserveOperation(observability.OperationContext{Component: "igdb", Operation: "execute", Error: errors.New("502")})
	m.ObserveOperation(observability.OperationContext{Component: "docstore", Operation: "distinct"})

	assert.Equal(t, 2, testutil.CollectAndCount(m.backendDuration))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.backendErrors.WithLabelValues("igdb", "execute")))
}

func TestHandlerServesServiceLabel(t *testing.T) {
	m := NewMetrics(Config{ServiceName: "querykit", Namespace: "qk"})
	m.ObserveOperation(observability.OperationContext{Component: "catalog", Operation: "query", Resource: "tag", SubResource: "local"})

	extra := m.CreateCounter("deletions_total", "Deleted entities.", []string{"entity"})
	extra.WithLabelValues("user").Add(3)

	rec := httptest.NewRecorder()
	m.Server.Handler.ServeHTTP(rec, httptest.NewRequest("GET", DefaultPath, nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `qk_queries_total{entity="tag",mode="local",service="querykit"} 1`)
	assert.Contains(t, string(body), `qk_deletions_total{entity="user",service="querykit"} 3`)
	assert.Equal(t, DefaultMetricsAddress, m.Server.Addr)
}
