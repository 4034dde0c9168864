package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRegisterCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	RegisterCollectors(reg)

	DocumentOps.WithLabelValues("create", ResultOK).Inc()
	AuthChecks.WithLabelValues(ResultDenied).Inc()

	n, err := testutil.GatherAndCount(reg, "portal_document_operations_total", "portal_auth_checks_total")
	require.NoError(t, err)
	require.GreaterOrEqual(t, n, 2)

	require.Panics(t, func() { RegisterCollectors(reg) })
}
