package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRegisterTwiceIsNoError(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg))
	require.NoError(t, Register(reg))
}

func TestTokensIssuedCounter(t *testing.T) {
	before := testutil.ToFloat64(TokensIssued.WithLabelValues("access"))
	TokensIssued.WithLabelValues("access").Inc()
	require.Equal(t, before+1, testutil.ToFloat64(TokensIssued.WithLabelValues("access")))
}
