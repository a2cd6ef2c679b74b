package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLastAppliedTimestampSetOnApply(t *testing.T) {
	m := NewManager(readyReconciler(), logr.Discard())

	before := float64(time.Now().Unix())
	require.NoError(t, m.Dispatch(context.Background(), EventInstall))

	assert.GreaterOrEqual(t, testutil.ToFloat64(lastApplied), before)
}

func TestStateGaugeTracksCurrentState(t *testing.T) {
	rec := readyReconciler()
	rec.relationReason = "Waiting for kube-control"
	m := NewManager(rec, logr.Discard())

	require.NoError(t, m.Dispatch(context.Background(), EventInstall))

	assert.Equal(t, 1.0, testutil.ToFloat64(currentState.WithLabelValues(string(StateWaiting))))
	assert.Equal(t, 0.0, testutil.ToFloat64(currentState.WithLabelValues(string(StateActive))))
}
