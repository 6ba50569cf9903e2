package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegister_Idempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestStageTotal_CountsByLabel(t *testing.T) {
	before := testutil.ToFloat64(StageTotal.WithLabelValues("tests", "skipped"))
	StageTotal.WithLabelValues("tests", "skipped").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(StageTotal.WithLabelValues("tests", "skipped")))
}
