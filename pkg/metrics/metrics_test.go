package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("/ajax/friendships/friends", "ok"))
	ObserveRequest("/ajax/friendships/friends", "ok", 120*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("/ajax/friendships/friends", "ok"))

	assert.Equal(t, before+1, after)
}
