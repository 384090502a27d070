package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordLikeToggle(t *testing.T) {
	liked := testutil.ToFloat64(LikeToggles.WithLabelValues("liked"))
	unliked := testutil.ToFloat64(LikeToggles.WithLabelValues("unliked"))

	RecordLikeToggle(true)
	RecordLikeToggle(false)
	RecordLikeToggle(false)

	assert.Equal(t, liked+1, testutil.ToFloat64(LikeToggles.WithLabelValues("liked")))
	assert.Equal(t, unliked+2, testutil.ToFloat64(LikeToggles.WithLabelValues("unliked")))
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/api/login", "401"))

	RecordAPIRequest("POST", "/api/login", 401, 15*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/api/login", "401")))
}

func TestRecordCompletion(t *testing.T) {
	before := testutil.ToFloat64(CompletionRequests.WithLabelValues("groq", "rejected"))

	RecordCompletion("groq", "rejected", 0)

	assert.Equal(t, before+1, testutil.ToFloat64(CompletionRequests.WithLabelValues("groq", "rejected")))
}
