package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordProviderRequest(t *testing.T) {
	before := testutil.ToFloat64(ProviderRequests.WithLabelValues("gemini", "error"))
	RecordProviderRequest("gemini", 5*time.Millisecond, errors.New("boom"))
	RecordProviderRequest("gemini", 5*time.Millisecond, nil)

	if got := testutil.ToFloat64(ProviderRequests.WithLabelValues("gemini", "error")); got != before+1 {
		t.Errorf("error counter = %v, want %v", got, before+1)
	}
}

func TestRecordStoreOperation(t *testing.T) {
	before := testutil.ToFloat64(StoreOperations.WithLabelValues("memory", "replace", "ok"))
	RecordStoreOperation("memory", "replace", nil)
	if got := testutil.ToFloat64(StoreOperations.WithLabelValues("memory", "replace", "ok")); got != before+1 {
		t.Errorf("store counter = %v, want %v", got, before+1)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequests.WithLabelValues("POST", "/api/youtube-recommendations", "400"))
	RecordAPIRequest("POST", "/api/youtube-recommendations", 400, time.Millisecond)
	if got := testutil.ToFloat64(APIRequests.WithLabelValues("POST", "/api/youtube-recommendations", "400")); got != before+1 {
		t.Errorf("api counter = %v, want %v", got, before+1)
	}
}
