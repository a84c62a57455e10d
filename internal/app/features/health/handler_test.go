package health

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/buildrite/buildrite/internal/testutil"
	"go.uber.org/zap"
)

func TestServeHealthy(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := NewHandler(db.Client(), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Serve(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if resp.Status != "ok" || resp.Database != "connected" {
		t.Errorf("response = %+v, want ok/connected", resp)
	}
}
