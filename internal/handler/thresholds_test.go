package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"autotrader/internal/core"
	"autotrader/internal/gate"
)

func newThresholdEngine(authToken string) (*gin.Engine, *gate.Gate) {
	gin.SetMode(gin.TestMode)
	g := &gate.Gate{Config: gate.Config{DefaultThreshold: 0.60, MinBound: 0.05, MaxBound: 0.95}}
	g.Load(context.Background())
	engine := gin.New()
	h := &ThresholdHandler{Gate: g, AuthToken: authToken}
	h.Register(engine)
	return engine, g
}

func putThreshold(engine *gin.Engine, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPut, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestPutThresholdApplies(t *testing.T) {
	engine, g := newThresholdEngine("")

	w := putThreshold(engine, "/api/thresholds/stocks/momentum", `{"value":0.70}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d want=200 body=%s", w.Code, w.Body.String())
	}
	value, ok := g.Threshold(core.StrategyKey{Module: core.ModuleStocks, Strategy: "momentum"})
	if !ok || value != 0.70 {
		t.Fatalf("threshold=%v ok=%v want=0.70", value, ok)
	}
	var resp apiResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Code != 0 {
		t.Fatalf("code=%d want=0", resp.Code)
	}
}

func TestPutThresholdOutOfBandRejected(t *testing.T) {
	engine, g := newThresholdEngine("")
	key := core.StrategyKey{Module: core.ModuleStocks, Strategy: "momentum"}
	if err := g.SetThreshold(context.Background(), key, 0.60, gate.SourceManual); err != nil {
		t.Fatalf("seed threshold: %v", err)
	}

	for _, body := range []string{`{"value":0.96}`, `{"value":0.04}`, `{"value":-1}`} {
		w := putThreshold(engine, "/api/thresholds/stocks/momentum", body, "")
		if w.Code != http.StatusUnprocessableEntity {
			t.Fatalf("body=%s status=%d want=422", body, w.Code)
		}
	}
	// The rejected values never reach the table.
	if value, _ := g.Threshold(key); value != 0.60 {
		t.Fatalf("threshold=%v want unchanged 0.60", value)
	}
}

func TestPutThresholdUnknownModule(t *testing.T) {
	engine, _ := newThresholdEngine("")

	w := putThreshold(engine, "/api/thresholds/futures/momentum", `{"value":0.70}`, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d want=400", w.Code)
	}
}

func TestPutThresholdRequiresToken(t *testing.T) {
	engine, g := newThresholdEngine("secret")

	w := putThreshold(engine, "/api/thresholds/stocks/momentum", `{"value":0.70}`, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d want=401 without token", w.Code)
	}
	if _, ok := g.Threshold(core.StrategyKey{Module: core.ModuleStocks, Strategy: "momentum"}); ok {
		t.Fatalf("threshold set despite rejected auth")
	}

	w = putThreshold(engine, "/api/thresholds/stocks/momentum", `{"value":0.70}`, "secret")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d want=200 with token", w.Code)
	}
}
