package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/yungbote/groupbuy-settlement/internal/pkg/ctxutil"
)

func traceRouter(seen *ctxutil.TraceData) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	r.GET("/x", func(c *gin.Context) {
		if td := ctxutil.GetTraceData(c.Request.Context()); td != nil {
			*seen = *td
		}
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestAttachTraceContextUsesTraceparent(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	var seen ctxutil.TraceData
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	traceRouter(&seen).ServeHTTP(rec, req)

	if seen.TraceID != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Fatalf("trace id: want=4bf92f3577b34da6a3ce929d0e0e4736 got=%s", seen.TraceID)
	}
	if rec.Header().Get(headerTraceID) != seen.TraceID {
		t.Fatalf("response trace header: got=%s", rec.Header().Get(headerTraceID))
	}
}

func TestAttachTraceContextHonoursExplicitIDs(t *testing.T) {
	var seen ctxutil.TraceData
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(headerTraceID, "trace-1")
	req.Header.Set(headerRequestID, "req-1")
	rec := httptest.NewRecorder()
	traceRouter(&seen).ServeHTTP(rec, req)

	if seen.TraceID != "trace-1" || seen.RequestID != "req-1" {
		t.Fatalf("ids: want=trace-1/req-1 got=%s/%s", seen.TraceID, seen.RequestID)
	}
}

func TestAttachTraceContextGeneratesIDs(t *testing.T) {
	var seen ctxutil.TraceData
	rec := httptest.NewRecorder()
	traceRouter(&seen).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if seen.TraceID == "" || seen.RequestID == "" {
		t.Fatalf("generated ids missing: %+v", seen)
	}
	if rec.Header().Get(headerRequestID) != seen.RequestID {
		t.Fatalf("response request header: got=%s", rec.Header().Get(headerRequestID))
	}
}
