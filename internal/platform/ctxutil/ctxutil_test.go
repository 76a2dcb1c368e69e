package ctxutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestRequestDataRoundTrip(t *testing.T) {
	if GetRequestData(context.Background()) != nil {
		t.Fatalf("empty context should carry no request data")
	}
	id := uuid.New()
	ctx := WithRequestData(context.Background(), &RequestData{UserID: id, Role: "parent"})
	rd := GetRequestData(ctx)
	if rd == nil || rd.UserID != id || rd.Role != "parent" {
		t.Fatalf("request data = %+v", rd)
	}
}

func TestLogFields(t *testing.T) {
	if f := LogFields(context.Background()); f != nil {
		t.Fatalf("no trace data should give nil, got %v", f)
	}
	ctx := WithTraceData(context.Background(), &TraceData{RequestID: "r-1"})
	f := LogFields(ctx)
	if len(f) != 2 || f[0] != "request_id" || f[1] != "r-1" {
		t.Fatalf("fields = %v", f)
	}
}
