package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRecorder(t *testing.T) {
	var r Recorder
	ctx := context.Background()

	r.Error(ctx, "boom")
	r.Success(ctx, "saved")
	r.Error(ctx, "again")

	notices := r.Notices()
	if len(notices) != 3 {
		t.Fatalf("len(Notices()) = %d, want 3", len(notices))
	}
	if notices[1].Level != LevelSuccess || notices[1].Message != "saved" {
		t.Errorf("Notices()[1] = %+v", notices[1])
	}

	errs := r.Errors()
	if len(errs) != 2 || errs[0] != "boom" || errs[1] != "again" {
		t.Errorf("Errors() = %v, want [boom again]", errs)
	}
}

func TestMulti(t *testing.T) {
	var a, b Recorder
	m := Multi{&a, &b, Log{}}

	m.Error(context.Background(), "x")
	m.Success(context.Background(), "y")

	if len(a.Notices()) != 2 || len(b.Notices()) != 2 {
		t.Errorf("fan-out incomplete: a=%v b=%v", a.Notices(), b.Notices())
	}
}

func TestNTFY(t *testing.T) {
	type got struct {
		body, tags, priority string
	}
	received := make(chan got, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received <- got{string(body), r.Header.Get("Tags"), r.Header.Get("Priority")}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NTFY{Endpoint: srv.URL, Client: srv.Client()}
	n.Error(context.Background(), "service error")

	g := <-received
	if g.body != "service error" {
		t.Errorf("body = %q, want %q", g.body, "service error")
	}
	if g.tags != "error" || g.priority != "high" {
		t.Errorf("headers tags=%q priority=%q", g.tags, g.priority)
	}
}

func TestSend_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if err := Send(context.Background(), srv.Client(), srv.URL, LevelSuccess, "ok"); err == nil {
		t.Error("Send() error = nil, want status error")
	}

	// Delivery failure is swallowed by the sink.
	NTFY{Endpoint: srv.URL, Client: srv.Client()}.Success(context.Background(), "ok")
}
