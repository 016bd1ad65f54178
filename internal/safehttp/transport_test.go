package safehttp

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewTransport_RejectsLoopback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := &http.Client{Transport: NewTransport()}
	_, err := client.Get(srv.URL)
	if err == nil {
		t.Fatal("expected loopback dial to be refused")
	}
	if !strings.Contains(err.Error(), "access to private IP") {
		t.Errorf("error = %v, want private IP denial", err)
	}
}
