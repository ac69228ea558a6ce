package huggingface

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"meetscribe/internal/services"
)

func TestValidateReturnsAccount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer hf_good" {
			t.Errorf("unexpected auth header %q", got)
		}
		_, _ = w.Write([]byte(`{"name":"octo","auth":{"accessToken":{"role":"read"}}}`))
	}))
	defer server.Close()

	client := NewClient(WithEndpoint(server.URL), WithHTTPClient(server.Client()))
	account, err := client.Validate(context.Background(), " hf_good ")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if account.Name != "octo" || account.Role != "read" {
		t.Fatalf("unexpected account %+v", account)
	}
}

func TestValidateUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := NewClient(WithEndpoint(server.URL)).Validate(context.Background(), "hf_bad")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration marker, got %v", err)
	}
}

func TestValidateUnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewClient(WithEndpoint(server.URL)).Validate(context.Background(), "hf_x")
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestValidateEmptyToken(t *testing.T) {
	if _, err := NewClient().Validate(context.Background(), "  "); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestValidateDefaultsAccountName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	account, err := NewClient(WithEndpoint(server.URL)).Validate(context.Background(), "hf_x")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if account.Name != "huggingface" {
		t.Fatalf("expected fallback account name, got %q", account.Name)
	}
}
