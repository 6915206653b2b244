package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"techbot/internal/app/domains/entity/etdocument"
	"techbot/internal/app/domains/entity/etorder"
	"techbot/internal/app/pkg/errorx"
)

const sampleOrder = `{
  "_id": "rec-1",
  "orderId": "SRVZ-ORD-123456789",
  "orderStatus": {"currentStatus": "technician_working", "state": "Technician WIP"},
  "category": {"name": "AC"},
  "subCategory": {"name": "Split"},
  "brand": {"name": "Voltas"},
  "warranty": "In Warranty",
  "serviceDateTime": "2026-02-01T09:30:00.000Z",
  "isCorporate": false,
  "isPrimeBookOrder": true,
  "documents": [{"type": {"value": 0}}, {"type": {"value": 3}}, {}],
  "parts": [{"name": "PCB", "quantity": 2}],
  "user": {"firstName": "Asha", "mobile": "9000000001"},
  "address": {"address": "12 MG Road", "city": "Pune"},
  "pkg": {"issue": "Not cooling"}
}`

func TestGetOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders/rec-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tech-token" {
			t.Errorf("unexpected authorization %q", got)
		}
		_, _ = io.WriteString(w, `{"payload":`+sampleOrder+`}`)
	}))
	defer srv.Close()

	client := NewOrderClient(srv.URL+"/orders/", srv.URL+"/status", srv.Client())
	order, err := client.GetOrder(context.Background(), "tech-token", "rec-1")
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}

	if order.CurrentStatus.Code != etorder.CodeTechnicianWorking {
		t.Fatalf("unexpected status %+v", order.CurrentStatus)
	}
	wantDocs := []etdocument.Document{{TypeCode: 0}, {TypeCode: 3}, {TypeCode: unknownDocumentCode}}
	if diff := cmp.Diff(wantDocs, order.Documents); diff != "" {
		t.Fatalf("documents mismatch (-want +got):\n%s", diff)
	}
	if !order.Variant.SelfieRequired || order.Variant.Corporate {
		t.Fatalf("unexpected variant %+v", order.Variant)
	}
	if order.CustomerName != "Asha" || order.City != "Pune" || order.Issue != "Not cooling" {
		t.Fatalf("unexpected order details %+v", order)
	}
	if order.ServiceDateTime.IsZero() {
		t.Fatalf("service date not parsed")
	}
	if len(order.Parts) != 1 || order.Parts[0].Quantity != 2 {
		t.Fatalf("unexpected parts %+v", order.Parts)
	}
}

func TestGetOrderUnknownStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"payload":{"_id":"x","orderStatus":{"currentStatus":"bogus"}}}`)
	}))
	defer srv.Close()

	client := NewOrderClient(srv.URL, srv.URL, srv.Client())
	if _, err := client.GetOrder(context.Background(), "t", "x"); !errors.Is(err, errorx.ErrUnknownStatusCode) {
		t.Fatalf("expected ErrUnknownStatusCode, got %v", err)
	}
}

func TestBackendFailureWrapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewOrderClient(srv.URL, srv.URL, srv.Client())
	if _, err := client.GetOrder(context.Background(), "t", "x"); !errors.Is(err, errorx.ErrOrderBackendFailure) {
		t.Fatalf("expected ErrOrderBackendFailure, got %v", err)
	}
	if _, err := client.ListOrders(context.Background(), "t", "technician_assigned", "tech", 10); !errors.Is(err, errorx.ErrOrderBackendFailure) {
		t.Fatalf("expected ErrOrderBackendFailure, got %v", err)
	}
}

func TestListOrders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("orderStatus") != "technician_working" || q.Get("technician") != "tech-1" || q.Get("limit") != "5" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = io.WriteString(w, `{"payload":{"items":[`+sampleOrder+`,{"_id":"bad","orderStatus":{"currentStatus":"bogus"}}]}}`)
	}))
	defer srv.Close()

	client := NewOrderClient(srv.URL, srv.URL, srv.Client())
	orders, err := client.ListOrders(context.Background(), "t", "technician_working", "tech-1", 5)
	if err != nil {
		t.Fatalf("ListOrders failed: %v", err)
	}
	if len(orders) != 1 || orders[0].RecordID != "rec-1" {
		t.Fatalf("unexpected orders %+v", orders)
	}
}

func TestFindByOrderNumber(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("orderId") == "SRVZ-ORD-123456789" {
			_, _ = io.WriteString(w, `{"payload":{"items":[`+sampleOrder+`]}}`)
			return
		}
		_, _ = io.WriteString(w, `{"payload":{"items":[]}}`)
	}))
	defer srv.Close()

	client := NewOrderClient(srv.URL, srv.URL, srv.Client())
	order, err := client.FindByOrderNumber(context.Background(), "t", "SRVZ-ORD-123456789")
	if err != nil {
		t.Fatalf("FindByOrderNumber failed: %v", err)
	}
	if order.RecordID != "rec-1" {
		t.Fatalf("unexpected order %+v", order)
	}

	if _, err := client.FindByOrderNumber(context.Background(), "t", "SRVZ-ORD-000000000"); !errors.Is(err, errorx.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestUpdateStatus(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_, _ = io.WriteString(w, `{"payload":{"_id":"hist-1","order":{"_id":"rec-1"}}}`)
	}))
	defer srv.Close()

	target, _ := etorder.StatusByCode(etorder.CodeTechnicianAccepted)
	client := NewOrderClient(srv.URL, srv.URL+"/status", srv.Client())
	id, err := client.UpdateStatus(context.Background(), "t", &StatusUpdate{
		OrderID:    "SRVZ-ORD-123456789",
		RecordID:   "rec-1",
		LastStatus: etorder.CodeTechnicianAssigned,
		Target:     target,
		Actor:      Actor{ID: "tech-1", FirstName: "Rahul"},
	})
	if err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	if id != "rec-1" {
		t.Fatalf("unexpected id %q", id)
	}

	want := map[string]any{
		"order":            map[string]any{"orderId": "SRVZ-ORD-123456789", "_id": "rec-1"},
		"lastStatus":       "technician_assigned",
		"currentStatus":    "technician_accepted",
		"state":            "Technician Accepted",
		"statusChangeFrom": "technician",
		"changeFrom":       "technician",
		"user":             map[string]any{"_id": "tech-1", "firstName": "Rahul"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateStatusEmptyPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"payload":null}`)
	}))
	defer srv.Close()

	target, _ := etorder.StatusByCode(etorder.CodeTechnicianAccepted)
	client := NewOrderClient(srv.URL, srv.URL, srv.Client())
	_, err := client.UpdateStatus(context.Background(), "t", &StatusUpdate{RecordID: "rec-1", Target: target})
	if !errors.Is(err, errorx.ErrOrderBackendFailure) {
		t.Fatalf("expected ErrOrderBackendFailure, got %v", err)
	}
}
