package mdtransition

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"techbot/internal/app/domains/entity/etdocument"
	"techbot/internal/app/domains/entity/etorder"
	"techbot/internal/app/pkg/errorx"
)

func orderAt(t *testing.T, code string, docCodes ...int) *etorder.Order {
	t.Helper()
	status, err := etorder.StatusByCode(code)
	if err != nil {
		t.Fatalf("StatusByCode(%q): %v", code, err)
	}
	docs := make([]etdocument.Document, 0, len(docCodes))
	for _, c := range docCodes {
		docs = append(docs, etdocument.Document{TypeCode: c})
	}
	return &etorder.Order{RecordID: "rec-1", OrderID: "SRVZ-ORD-123456789", CurrentStatus: status, Documents: docs}
}

func TestRejectFromAssignedIsTerminal(t *testing.T) {
	m := NewTransitionModule(etdocument.PartPhotoSingle)
	d, err := m.RequestTransition(etorder.ActionReject, orderAt(t, etorder.CodeTechnicianAssigned))
	if err != nil {
		t.Fatalf("RequestTransition failed: %v", err)
	}
	if d.To.Code != etorder.CodeTechnicianRejected || !d.Terminal {
		t.Fatalf("unexpected decision %+v", d)
	}
	if d.From.Code != etorder.CodeTechnicianAssigned {
		t.Fatalf("unexpected from %+v", d.From)
	}
}

func TestIllegalActionRejected(t *testing.T) {
	m := NewTransitionModule("")
	_, err := m.RequestTransition(etorder.ActionMarkWorking, orderAt(t, etorder.CodeTechnicianAssigned))
	if !errors.Is(err, errorx.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	var te *errorx.TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransitionError, got %T", err)
	}
	want := []string{string(etorder.ActionAccept), string(etorder.ActionReject)}
	if diff := cmp.Diff(want, te.Allowed); diff != "" {
		t.Fatalf("allowed mismatch (-want +got):\n%s", diff)
	}
}

func TestMarkCompleteRequiresDocuments(t *testing.T) {
	m := NewTransitionModule(etdocument.PartPhotoSingle)

	// 缺少发票
	_, err := m.RequestTransition(etorder.ActionMarkComplete, orderAt(t, etorder.CodeTechnicianWorking, 1, 3))
	if !errors.Is(err, errorx.ErrDocumentsIncomplete) {
		t.Fatalf("expected ErrDocumentsIncomplete, got %v", err)
	}
	var de *errorx.DocumentsError
	if !errors.As(err, &de) || len(de.Missing) != 1 || de.Missing[0] != "Invoice" {
		t.Fatalf("unexpected documents error %v", err)
	}

	d, err := m.RequestTransition(etorder.ActionMarkComplete, orderAt(t, etorder.CodeTechnicianWorking, 0, 1, 3))
	if err != nil {
		t.Fatalf("RequestTransition failed: %v", err)
	}
	if d.To.Code != etorder.CodeTechnicianWorkCompleted || !d.Terminal {
		t.Fatalf("unexpected decision %+v", d)
	}
}

func TestPartsRequireDefectivePhoto(t *testing.T) {
	m := NewTransitionModule(etdocument.PartPhotoSingle)
	order := orderAt(t, etorder.CodeDefectivePickup, 0, 1, 3)
	order.Parts = []etorder.Part{{Name: "PCB", Quantity: 2}}

	if _, err := m.RequestTransition(etorder.ActionMarkComplete, order); !errors.Is(err, errorx.ErrDocumentsIncomplete) {
		t.Fatalf("expected ErrDocumentsIncomplete, got %v", err)
	}

	order.Documents = append(order.Documents, etdocument.Document{TypeCode: 6})
	if _, err := m.RequestTransition(etorder.ActionMarkComplete, order); err != nil {
		t.Fatalf("single policy should accept one defective photo: %v", err)
	}

	perPart := NewTransitionModule(etdocument.PartPhotoPerPart)
	if _, err := perPart.RequestTransition(etorder.ActionMarkComplete, order); !errors.Is(err, errorx.ErrDocumentsIncomplete) {
		t.Fatalf("per part policy should require two photos, got %v", err)
	}
}

func TestLegalTable(t *testing.T) {
	m := NewTransitionModule("")
	tests := []struct {
		from     string
		action   etorder.Action
		to       string
		terminal bool
	}{
		{etorder.CodeTechnicianAssigned, etorder.ActionAccept, etorder.CodeTechnicianAccepted, false},
		{etorder.CodeTechnicianAssigned, etorder.ActionReject, etorder.CodeTechnicianRejected, true},
		{etorder.CodeTechnicianReassigned, etorder.ActionAccept, etorder.CodeTechnicianAccepted, false},
		{etorder.CodeTechnicianReassigned, etorder.ActionReject, etorder.CodeTechnicianRejected, true},
		{etorder.CodeTechnicianAccepted, etorder.ActionMarkReachedLocation, etorder.CodeTechnicianOnLocation, false},
		{etorder.CodeTechnicianOnLocation, etorder.ActionMarkWorking, etorder.CodeTechnicianWorking, false},
		{etorder.CodeTechnicianWorking, etorder.ActionRequestPart, etorder.CodePartsApprovalPending, false},
		{etorder.CodeTechnicianWorking, etorder.ActionRequestDefectivePickup, etorder.CodeDefectivePickup, false},
		{etorder.CodePartsApprovalPending, etorder.ActionRequestAnotherPart, etorder.CodePartsApprovalPending, false},
		{etorder.CodePartsApprovalPending, etorder.ActionRequestDefectivePickup, etorder.CodeDefectivePickup, false},
		{etorder.CodeDefectivePickup, etorder.ActionRequestPart, etorder.CodePartsApprovalPending, false},
	}
	for _, tt := range tests {
		d, err := m.RequestTransition(tt.action, orderAt(t, tt.from))
		if err != nil {
			t.Errorf("%s --%s--> error %v", tt.from, tt.action, err)
			continue
		}
		if d.To.Code != tt.to || d.Terminal != tt.terminal {
			t.Errorf("%s --%s--> %s (terminal=%v), want %s (terminal=%v)", tt.from, tt.action, d.To.Code, d.Terminal, tt.to, tt.terminal)
		}
	}

	illegal := []struct {
		from   string
		action etorder.Action
	}{
		{etorder.CodeTechnicianAccepted, etorder.ActionAccept},
		{etorder.CodeTechnicianWorkCompleted, etorder.ActionMarkComplete},
		{etorder.CodeTechnicianRejected, etorder.ActionAccept},
		{etorder.CodePartsApprovalPending, etorder.ActionMarkComplete},
		{etorder.CodeOrderPlaced, etorder.ActionAccept},
	}
	for _, tt := range illegal {
		if _, err := m.RequestTransition(tt.action, orderAt(t, tt.from)); !errors.Is(err, errorx.ErrInvalidTransition) {
			t.Errorf("%s --%s--> expected ErrInvalidTransition, got %v", tt.from, tt.action, err)
		}
	}
}
