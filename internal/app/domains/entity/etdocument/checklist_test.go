package etdocument

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func docs(codes ...int) []Document {
	out := make([]Document, 0, len(codes))
	for _, c := range codes {
		out = append(out, Document{TypeCode: c})
	}
	return out
}

const (
	invoice   = 0
	serial    = 1
	photo     = 3
	selfie    = 5
	defective = 6
)

func TestIsCompleteStandard(t *testing.T) {
	tests := []struct {
		name string
		docs []Document
		req  Requirements
		want bool
	}{
		{name: "all required", docs: docs(invoice, serial, photo), want: true},
		{name: "missing invoice", docs: docs(serial, photo), want: false},
		{name: "empty", docs: nil, want: false},
		{name: "unknown codes do not satisfy", docs: docs(42, 43, 44), want: false},
		{
			name: "selfie required missing",
			docs: docs(invoice, serial, photo),
			req:  Requirements{SelfieRequired: true},
			want: false,
		},
		{
			name: "selfie required present",
			docs: docs(invoice, serial, photo, selfie),
			req:  Requirements{SelfieRequired: true},
			want: true,
		},
		{
			name: "part return without defective photo",
			docs: docs(invoice, serial, photo),
			req:  Requirements{PartReturn: true, PartPhotoCount: 1},
			want: false,
		},
		{
			name: "part return with defective photo",
			docs: docs(invoice, serial, photo, defective),
			req:  Requirements{PartReturn: true, PartPhotoCount: 1},
			want: true,
		},
		{
			name: "part return zero count still needs one",
			docs: docs(invoice, serial, photo),
			req:  Requirements{PartReturn: true},
			want: false,
		},
		{
			name: "per part count",
			docs: docs(invoice, serial, photo, defective),
			req:  Requirements{PartReturn: true, PartPhotoCount: 2},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsComplete(tt.docs, tt.req); got != tt.want {
				t.Fatalf("IsComplete() = %v, want %v (missing %v)", got, tt.want, Missing(tt.docs, tt.req))
			}
		})
	}
}

func TestIsCompleteCorporate(t *testing.T) {
	// 企业订单编码：0 序列号, 1 设备照片, 2 室外机序列号, 3 室外机照片, 6 旧件照片
	base := Requirements{Corporate: true}
	if !IsComplete(docs(0, 1), base) {
		t.Fatalf("expected corporate serial+photo to be complete")
	}
	if IsComplete(docs(1), base) {
		t.Fatalf("expected missing serial to be incomplete")
	}

	ac := Requirements{Corporate: true, DualUnit: true}
	if IsComplete(docs(0, 1), ac) {
		t.Fatalf("expected dual unit without outer docs to be incomplete")
	}
	if !IsComplete(docs(0, 1, 2, 3), ac) {
		t.Fatalf("expected dual unit with outer docs to be complete")
	}
	parts := Requirements{Corporate: true, PartReturn: true, PartPhotoCount: 1}
	if IsComplete(docs(0, 1), parts) {
		t.Fatalf("expected corporate part return without defective photo to be incomplete")
	}
	if !IsComplete(docs(0, 1, 6), parts) {
		t.Fatalf("expected corporate part return with defective photo to be complete")
	}
}

func TestResolveTables(t *testing.T) {
	tests := []struct {
		code      int
		corporate bool
		want      Type
	}{
		{0, false, TypeInvoice},
		{3, false, TypeDevicePhoto},
		{6, false, TypeDefectivePart},
		{0, true, TypeSerialNumber},
		{1, true, TypeDevicePhoto},
		{2, true, TypeOuterSerialNumber},
		{3, true, TypeOuterDevicePhoto},
		{6, true, TypeDefectivePart},
		{7, true, TypeJobsheet},
		{5, true, TypeDefault},
	}
	for _, tt := range tests {
		if got := Resolve(tt.code, tt.corporate); got != tt.want {
			t.Errorf("Resolve(%d, %v) = %v, want %v", tt.code, tt.corporate, got, tt.want)
		}
	}
}

func TestMissing(t *testing.T) {
	got := Missing(docs(photo), Requirements{PartReturn: true, PartPhotoCount: 1})
	want := []Rule{
		{Type: TypeInvoice, Min: 1},
		{Type: TypeSerialNumber, Min: 1},
		{Type: TypeDefectivePart, Min: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Missing() mismatch (-want +got):\n%s", diff)
	}
}

func TestCountUnknownBucket(t *testing.T) {
	counts := Count(docs(invoice, 99, -1), false)
	if counts[TypeDefault] != 2 {
		t.Fatalf("expected unknown codes counted in default bucket, got %v", counts)
	}
	if counts[TypeInvoice] != 1 {
		t.Fatalf("expected one invoice, got %v", counts)
	}
}

func TestPartPhotoPolicy(t *testing.T) {
	if n := PartPhotoSingle.RequiredPartPhotos([]int{3, 2}); n != 1 {
		t.Fatalf("single policy = %d, want 1", n)
	}
	if n := PartPhotoPerPart.RequiredPartPhotos([]int{3, 0}); n != 4 {
		t.Fatalf("per part policy = %d, want 4", n)
	}
	if n := PartPhotoPerPart.RequiredPartPhotos(nil); n != 0 {
		t.Fatalf("no parts = %d, want 0", n)
	}
	if _, err := ParsePartPhotoPolicy("bogus"); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
	if p, err := ParsePartPhotoPolicy(""); err != nil || p != PartPhotoSingle {
		t.Fatalf("empty policy = %q, %v", p, err)
	}
}
