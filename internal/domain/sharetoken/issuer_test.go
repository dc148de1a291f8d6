package sharetoken

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func TestNewIssuer_Validation(t *testing.T) {
	if _, err := NewIssuer([]byte("short"), time.Hour, "", NewStaticRegistry(nil), nil); err == nil {
		t.Error("expected error for short key")
	}
	if _, err := NewIssuer(testKey, 0, "", NewStaticRegistry(nil), nil); err == nil {
		t.Error("expected error for zero ttl")
	}
}

func TestIssuer_IssueAndValidate(t *testing.T) {
	reg := NewStaticRegistry(nil)
	clock := fixedClock("2026-03-01T10:00:00Z")
	iss, err := NewIssuer(testKey, 48*time.Hour, "https://portal.example/", reg, clock)
	if err != nil {
		t.Fatal(err)
	}
	link, err := iss.Issue(context.Background(), "lr-001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !link.ExpiresAt.Equal(at("2026-03-03T10:00:00Z")) {
		t.Errorf("unexpected expiry %v", link.ExpiresAt)
	}
	if !strings.HasPrefix(link.URL, "https://portal.example/r/") || !strings.HasSuffix(link.URL, link.Token) {
		t.Errorf("unexpected url %q", link.URL)
	}

	v := NewValidator(reg, WithClock(clock))
	if res := v.Validate(context.Background(), link.Token); !res.Valid {
		t.Errorf("expected issued token to validate, got %+v", res)
	}

	docID, err := iss.DocumentID(link.Token)
	if err != nil || docID != "lr-001" {
		t.Errorf("expected lr-001, got %q (%v)", docID, err)
	}
}

func TestIssuer_DocumentID_AfterExpiry(t *testing.T) {
	iss, _ := NewIssuer(testKey, time.Minute, "", NewStaticRegistry(nil), fixedClock("2020-01-01T00:00:00Z"))
	link, err := iss.Issue(context.Background(), "lr-002")
	if err != nil {
		t.Fatal(err)
	}
	if id, err := iss.DocumentID(link.Token); err != nil || id != "lr-002" {
		t.Errorf("expected subject regardless of expiry, got %q (%v)", id, err)
	}
}

func TestIssuer_LinkID(t *testing.T) {
	iss, _ := NewIssuer(testKey, time.Hour, "", NewStaticRegistry(nil), nil)
	a, _ := iss.Issue(context.Background(), "lr-001")
	b, _ := iss.Issue(context.Background(), "lr-001")

	idA, err := iss.LinkID(a.Token)
	if err != nil || idA == "" {
		t.Fatalf("expected link id, got %q (%v)", idA, err)
	}
	idB, _ := iss.LinkID(b.Token)
	if idA == idB {
		t.Error("expected distinct link ids per issued link")
	}
	if _, err := iss.LinkID("demo-valid-001"); !errors.Is(err, ErrNotALink) {
		t.Errorf("expected ErrNotALink for opaque token, got %v", err)
	}
}

func TestIssuer_DocumentID_Rejects(t *testing.T) {
	iss, _ := NewIssuer(testKey, time.Hour, "", NewStaticRegistry(nil), nil)
	if _, err := iss.DocumentID("demo-valid-001"); !errors.Is(err, ErrNotALink) {
		t.Errorf("expected ErrNotALink for opaque token, got %v", err)
	}

	other, _ := NewIssuer([]byte("ffffffffffffffffffffffffffffffff"), time.Hour, "", NewStaticRegistry(nil), nil)
	link, _ := other.Issue(context.Background(), "lr-001")
	if _, err := iss.DocumentID(link.Token); !errors.Is(err, ErrNotALink) {
		t.Errorf("expected ErrNotALink for foreign signature, got %v", err)
	}
}

func TestIssuer_RequiresDocument(t *testing.T) {
	iss, _ := NewIssuer(testKey, time.Hour, "", NewStaticRegistry(nil), nil)
	if _, err := iss.Issue(context.Background(), ""); err == nil {
		t.Error("expected error for empty document id")
	}
}
