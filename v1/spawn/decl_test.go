package spawn

import (
	stderrors "errors"
	"reflect"
	"strings"
	"testing"

	"github.com/mirkobrombin/go-tspawn/v1/errors"
)

func TestParseDecl(t *testing.T) {
	tests := []struct {
		src  string
		want []Decl
	}{
		{"", nil},
		{"   ", nil},
		{"a", []Decl{{Owned, "a"}}},
		{"ref a", []Decl{{Shared, "a"}}},
		{"mut a", []Decl{{Exclusive, "a"}}},
		{"a, ref b, mut c", []Decl{{Owned, "a"}, {Shared, "b"}, {Exclusive, "c"}}},
		{"mut c,ref b,a", []Decl{{Exclusive, "c"}, {Shared, "b"}, {Owned, "a"}}},
		{"\tref _x1 ,\n mut Y ", []Decl{{Shared, "_x1"}, {Exclusive, "Y"}}},
		{"refs, muted", []Decl{{Owned, "refs"}, {Owned, "muted"}}},
	}
	for _, tt := range tests {
		got, err := ParseDecl(tt.src)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", tt.src, err)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("%q: expected %v, got %v", tt.src, tt.want, got)
		}
	}
}

func TestParseDeclErrors(t *testing.T) {
	tests := []struct {
		src string
		msg string
	}{
		{",", "empty entry"},
		{"a,,b", "empty entry"},
		{"a,", "trailing comma"},
		{"ref", "missing name after \"ref\""},
		{"mut ,a", "missing name after \"mut\""},
		{"ref mut a", "unexpected modifier \"mut\""},
		{"own a", "unknown modifier \"own\""},
		{"ref a b", "expected ',' before \"b\""},
		{"a; b", "unexpected character ';'"},
		{"1a", "unexpected character '1'"},
	}
	for _, tt := range tests {
		_, err := ParseDecl(tt.src)
		if !stderrors.Is(err, errors.ErrSyntax) {
			t.Fatalf("%q: expected ErrSyntax, got %v", tt.src, err)
		}
		if !strings.Contains(err.Error(), tt.msg) {
			t.Fatalf("%q: expected %q in %q", tt.src, tt.msg, err.Error())
		}
	}
}

func TestParseDeclOffsets(t *testing.T) {
	_, err := ParseDecl("a, ref b c")
	if err == nil || !strings.Contains(err.Error(), "offset 9") {
		t.Fatalf("expected error at offset 9, got %v", err)
	}
	_, err = ParseDecl("a, mut")
	if err == nil || !strings.Contains(err.Error(), "offset 6") {
		t.Fatalf("expected error at end of input, got %v", err)
	}
}

func TestDeclRoundTrip(t *testing.T) {
	src := "a, ref b, mut c"
	decls, err := ParseDecl(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	parts := make([]string, len(decls))
	for i, d := range decls {
		parts[i] = d.String()
	}
	if got := strings.Join(parts, ", "); got != src {
		t.Fatalf("expected %q, got %q", src, got)
	}
}
