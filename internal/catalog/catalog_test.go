package catalog

import (
	"errors"
	"fmt"
	"testing"
)

func TestTasteFilterToggle(t *testing.T) {
	var f TasteFilter
	f = f.Toggle(AttrSweetness, 3)
	f = f.Toggle(AttrSweetness, 1)

	if !f.Has(AttrSweetness, 1) || !f.Has(AttrSweetness, 3) {
		t.Fatalf("levels = %v, want [1 3]", f.Levels[AttrSweetness])
	}

	g := f.Toggle(AttrSweetness, 3)
	if !f.Has(AttrSweetness, 3) {
		t.Error("Toggle mutated the original filter")
	}
	g = g.Toggle(AttrSweetness, 1)
	if !g.IsEmpty() {
		t.Errorf("filter should be empty, got %+v", g)
	}
}

func TestTasteFilterMatches(t *testing.T) {
	yes := true
	f := TasteFilter{
		Levels:     map[Attribute][]int{AttrSweetness: {4, 5}},
		Carbonated: &yes,
		MaxPrice:   10000,
	}

	tests := []struct {
		name string
		m    Makgeolli
		want bool
	}{
		{"match", Makgeolli{Sweetness: 4, Carbonated: true, Price: 8000}, true},
		{"wrong sweetness", Makgeolli{Sweetness: 2, Carbonated: true, Price: 8000}, false},
		{"not carbonated", Makgeolli{Sweetness: 5, Price: 8000}, false},
		{"too expensive", Makgeolli{Sweetness: 5, Carbonated: true, Price: 12000}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Matches(tt.m); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMergeUnique(t *testing.T) {
	got := MergeUnique(
		[]Makgeolli{{ID: "1"}, {ID: "2"}},
		[]Makgeolli{{ID: "2"}, {ID: "3"}},
	)
	if len(got) != 3 || got[2].ID != "3" {
		t.Errorf("MergeUnique() = %+v", got)
	}
}

func TestValidateNickname(t *testing.T) {
	tests := []struct {
		in   string
		want Reason
	}{
		{"막걸리러버", ""},
		{"julook7", ""},
		{"", ReasonEmpty},
		{"막", ReasonTooShort},
		{"막걸리막걸리막걸리막걸", ReasonTooLong},
		{"막걸리!", ReasonInvalidChars},
		{"  막걸리  ", ""},
	}
	for _, tt := range tests {
		err := ValidateNickname(tt.in)
		switch {
		case tt.want == "" && err != nil:
			t.Errorf("ValidateNickname(%q) = %v, want nil", tt.in, err)
		case tt.want != "" && (err == nil || err.Reason != tt.want):
			t.Errorf("ValidateNickname(%q) = %v, want %s", tt.in, err, tt.want)
		}
	}
}

func TestValidateComment(t *testing.T) {
	if err := ValidateComment("   "); err == nil || err.Reason != ReasonEmpty {
		t.Errorf("blank comment error = %v, want empty", err)
	}
	long := make([]rune, CommentMax+1)
	for i := range long {
		long[i] = '맛'
	}
	if err := ValidateComment(string(long)); err == nil || err.Reason != ReasonTooLong {
		t.Errorf("long comment error = %v, want too long", err)
	}
	if err := ValidateComment("달달하고 맛있어요"); err != nil {
		t.Errorf("valid comment error = %v", err)
	}
}

func TestNormalizeText(t *testing.T) {
	decomposed := "\u1106\u1161\u11a8" // 막 as conjoining jamo
	if got := NormalizeText("  " + decomposed + "   걸리 "); got != "막 걸리" {
		t.Errorf("NormalizeText() = %q, want %q", got, "막 걸리")
	}
	if Length("막걸리") != 3 {
		t.Errorf("Length(막걸리) = %d, want 3", Length("막걸리"))
	}
}

func TestErrorClassification(t *testing.T) {
	err := RemoteError("home.fetch", fmt.Errorf("get: %w", ErrNotFound))
	if err.Kind != KindNotFound {
		t.Errorf("Kind = %v, want not_found", err.Kind)
	}
	if !errors.Is(err, ErrNotFound) {
		t.Error("errors.Is(err, ErrNotFound) = false")
	}
	if !errors.Is(err, &Error{Kind: KindNotFound}) {
		t.Error("errors.Is should match on kind")
	}

	v := ValidationError("settings.nickname", "닉네임", ReasonDuplicate)
	if errors.Is(v, &Error{Kind: KindValidation, Reason: ReasonTooLong}) {
		t.Error("different reasons should not match")
	}
	if v.Message() == "" {
		t.Error("Message() should not be empty")
	}
}
