package mep

import "testing"

func TestBaseID(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"123", "123"},
		{"123_0", "123"},
		{"123_0_extra", "123"},
		{"abc-def", "abc-def"},
		{"_0", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := BaseID(tt.id); got != tt.want {
			t.Errorf("BaseID(%q) = %q, want %q", tt.id, got, tt.want)
		}
		it := Item{ID: tt.id}
		if got := it.BaseID(); got != tt.want {
			t.Errorf("Item{ID: %q}.BaseID() = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestKindPlural(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindDuct, "ducts"},
		{KindPipe, "pipes"},
		{KindConduit, "conduits"},
		{KindCableTray, "cableTrays"},
	}
	for _, tt := range tests {
		if got := tt.kind.Plural(); got != tt.want {
			t.Errorf("%s.Plural() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestKindValid(t *testing.T) {
	for _, k := range Kinds() {
		if !k.Valid() {
			t.Errorf("%s.Valid() = false, want true", k)
		}
	}
	for _, k := range []Kind{"", "beam", "Duct", "cabletray"} {
		if k.Valid() {
			t.Errorf("%q.Valid() = true, want false", k)
		}
	}
}

func TestItemClone_DeepTier(t *testing.T) {
	tier := 2
	src := Item{ID: "a", Kind: KindDuct, Tier: &tier, TierLabel: "Tier 2"}

	clone := src.Clone()
	*src.Tier = 9

	if clone.Tier == nil || *clone.Tier != 2 {
		t.Fatalf("clone.Tier = %v, want 2", clone.Tier)
	}
}

func TestSetTier(t *testing.T) {
	var it Item

	n := 3
	it.SetTier(&n, "Tier 3")
	n = 7
	if it.Tier == nil || *it.Tier != 3 {
		t.Fatalf("it.Tier = %v, want own copy of 3", it.Tier)
	}
	if it.TierLabel != "Tier 3" {
		t.Fatalf("it.TierLabel = %q, want %q", it.TierLabel, "Tier 3")
	}

	it.SetTier(nil, "Above Rack")
	if it.Tier != nil {
		t.Fatalf("it.Tier = %v, want nil", it.Tier)
	}
	if it.TierLabel != "Above Rack" {
		t.Fatalf("it.TierLabel = %q, want %q", it.TierLabel, "Above Rack")
	}
}
