package dashboard

import (
	"testing"

	"github.com/desertthunder/kxo/internal/models"
	tu "github.com/desertthunder/kxo/internal/testing"
)

func sampleEntries() []models.WaitlistEntry {
	amina := tu.Entry(1, "Amina", "a@x.com", "")
	amina.BetaTester = true

	bola := tu.Entry(2, "Bola Tinubu", "bola@KanairoXO.com", "+234 803 555 0101")
	bola.Ambassador = true

	chidi := tu.Entry(3, "Chidi", "chidi@mail.ng", "0803-AMINA")
	chidi.BetaTester = true
	chidi.Ambassador = true

	return []models.WaitlistEntry{amina, bola, chidi}
}

func ids(entries []models.WaitlistEntry) []int64 {
	out := make([]int64, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestFilter(t *testing.T) {
	entries := sampleEntries()

	tests := []struct {
		name string
		term string
		want []int64
	}{
		{name: "empty term returns all", term: "", want: []int64{1, 2, 3}},
		{name: "name is case-insensitive", term: "amina", want: []int64{1, 3}},
		{name: "email match", term: "kanairoxo", want: []int64{2}},
		{name: "phone match", term: "555", want: []int64{2}},
		{name: "phone is case-insensitive", term: "0803-amina", want: []int64{3}},
		{name: "no match", term: "zzz", want: []int64{}},
		{name: "whitespace is a literal term", term: " ", want: []int64{2}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ids(Filter(entries, tc.term))
			if len(got) != len(tc.want) {
				t.Fatalf("Filter(%q) = %v, want %v", tc.term, got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("Filter(%q) = %v, want %v", tc.term, got, tc.want)
				}
			}
		})
	}

	t.Run("missing phone never matches a non-empty term", func(t *testing.T) {
		noPhone := []models.WaitlistEntry{tu.Entry(9, "X", "y@z", "")}
		if got := Filter(noPhone, "N/A"); len(got) != 0 {
			t.Errorf("expected no match on missing phone, got %v", got)
		}
	})

	t.Run("result is a subset in original order", func(t *testing.T) {
		for _, term := range []string{"a", "o", "@", "80", "Chi"} {
			got := Filter(entries, term)
			last := -1
			for _, e := range got {
				idx := -1
				for i, orig := range entries {
					if orig.ID == e.ID {
						idx = i
					}
				}
				if idx == -1 {
					t.Fatalf("Filter(%q) returned entry %d not in input", term, e.ID)
				}
				if idx <= last {
					t.Errorf("Filter(%q) broke ordering", term)
				}
				last = idx
			}
		}
	})

	t.Run("does not alias input", func(t *testing.T) {
		got := Filter(entries, "")
		got[0].Name = "changed"
		if entries[0].Name == "changed" {
			t.Error("Filter result aliases the input slice")
		}
	})

	t.Run("nil input", func(t *testing.T) {
		if got := Filter(nil, "x"); got == nil || len(got) != 0 {
			t.Errorf("expected empty slice, got %v", got)
		}
	})
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleEntries())
	if s.Total != 3 || s.BetaTesters != 2 || s.Ambassadors != 2 {
		t.Errorf("Summarize() = %+v", s)
	}

	if got := ShowingLine(1, 3); got != "Showing 1 of 3 members" {
		t.Errorf("ShowingLine() = %s", got)
	}

	if EmptyMessage("") == EmptyMessage("x") {
		t.Error("expected distinct empty messages with and without a search term")
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StateVerifying, StateLoading, true},
		{StateVerifying, StateError, true},
		{StateVerifying, StateLoaded, false},
		{StateLoading, StateLoaded, true},
		{StateLoading, StateRefreshing, false},
		{StateLoaded, StateRefreshing, true},
		{StateRefreshing, StateLoaded, true},
		{StateRefreshing, StateError, false},
		{StateError, StateVerifying, false},
		{StateError, StateLoginRedirect, true},
		{StateRefreshing, StateLoginRedirect, true},
		{StateLoginRedirect, StateVerifying, true},
	}

	for _, tc := range tests {
		t.Run(tc.from.String()+"->"+tc.to.String(), func(t *testing.T) {
			if got := CanTransition(tc.from, tc.to); got != tc.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}
