package dashboard

import (
	"fmt"
	"strings"

	"github.com/desertthunder/kxo/internal/models"
)

// Filter returns the entries whose name, email or phone contains term, case-insensitively, in their original order.
// An empty term returns every entry. A missing phone never matches.
func Filter(entries []models.WaitlistEntry, term string) []models.WaitlistEntry {
	out := make([]models.WaitlistEntry, 0, len(entries))
	if term == "" {
		return append(out, entries...)
	}

	needle := strings.ToLower(term)
	for _, e := range entries {
		if matches(e, needle) {
			out = append(out, e)
		}
	}
	return out
}

func matches(e models.WaitlistEntry, needle string) bool {
	if strings.Contains(strings.ToLower(e.Name), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(e.Email), needle) {
		return true
	}
	return e.HasPhone() && strings.Contains(strings.ToLower(e.Phone), needle)
}

// Summary holds the dashboard's stat cards.
type Summary struct {
	Total       int
	BetaTesters int
	Ambassadors int
}

// Summarize counts members, beta testers and ambassadors.
func Summarize(entries []models.WaitlistEntry) Summary {
	s := Summary{Total: len(entries)}
	for _, e := range entries {
		if e.BetaTester {
			s.BetaTesters++
		}
		if e.Ambassador {
			s.Ambassadors++
		}
	}
	return s
}

// ShowingLine renders the "Showing X of Y members" caption.
func ShowingLine(shown, total int) string {
	return fmt.Sprintf("Showing %d of %d members", shown, total)
}

// EmptyMessage returns the placeholder for an empty filtered view.
func EmptyMessage(term string) string {
	if term != "" {
		return "No matching members found"
	}
	return "No waitlist members yet"
}
