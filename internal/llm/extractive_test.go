package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractiveChat_AnswersFromContext(t *testing.T) {
	t.Parallel()

	prompt := "CONTEXT:\nDovolená činí 25 dní ročně. Sick days nejsou omezeny. " +
		"Kancelář je v Brně.\n\nQUESTION: kolik dní dovolené mám?\n\nANSWER:"

	got := extractiveChat(prompt)

	assert.Contains(t, got, "Dovolená činí 25 dní ročně.")
	assert.NotEqual(t, NoAnswer, got)
}

func TestExtractiveChat_RanksByOverlap(t *testing.T) {
	t.Parallel()

	prompt := "CONTEXT:\nPrvní věta o ničem. Heslo do wifi je tajné heslo123. " +
		"Další věta o ničem.\n\nQUESTION: jaké je heslo do wifi?\n\nANSWER:"

	got := extractiveChat(prompt)

	assert.Contains(t, got, "Heslo do wifi")
}

func TestExtractiveChat_TopThreeUnits(t *testing.T) {
	t.Parallel()

	prompt := "CONTEXT:\nkotva jedna. kotva dva. kotva tři. kotva čtyři. " +
		"nic společného.\n\nQUESTION: kotva?\n\nANSWER:"

	got := extractiveChat(prompt)

	assert.NotContains(t, got, "nic společného")
	// Four units score; only three may be joined.
	count := 0
	for i := 0; i+5 <= len(got); i++ {
		if got[i:i+5] == "kotva" {
			count++
		}
	}
	assert.Equal(t, 3, count)
}

func TestExtractiveChat_NoOverlapUsesLeadingUnits(t *testing.T) {
	t.Parallel()

	prompt := "CONTEXT:\nPrvní věta. Druhá věta. Třetí věta.\n\nQUESTION: xyz?\n\nANSWER:"

	got := extractiveChat(prompt)

	assert.Contains(t, got, "První věta.")
	assert.Contains(t, got, "Druhá věta.")
	assert.NotContains(t, got, "Třetí věta.")
}

func TestExtractiveChat_EmptyContext(t *testing.T) {
	t.Parallel()

	assert.Equal(t, NoAnswer, extractiveChat("CONTEXT:\n\n\nQUESTION: cokoliv?\n\nANSWER:"))
	assert.Equal(t, NoAnswer, extractiveChat(""))
}

func TestExtractiveChat_PromptWithoutSections(t *testing.T) {
	t.Parallel()

	// An unlabeled prompt is treated as pure context: leading units answer.
	got := extractiveChat("Jen obyčejný text bez sekcí.")
	assert.Equal(t, "Jen obyčejný text bez sekcí.", got)
}

func TestExtractiveChat_StripsChunkTags(t *testing.T) {
	t.Parallel()

	prompt := "CONTEXT:\nOdpověď [doc.pdf#chunk=2] na otázku zde.\n\nQUESTION: odpověď na otázku?\n\nANSWER:"

	got := extractiveChat(prompt)

	assert.NotContains(t, got, "#chunk=")
	assert.Contains(t, got, "na otázku zde.")
}

func TestSplitUnits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"sentences", "Jedna. Dvě? Tři!", []string{"Jedna.", "Dvě?", "Tři!"}},
		{"newlines", "řádek jedna\nřádek dva\n\nřádek tři", []string{"řádek jedna", "řádek dva", "řádek tři"}},
		{"no terminator", "bez tečky", []string{"bez tečky"}},
		{"abbrev-like dot mid-token", "verze 1.2 je venku", []string{"verze 1.2 je venku"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, splitUnits(tt.in))
		})
	}
}
