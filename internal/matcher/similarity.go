package matcher

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"conciliador/internal/models"
)

// similaridadeDescricao compares two free-text descriptions and returns a
// similarity in [0, 1]. An exact substring match (after normalization)
// scores 1.0; otherwise the result is the best of token containment and
// normalized edit distance, capped below 1.0 so substring matches always
// rank higher than partial overlaps.
func similaridadeDescricao(a, b string) float64 {
	na := models.NormalizeDescricao(a)
	nb := models.NormalizeDescricao(b)
	if na == "" || nb == "" {
		return 0
	}

	if na == nb || strings.Contains(na, nb) || strings.Contains(nb, na) {
		return 1.0
	}

	token := tokenContainment(strings.Fields(na), strings.Fields(nb))
	edit := editSimilarity(na, nb)

	sim := token
	if edit > sim {
		sim = edit
	}
	// Partial overlap never reaches the substring score.
	return sim * 0.8
}

// tokenContainment is the share of the smaller token set found in the
// larger one.
func tokenContainment(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	set := make(map[string]struct{}, len(b))
	for _, t := range b {
		set[t] = struct{}{}
	}
	comum := 0
	for _, t := range a {
		if _, ok := set[t]; ok {
			comum++
		}
	}
	return float64(comum) / float64(len(a))
}

// editSimilarity maps levenshtein distance to [0, 1].
func editSimilarity(a, b string) float64 {
	maior := len([]rune(a))
	if l := len([]rune(b)); l > maior {
		maior = l
	}
	if maior == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	sim := 1.0 - float64(dist)/float64(maior)
	if sim < 0 {
		return 0
	}
	return sim
}
