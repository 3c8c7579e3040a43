package dialogue

import "strings"

// Normalize lowercases text and strips combining diacritical marks
// (U+0300–U+036F) after NFD-style decomposition, so pattern tables can match
// "horário" and "horario" alike. Idempotent.
func Normalize(text string) string {
	lower := strings.ToLower(text)
	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if decomposed, ok := diacriticBase[r]; ok {
			b.WriteRune(decomposed)
			continue
		}
		if r >= 0x0300 && r <= 0x036F {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// diacriticBase maps the precomposed lowercase letters that occur in pt-BR
// (and its neighbours) to their base letter. Input is lowercased first, so
// only lowercase forms are needed.
var diacriticBase = map[rune]rune{
	'à': 'a', 'á': 'a', 'â': 'a', 'ã': 'a', 'ä': 'a', 'å': 'a',
	'è': 'e', 'é': 'e', 'ê': 'e', 'ë': 'e',
	'ì': 'i', 'í': 'i', 'î': 'i', 'ï': 'i',
	'ò': 'o', 'ó': 'o', 'ô': 'o', 'õ': 'o', 'ö': 'o',
	'ù': 'u', 'ú': 'u', 'û': 'u', 'ü': 'u',
	'ç': 'c', 'ñ': 'n', 'ý': 'y',
}
