package board

import "math/rand"

// Shuffle performs a Fisher-Yates shuffle in place. The random source is
// injected so deck order is reproducible under a seeded source.
func Shuffle[T any](r *rand.Rand, s []T) {
	for i := len(s) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}
