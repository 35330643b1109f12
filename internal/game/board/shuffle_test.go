package board

import (
	"math/rand"
	"testing"
)

func TestShuffleIsPermutation(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	s := []int{1, 2, 3, 4, 5, 6, 7, 8}
	Shuffle(r, s)

	seen := make(map[int]bool, len(s))
	for _, v := range s {
		seen[v] = true
	}
	if len(seen) != 8 {
		t.Fatalf("shuffle lost elements: %v", s)
	}
}

func TestShuffleDeterministicUnderSeed(t *testing.T) {
	a := []int{1, 2, 3, 4, 5, 6, 7, 8}
	b := []int{1, 2, 3, 4, 5, 6, 7, 8}
	Shuffle(rand.New(rand.NewSource(42)), a)
	Shuffle(rand.New(rand.NewSource(42)), b)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced different orders: %v vs %v", a, b)
		}
	}
}

func TestShuffleSmallSlices(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	Shuffle(r, []int{})
	one := []int{9}
	Shuffle(r, one)
	if one[0] != 9 {
		t.Fatal("single-element shuffle changed contents")
	}
}
