package board

import "testing"

func TestViewerTransformInvolution(t *testing.T) {
	const height = 5
	for row := 0; row < height; row++ {
		for col := 0; col < 3; col++ {
			p := Position{Row: row, Col: col}
			for _, bottom := range []bool{true, false} {
				back := FromViewerPos(height, bottom, ToViewerPos(height, bottom, p))
				if back != p {
					t.Errorf("transform not an involution: %v bottom=%v -> %v", p, bottom, back)
				}
			}
		}
	}
}

func TestViewerTransformFlipsTopSide(t *testing.T) {
	p := Position{Row: 0, Col: 1}
	if got := ToViewerPos(5, true, p); got != p {
		t.Errorf("bottom viewer must see positions unchanged, got %v", got)
	}
	if got := ToViewerPos(5, false, p); got != (Position{Row: 4, Col: 1}) {
		t.Errorf("top viewer row flip wrong, got %v", got)
	}
}

func TestStepDirections(t *testing.T) {
	from := Position{Row: 2, Col: 1}
	cases := []struct {
		dir    Direction
		bottom bool
		want   Position
	}{
		{DirForward, true, Position{Row: 1, Col: 1}},
		{DirForward, false, Position{Row: 3, Col: 1}},
		{DirBackward, true, Position{Row: 3, Col: 1}},
		{DirLeft, true, Position{Row: 2, Col: 0}},
		{DirRight, true, Position{Row: 2, Col: 2}},
	}
	for _, tc := range cases {
		if got := Step(from, tc.dir, tc.bottom); got != tc.want {
			t.Errorf("Step(%v, %s, bottom=%v) = %v, want %v", from, tc.dir, tc.bottom, got, tc.want)
		}
	}
}

func TestTaxi(t *testing.T) {
	if d := Taxi(Position{0, 0}, Position{2, 1}); d != 3 {
		t.Errorf("taxi = %d, want 3", d)
	}
	if d := Taxi(Position{4, 1}, Position{4, 1}); d != 0 {
		t.Errorf("taxi = %d, want 0", d)
	}
}

func TestLegalInstallPositions(t *testing.T) {
	occupied := map[Position]bool{
		{Row: 4, Col: 1}: true, // acting wizard
		{Row: 3, Col: 1}: true,
	}
	legal := LegalInstallPositions(3, 5, Position{Row: 4, Col: 1}, 1, func(p Position) bool {
		return occupied[p]
	})

	want := []Position{{Row: 4, Col: 0}, {Row: 4, Col: 2}}
	if len(legal) != len(want) {
		t.Fatalf("got %v, want %v", legal, want)
	}
	for i := range want {
		if legal[i] != want[i] {
			t.Errorf("cell %d: got %v, want %v", i, legal[i], want[i])
		}
	}
}

func TestLegalInstallPositionsUnbounded(t *testing.T) {
	legal := LegalInstallPositions(3, 5, Position{Row: 4, Col: 1}, 0, nil)
	if len(legal) != 15 {
		t.Fatalf("range 0 must mean unlimited, got %d cells", len(legal))
	}
}

func TestParsePosition(t *testing.T) {
	p, err := ParsePosition("3,2")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p != (Position{Row: 3, Col: 2}) {
		t.Errorf("got %v", p)
	}
	if _, err := ParsePosition("nope"); err == nil {
		t.Error("expected error for malformed position")
	}
}
