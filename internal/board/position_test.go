package board

import (
	"testing"
)

func TestParsePosition(t *testing.T) {
	pos, err := ParsePosition(`
+---+
|♟.♟|
|. .|
|♖..|
+---+
`)
	if err != nil {
		t.Fatalf("ParsePosition: %v", err)
	}
	b := pos.Board()
	if b.Width != 3 || b.Height != 3 {
		t.Fatalf("board = %dx%d, want 3x3", b.Width, b.Height)
	}

	tests := []struct {
		at   Vec
		want Content
	}{
		{Vec{0, 0}, '♖'},
		{Vec{1, 0}, Empty},
		{Vec{1, 1}, OffBoard},
		{Vec{0, 2}, '♟'},
		{Vec{2, 2}, '♟'},
		{Vec{-1, 0}, OffBoard},
		{Vec{0, 3}, OffBoard},
	}
	for _, tc := range tests {
		if got := pos.At(tc.at); got != tc.want {
			t.Errorf("At(%v) = %s, want %s", tc.at, got, tc.want)
		}
	}
	if pos.OnBoard(Vec{1, 1}) {
		t.Error("hole reported as on board")
	}
}

func TestPositionStringRoundTrip(t *testing.T) {
	src := "+---+\n|♟.♟|\n|. .|\n|♖..|\n+---+"
	pos, err := ParsePosition(src)
	if err != nil {
		t.Fatal(err)
	}
	if got := pos.String(); got != src {
		t.Errorf("String() =\n%s\nwant\n%s", got, src)
	}
	again, err := ParsePosition(pos.String())
	if err != nil {
		t.Fatal(err)
	}
	if !again.Equal(pos) || again.Key() != pos.Key() {
		t.Error("reparsed position differs")
	}
}

func TestCompact(t *testing.T) {
	tests := []struct {
		compact string
		rows    string
	}{
		{"3/3/P2", "...\n...\nP.."},
		{"k7/8/8/8/8/8/8/7K", "k.......\n........\n........\n........\n........\n........\n........\n.......K"},
		{"#2/1R#", "#..\n.R#"},
		{"12", "............"},
	}
	for _, tc := range tests {
		t.Run(tc.compact, func(t *testing.T) {
			pos, err := ParseCompact(tc.compact)
			if err != nil {
				t.Fatalf("ParseCompact: %v", err)
			}
			want, err := ParsePosition(tc.rows)
			if err != nil {
				t.Fatal(err)
			}
			if !pos.Equal(want) {
				t.Errorf("got\n%v\nwant\n%v", pos, want)
			}
			if got := pos.Compact(); got != tc.compact {
				t.Errorf("Compact() = %q, want %q", got, tc.compact)
			}
		})
	}

	for _, bad := range []string{"", "0", "P%/2"} {
		if _, err := ParseCompact(bad); err == nil {
			t.Errorf("ParseCompact(%q) succeeded", bad)
		}
	}
}

func TestHashIncremental(t *testing.T) {
	pos, err := ParseCompact("P2/3/2p")
	if err != nil {
		t.Fatal(err)
	}
	next := pos.With(Cell{Vec{0, 2}, Empty}, Cell{Vec{0, 1}, 'P'})
	if next.Hash() != next.ComputeHash() {
		t.Error("incremental hash differs from full recompute")
	}
	back := next.With(Cell{Vec{0, 1}, Empty}, Cell{Vec{0, 2}, 'P'})
	if back.Hash() != pos.Hash() || !back.Equal(pos) {
		t.Error("undoing the change does not restore the position")
	}
	if pos.At(Vec{0, 2}) != 'P' {
		t.Error("With mutated the receiver")
	}
}

func TestDiff(t *testing.T) {
	a, _ := ParseCompact("P2/3")
	b, _ := ParseCompact("3/P2")
	got := Diff(a, b)
	want := []Vec{{0, 1}, {0, 0}}
	if len(got) != len(want) {
		t.Fatalf("Diff = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Diff[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if d := Diff(a, a); len(d) != 0 {
		t.Errorf("Diff(a, a) = %v", d)
	}
}

func TestPositionFromFragment(t *testing.T) {
	f := ParseFragment([]string{"K ", ".."}, Vec{2, 3})
	pos, err := PositionFromFragment(f)
	if err != nil {
		t.Fatal(err)
	}
	if pos.Board().Min != (Vec{2, 3}) {
		t.Errorf("Min = %v", pos.Board().Min)
	}
	if pos.At(Vec{3, 4}) != OffBoard || pos.At(Vec{2, 4}) != 'K' {
		t.Error("unexpected contents")
	}
	if !pos.Fragment().Equal(f) {
		t.Error("Fragment() does not return the source fragment")
	}
	if got := pos.Find('K'); len(got) != 1 || got[0] != (Vec{2, 4}) {
		t.Errorf("Find(K) = %v", got)
	}
	if _, err := PositionFromFragment(Zero); err == nil {
		t.Error("empty fragment accepted")
	}
}
