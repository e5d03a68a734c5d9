package engine

import (
	"reflect"
	"testing"
)

func TestNarrate_DetourRightTurns(t *testing.T) {
	path := Path{{2, 2}, {2, 1}, {3, 1}, {4, 1}, {4, 2}}

	steps := Narrate(path, "D2")

	expected := []Instruction{
		{Kind: KindBegin, Destination: "D2"},
		{Kind: KindStraight, Count: 1},
		{Kind: KindTurnRight},
		{Kind: KindStraight, Count: 2},
		{Kind: KindTurnRight},
		{Kind: KindStraight, Count: 1},
		{Kind: KindArrive, Destination: "D2"},
	}
	if !reflect.DeepEqual(steps, expected) {
		t.Errorf("Expected %v, got %v", expected, steps)
	}
}

func TestNarrate_LeftTurn(t *testing.T) {
	// east, then north (y decreasing)
	steps := Narrate(Path{{0, 1}, {1, 1}, {1, 0}}, "A0")

	if len(steps) != 5 {
		t.Fatalf("Expected 5 steps, got %v", steps)
	}
	if steps[2].Kind != KindTurnLeft {
		t.Errorf("Expected turn_left, got %s", steps[2])
	}
}

func TestNarrate_TurnDirections(t *testing.T) {
	tests := []struct {
		name string
		path Path
		want InstructionKind
	}{
		{"south then east", Path{{0, 0}, {0, 1}, {1, 1}}, KindTurnLeft},
		{"south then west", Path{{1, 0}, {1, 1}, {0, 1}}, KindTurnRight},
		{"west then north", Path{{1, 1}, {0, 1}, {0, 0}}, KindTurnRight},
		{"north then west", Path{{1, 1}, {1, 0}, {0, 0}}, KindTurnLeft},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			steps := Narrate(test.path, "X")
			if steps[2].Kind != test.want {
				t.Errorf("Expected %s, got %s", test.want, steps[2])
			}
		})
	}
}

func TestNarrate_StraightLine(t *testing.T) {
	path := Path{{0, 0}, {1, 0}, {2, 0}, {3, 0}}

	steps := Narrate(path, "C0")

	expected := []Instruction{
		{Kind: KindBegin, Destination: "C0"},
		{Kind: KindStraight, Count: 3},
		{Kind: KindArrive, Destination: "C0"},
	}
	if !reflect.DeepEqual(steps, expected) {
		t.Errorf("Expected %v, got %v", expected, steps)
	}
}

func TestNarrate_AlreadyThere(t *testing.T) {
	for _, path := range []Path{{}, {{4, 4}}} {
		steps := Narrate(path, "D4")
		if len(steps) != 1 || steps[0].Kind != KindArrive || steps[0].Destination != "D4" {
			t.Errorf("Expected a single arrive step for %v, got %v", path, steps)
		}
	}
}

func TestNarrateLeg_Unreachable(t *testing.T) {
	if steps := NarrateLeg(Path{}, "Exit"); steps != nil {
		t.Errorf("Expected no narration for unreachable leg, got %v", steps)
	}
	if steps := NarrateLeg(Path{{1, 1}}, "A1"); len(steps) != 1 {
		t.Errorf("Expected arrival for single-node leg, got %v", steps)
	}
}

func TestNarrate_StraightCountsCoverPath(t *testing.T) {
	grid, _ := DefaultLayout().Build()

	ends := []Position{{12, 9}, {0, 9}, {4, 2}, {10, 0}, {9, 6}}
	for _, end := range ends {
		path := FindPath(grid, Position{2, 2}, end)
		if !path.Reachable() {
			t.Fatalf("Expected %s reachable", end)
		}
		steps := Narrate(path, FormatLabel(end))
		if got := StraightTotal(steps); got != path.Moves() {
			t.Errorf("Straight counts for %s sum to %d, path has %d moves", end, got, path.Moves())
		}
		if steps[0].Kind != KindBegin || steps[len(steps)-1].Kind != KindArrive {
			t.Errorf("Narration for %s must start with begin and end with arrive: %v", end, steps)
		}
	}
}

func TestInstruction_String(t *testing.T) {
	tests := []struct {
		in   Instruction
		want string
	}{
		{Instruction{Kind: KindStraight, Count: 3}, "straight(3)"},
		{Instruction{Kind: KindBegin, Destination: "F8"}, "begin(F8)"},
		{Instruction{Kind: KindArrive, Destination: "Exit"}, "arrive(Exit)"},
		{Instruction{Kind: KindTurnLeft}, "turn_left"},
	}

	for _, test := range tests {
		if got := test.in.String(); got != test.want {
			t.Errorf("Expected %s, got %s", test.want, got)
		}
	}
}
