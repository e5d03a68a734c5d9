package engine

import "fmt"

// InstructionKind identifies a narration step
type InstructionKind string

const (
	KindBegin     InstructionKind = "begin"
	KindStraight  InstructionKind = "straight"
	KindTurnLeft  InstructionKind = "turn_left"
	KindTurnRight InstructionKind = "turn_right"
	KindArrive    InstructionKind = "arrive"
)

// Instruction is one language-neutral narration step. Count is set for
// straight runs, Destination for begin and arrive.
type Instruction struct {
	Kind        InstructionKind `json:"kind"`
	Count       int             `json:"count,omitempty"`
	Destination string          `json:"destination,omitempty"`
}

// String returns a compact debug form such as "straight(3)"
func (i Instruction) String() string {
	switch i.Kind {
	case KindStraight:
		return fmt.Sprintf("straight(%d)", i.Count)
	case KindBegin, KindArrive:
		return fmt.Sprintf("%s(%s)", i.Kind, i.Destination)
	default:
		return string(i.Kind)
	}
}

// Narrate converts a path into turn-by-turn instructions ending at destination.
//
// A path shorter than two nodes narrates as a single arrival. Callers must
// check Path.Reachable first: an empty path means there is no route, not that
// the walker is already there.
func Narrate(path Path, destination string) []Instruction {
	if len(path) < 2 {
		return []Instruction{{Kind: KindArrive, Destination: destination}}
	}

	steps := []Instruction{{Kind: KindBegin, Destination: destination}}

	straight := 1
	prev := direction(path[0], path[1])
	for i := 2; i < len(path); i++ {
		dir := direction(path[i-1], path[i])
		if dir == prev {
			straight++
			continue
		}

		steps = append(steps, Instruction{Kind: KindStraight, Count: straight})
		straight = 1

		// y grows downward, so a positive cross product is a clockwise (right) turn
		if cross(prev, dir) > 0 {
			steps = append(steps, Instruction{Kind: KindTurnRight})
		} else {
			steps = append(steps, Instruction{Kind: KindTurnLeft})
		}
		prev = dir
	}

	steps = append(steps,
		Instruction{Kind: KindStraight, Count: straight},
		Instruction{Kind: KindArrive, Destination: destination},
	)
	return steps
}

// NarrateLeg narrates a route leg, returning nil for an unreachable leg
func NarrateLeg(path Path, destination string) []Instruction {
	if !path.Reachable() {
		return nil
	}
	return Narrate(path, destination)
}

// StraightTotal sums the straight counts of a narration
func StraightTotal(steps []Instruction) int {
	total := 0
	for _, s := range steps {
		if s.Kind == KindStraight {
			total += s.Count
		}
	}
	return total
}

func direction(from, to Position) Position {
	return Position{X: to.X - from.X, Y: to.Y - from.Y}
}

func cross(a, b Position) int {
	return a.X*b.Y - a.Y*b.X
}
