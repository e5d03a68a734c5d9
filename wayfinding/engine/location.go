package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// locationPattern accepts "B3. Column F8", "B3, Column F8", "Basement B3. Column F8"
// and the Vietnamese "Hầm B3. Cột F8" written by the mobile app.
var locationPattern = regexp.MustCompile(`(?i)^\s*(?:(?:basement|hầm)\s+)?([a-z0-9]+)\s*[.,]\s*(?:column|cột)\s+([a-z])(\d{1,2})\s*$`)

// ParseLocation converts a vehicle label into its basement id and column node
func ParseLocation(label string) (Location, error) {
	m := locationPattern.FindStringSubmatch(label)
	if m == nil {
		return Location{}, fmt.Errorf("%w: %q", ErrInvalidLocationFormat, label)
	}

	row, err := strconv.Atoi(m[3])
	if err != nil || row < 1 {
		return Location{}, fmt.Errorf("%w: row must be 1..%d in %q", ErrInvalidLocationFormat, MaxRows, label)
	}

	letter := strings.ToUpper(m[2])[0]
	return Location{
		Basement: strings.ToUpper(m[1]),
		Position: Position{X: int(letter-'A') + 1, Y: row},
	}, nil
}

// ParseColumn converts a bare column label such as "F8" into its node
func ParseColumn(label string) (Position, error) {
	loc, err := ParseLocation("X. Column " + strings.TrimSpace(label))
	if err != nil {
		return Position{}, fmt.Errorf("%w: %q", ErrInvalidLocationFormat, label)
	}
	return loc.Position, nil
}

// FormatLabel renders a column node as "<Letter><Number>". Aisle nodes that
// carry no column label are rendered as coordinates.
func FormatLabel(p Position) string {
	if p.X < 1 || p.X > MaxCols || p.Y < 1 || p.Y > MaxRows {
		return p.String()
	}
	return fmt.Sprintf("%c%d", rune('A'+p.X-1), p.Y)
}

// FormatLocation renders a location the way the app stores it
func FormatLocation(loc Location) string {
	return fmt.Sprintf("Basement %s. Column %s", loc.Basement, FormatLabel(loc.Position))
}
