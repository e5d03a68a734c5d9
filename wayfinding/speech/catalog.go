package speech

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/leonelquinteros/gotext"

	"github.com/wricardo/mall-parking/wayfinder/wayfinding/engine"
)

// DefaultLocale is used for unknown locales
const DefaultLocale = "en"

//go:embed locales/*.po
var localeFiles embed.FS

// Catalog renders narration into text using one gettext catalog per locale
type Catalog struct {
	locales map[string]*gotext.Po
}

// NewCatalog loads the embedded en and vi catalogs
func NewCatalog() (*Catalog, error) {
	entries, err := localeFiles.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("failed to read locales: %w", err)
	}

	c := &Catalog{locales: make(map[string]*gotext.Po)}
	for _, entry := range entries {
		data, err := localeFiles.ReadFile("locales/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", entry.Name(), err)
		}
		c.Add(strings.TrimSuffix(entry.Name(), ".po"), data)
	}

	if _, ok := c.locales[DefaultLocale]; !ok {
		return nil, fmt.Errorf("missing %s catalog", DefaultLocale)
	}
	return c, nil
}

// Add parses a .po file and registers it under locale, replacing any previous catalog
func (c *Catalog) Add(locale string, po []byte) {
	p := gotext.NewPo()
	p.Parse(po)
	c.locales[normalize(locale)] = p
}

// Locales returns the registered locale codes, sorted
func (c *Catalog) Locales() []string {
	out := make([]string, 0, len(c.locales))
	for l := range c.locales {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Supports reports whether locale has its own catalog
func (c *Catalog) Supports(locale string) bool {
	_, ok := c.locales[normalize(locale)]
	return ok
}

// Render returns one line of text per instruction
func (c *Catalog) Render(locale string, steps []engine.Instruction) []string {
	po := c.po(locale)
	lines := make([]string, 0, len(steps))
	for _, s := range steps {
		lines = append(lines, renderStep(po, s))
	}
	return lines
}

// Sentence renders a whole leg as one paragraph. Empty narration is an
// unreachable leg and renders as the no-route message.
func (c *Catalog) Sentence(locale string, steps []engine.Instruction) string {
	if len(steps) == 0 {
		return c.po(locale).Get("No route found") + "."
	}
	return strings.Join(c.Render(locale, steps), ". ") + "."
}

func (c *Catalog) po(locale string) *gotext.Po {
	if p, ok := c.locales[normalize(locale)]; ok {
		return p
	}
	return c.locales[DefaultLocale]
}

func renderStep(po *gotext.Po, s engine.Instruction) string {
	switch s.Kind {
	case engine.KindBegin:
		return po.Get("Head towards %s", s.Destination)
	case engine.KindStraight:
		return po.GetN("Go straight %d node", "Go straight %d nodes", s.Count, s.Count)
	case engine.KindTurnLeft:
		return po.Get("Turn left")
	case engine.KindTurnRight:
		return po.Get("Turn right")
	case engine.KindArrive:
		return po.Get("You have arrived at %s", s.Destination)
	default:
		return s.String()
	}
}

// normalize maps "vi-VN", "vi_VN.UTF-8" and "VI" to "vi"
func normalize(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if i := strings.IndexAny(locale, "-_."); i >= 0 {
		locale = locale[:i]
	}
	return locale
}
