// Package speech turns route narration into text and hands it to a speech
// synthesizer.
//
// Catalog renders engine.Instruction values with gettext catalogs embedded
// from locales/*.po. English ("en") and Vietnamese ("vi") ship with the
// binary; any other locale falls back to English.
//
// Usage:
//
//	catalog, err := speech.NewCatalog()
//	text := catalog.Sentence("vi", route.ToVehicleNarration)
//
//	client := speech.NewClient("http://localhost:5002/speak")
//	client.SpeakAsync(text, "vi")
package speech
