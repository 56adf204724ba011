package lexicon

// defaultTerms is the curated global lexicon, seeded idempotently.
// Terms are stored lowercase; matching is case-insensitive.
var defaultTerms = []struct {
	Term     string
	Category string
}{
	// Performance
	{"fast", "performance"}, {"slow", "performance"}, {"quick", "performance"},
	{"efficient", "performance"}, {"responsive", "performance"}, {"performant", "performance"},
	{"optimized", "performance"},
	// Security
	{"secure", "security"}, {"safe", "security"}, {"protected", "security"},
	// Usability
	{"user-friendly", "usability"}, {"easy", "usability"}, {"simple", "usability"},
	{"intuitive", "usability"}, {"convenient", "usability"}, {"straightforward", "usability"},
	// Quality
	{"robust", "quality"}, {"reliable", "quality"}, {"stable", "quality"},
	{"scalable", "quality"}, {"maintainable", "quality"}, {"flexible", "quality"}, {"modular", "quality"},
	// Appearance
	{"modern", "appearance"}, {"clean", "appearance"}, {"professional", "appearance"}, {"attractive", "appearance"},
	// General
	{"good", "general"}, {"better", "general"}, {"best", "general"}, {"appropriate", "general"},
	{"adequate", "general"}, {"reasonable", "general"}, {"sufficient", "general"}, {"acceptable", "general"},
	{"normal", "general"}, {"typical", "general"}, {"standard", "general"}, {"regular", "general"},
	{"common", "general"}, {"usual", "general"},
}
