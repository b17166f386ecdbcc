package loam

// GrammarMetadata is the frontmatter of a grammar document.
// It uses "mapstructure" tags to match standard Frontmatter/YAML keys.
type GrammarMetadata struct {
	// ID overrides the file-derived grammar ID.
	ID          string `json:"id" mapstructure:"id"`
	Description string `json:"description" mapstructure:"description"`

	// Options are compile options applied over the caller's (e.g. variant, verbose).
	Options map[string]any `json:"options" mapstructure:"options"`
}
