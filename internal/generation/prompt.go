package generation

// StyleLookup resolves a style name to its prompt suffix.
type StyleLookup interface {
	Lookup(name string) (string, bool)
}

const styleSeparator = ", "

// BuildPrompt appends the style suffix for style to base. Unknown or empty
// styles leave base untouched.
func BuildPrompt(styles StyleLookup, base, style string) string {
	if style == "" || styles == nil {
		return base
	}
	suffix, ok := styles.Lookup(style)
	if !ok {
		return base
	}
	return base + styleSeparator + suffix
}
