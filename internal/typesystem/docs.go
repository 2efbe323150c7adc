package typesystem

import "strings"

// Docs is the documentation attached to a declaration.
type Docs struct {
	Summary    string `yaml:"summary,omitempty"`
	Remarks    string `yaml:"remarks,omitempty"`
	Example    string `yaml:"example,omitempty"`
	Returns    string `yaml:"returns,omitempty"`
	Deprecated string `yaml:"deprecated,omitempty"`
}

// Render formats the docs as markdown for editors.
func (d *Docs) Render() string {
	if d == nil {
		return ""
	}
	var parts []string
	if d.Summary != "" {
		parts = append(parts, d.Summary)
	}
	if d.Remarks != "" {
		parts = append(parts, d.Remarks)
	}
	if d.Returns != "" {
		parts = append(parts, "*@returns* "+d.Returns)
	}
	if d.Deprecated != "" {
		parts = append(parts, "*@deprecated* "+d.Deprecated)
	}
	if d.Example != "" {
		parts = append(parts, "### Example\n```\n"+strings.TrimSpace(d.Example)+"\n```")
	}
	return strings.Join(parts, "\n\n")
}
