package swagger

import "fmt"

// Format selects the rendering of an exported document
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "json" or "yaml"
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatYAML:
		return Format(s), nil
	case "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType returns the media type served for f
func (f Format) ContentType() string {
	if f == FormatYAML {
		return "application/x-yaml"
	}
	return "application/json"
}

// Filename returns the conventional file name for a document in f
func (f Format) Filename() string {
	return "swagger." + string(f)
}

// Render serializes doc in format f
func Render(doc *Document, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return doc.JSON()
	case FormatYAML:
		return doc.YAML()
	}
	return nil, fmt.Errorf("unsupported export format %q", f)
}
