package output

import (
	"encoding/json"
	"io"
)

// JSONFormatter writes data as JSON indented by two spaces. Error messages
// are printed as they are, without \u003c style escapes.
type JSONFormatter struct{}

// Format implements Formatter.
func (f *JSONFormatter) Format(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
