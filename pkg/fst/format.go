package fst

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Format is a transducer container format.
type Format string

const (
	FormatATT  Format = "att"
	FormatJSON Format = "json"
)

// ParseFormat converts a format name; the empty string selects FormatATT.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "":
		return FormatATT, nil
	case FormatATT, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown transducer format %q", s)
}

// Extension returns the file extension used for the format.
func (f Format) Extension() string {
	if f == FormatJSON {
		return ".json"
	}
	return ".att"
}

// Encode writes t to w in format f.
func Encode(w io.Writer, t *Transducer, f Format) error {
	switch f {
	case FormatATT, "":
		return t.WriteATT(w)
	case FormatJSON:
		enc := json.NewEncoder(w)
		return enc.Encode(t)
	}
	return fmt.Errorf("unknown transducer format %q", f)
}

// Decode reads a transducer in format f. For AT&T input, name is used as the
// transducer name; JSON input carries its own name and falls back to name.
func Decode(r io.Reader, f Format, name string) (*Transducer, error) {
	switch f {
	case FormatATT, "":
		return ReadATT(r, name)
	case FormatJSON:
		var t Transducer
		if err := json.NewDecoder(r).Decode(&t); err != nil {
			return nil, fmt.Errorf("failed to decode transducer: %w", err)
		}
		if t.Name == "" {
			t.Name = name
		}
		return &t, nil
	}
	return nil, fmt.Errorf("unknown transducer format %q", f)
}
