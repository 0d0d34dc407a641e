// Package inifile reads and writes the small INI dialect used by semsql.ini.
//
// Section names are case-insensitive and stored lowercased. Keys keep their
// spelling (template names such as functions.DATETRUNC are case sensitive
// downstream) but are matched case-insensitively. A value may be wrapped in
// double quotes to keep leading or trailing spaces and semicolons; otherwise
// " ;" starts an inline comment.
package inifile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// File represents a parsed INI file.
type File struct {
	Sections []Section
}

// Section represents a named section in an INI file.
type Section struct {
	Name   string     // e.g., "semsql", "templates.postgres"
	Values []KeyValue // preserves order
}

// KeyValue represents a key-value pair.
type KeyValue struct {
	Key   string
	Value string
}

// SyntaxError reports a malformed line.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// Parse reads an INI file from the given reader.
func Parse(r io.Reader) (*File, error) {
	f := &File{}
	var currentSection *Section

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		// Section header
		if strings.HasPrefix(line, "[") {
			if !strings.HasSuffix(line, "]") {
				return nil, &SyntaxError{Line: lineNo, Msg: fmt.Sprintf("unterminated section header %q", line)}
			}
			name := strings.ToLower(strings.TrimSpace(strings.Trim(line, "[]")))
			if name == "" {
				return nil, &SyntaxError{Line: lineNo, Msg: "empty section name"}
			}
			f.Sections = append(f.Sections, Section{Name: name})
			currentSection = &f.Sections[len(f.Sections)-1]
			continue
		}

		key, raw, ok := strings.Cut(line, "=")
		if !ok {
			return nil, &SyntaxError{Line: lineNo, Msg: fmt.Sprintf("expected key = value, got %q", line)}
		}
		if currentSection == nil {
			return nil, &SyntaxError{Line: lineNo, Msg: fmt.Sprintf("key %q outside of any section", strings.TrimSpace(key))}
		}

		value, err := parseValue(strings.TrimSpace(raw))
		if err != nil {
			return nil, &SyntaxError{Line: lineNo, Msg: err.Error()}
		}
		currentSection.Values = append(currentSection.Values, KeyValue{Key: strings.TrimSpace(key), Value: value})
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return f, nil
}

// parseValue unquotes a double-quoted value or strips an inline comment.
func parseValue(raw string) (string, error) {
	if strings.HasPrefix(raw, `"`) {
		s, err := strconv.QuotedPrefix(raw)
		if err != nil {
			return "", fmt.Errorf("bad quoted value %s", raw)
		}
		rest := strings.TrimSpace(raw[len(s):])
		if rest != "" && !strings.HasPrefix(rest, ";") && !strings.HasPrefix(rest, "#") {
			return "", fmt.Errorf("unexpected text after quoted value: %q", rest)
		}
		return strconv.Unquote(s)
	}
	if i := strings.Index(raw, " ;"); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimSpace(raw), nil
}

// ParseFile reads and parses an INI file from disk.
func ParseFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	parsed, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return parsed, nil
}

// Section returns the section with the given name (case-insensitive).
func (f *File) Section(name string) *Section {
	name = strings.ToLower(name)
	for i := range f.Sections {
		if f.Sections[i].Name == name {
			return &f.Sections[i]
		}
	}
	return nil
}

// Get returns the last value for a key in a section.
func (f *File) Get(section, key string) string {
	s := f.Section(section)
	if s == nil {
		return ""
	}
	return s.Get(key)
}

// SectionsWithPrefix returns sections whose names start with prefix.
func (f *File) SectionsWithPrefix(prefix string) []Section {
	prefix = strings.ToLower(prefix)
	var result []Section
	for _, s := range f.Sections {
		if strings.HasPrefix(s.Name, prefix) {
			result = append(result, s)
		}
	}
	return result
}

// Get returns the last value for a key (case-insensitive).
func (s *Section) Get(key string) string {
	var result string
	for _, kv := range s.Values {
		if strings.EqualFold(kv.Key, key) {
			result = kv.Value
		}
	}
	return result
}

// HasKey returns true if the section contains the given key.
func (s *Section) HasKey(key string) bool {
	for _, kv := range s.Values {
		if strings.EqualFold(kv.Key, key) {
			return true
		}
	}
	return false
}

// Map returns the section as a map, later duplicates winning.
func (s *Section) Map() map[string]string {
	m := make(map[string]string, len(s.Values))
	for _, kv := range s.Values {
		m[kv.Key] = kv.Value
	}
	return m
}

// Set sets a key-value pair in the specified section.
// If the section doesn't exist, it is created.
// If the key already exists, its value is replaced (destructive overwrite).
func (f *File) Set(section, key, value string) {
	section = strings.ToLower(section)

	s := f.Section(section)
	if s == nil {
		f.Sections = append(f.Sections, Section{Name: section})
		s = &f.Sections[len(f.Sections)-1]
	}

	for i := range s.Values {
		if strings.EqualFold(s.Values[i].Key, key) {
			s.Values[i].Value = value
			return
		}
	}
	s.Values = append(s.Values, KeyValue{Key: key, Value: value})
}

// Write serializes the INI file to the given writer.
// Values that would not survive a re-parse are quoted.
func (f *File) Write(w io.Writer) error {
	for i, section := range f.Sections {
		if _, err := fmt.Fprintf(w, "[%s]\n", section.Name); err != nil {
			return err
		}

		for _, kv := range section.Values {
			if _, err := fmt.Fprintf(w, "%s = %s\n", kv.Key, formatValue(kv.Value)); err != nil {
				return err
			}
		}

		// Add blank line between sections (but not after the last one)
		if i < len(f.Sections)-1 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
	}
	return nil
}

func formatValue(v string) string {
	if v != strings.TrimSpace(v) || strings.Contains(v, " ;") || strings.HasPrefix(v, `"`) {
		return strconv.Quote(v)
	}
	return v
}

// WriteFile writes the INI file to the specified path.
func (f *File) WriteFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := f.Write(file); err != nil {
		return err
	}

	return file.Sync()
}
