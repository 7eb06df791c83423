package mapping

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/dxform/document"
	"github.com/arloliu/dxform/errs"
)

// Dictionary file extensions.
const (
	ExtDxmap = ".dxmap"
	ExtYAML  = ".yaml"
	ExtYML   = ".yml"
)

// LoadDir reads every dictionary file in dir, in lexical file-name order.
func LoadDir(dir string) ([]Entry, error) {
	return loadDir(dir, false, slog.New(slog.DiscardHandler))
}

func loadDir(dir string, optional bool, logger *slog.Logger) ([]Entry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}

		return nil, &errs.MappingError{Path: dir, Err: fmt.Errorf("%w: %w", errs.ErrMappingLoad, err)}
	}

	names := make([]string, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() || !isDictionaryFile(de.Name()) {
			continue
		}
		names = append(names, de.Name())
	}
	sort.Strings(names)

	var all []Entry
	for _, name := range names {
		path := filepath.Join(dir, name)

		entries, err := LoadFile(path)
		if err != nil {
			return nil, err
		}

		logger.Debug("loaded dictionary file", slog.String("path", path), slog.Int("entries", len(entries)))
		all = append(all, entries...)
	}

	return all, nil
}

func isDictionaryFile(name string) bool {
	switch filepath.Ext(name) {
	case ExtDxmap, ExtYAML, ExtYML:
		return true
	default:
		return false
	}
}

// LoadFile reads one dictionary file. The format is chosen by extension.
func LoadFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &errs.MappingError{Path: path, Err: fmt.Errorf("%w: %w", errs.ErrMappingLoad, err)}
	}

	switch filepath.Ext(path) {
	case ExtYAML, ExtYML:
		return ParseYAML(path, data)
	default:
		return ParseDxmap(path, data)
	}
}

// ParseDxmap parses line-oriented "a=b" pairs. The shorter side is the abbreviation;
// on equal length the left side is. Blank lines and lines starting with '#' are skipped.
func ParseDxmap(path string, data []byte) ([]Entry, error) {
	var entries []Entry

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		left, right, ok := strings.Cut(line, "=")
		if !ok {
			return nil, &errs.MappingError{Path: path, Line: lineNo, Err: fmt.Errorf("%w: missing '='", errs.ErrMalformedEntry)}
		}

		entry, err := orient(strings.TrimSpace(left), strings.TrimSpace(right))
		if err != nil {
			return nil, &errs.MappingError{Path: path, Line: lineNo, Err: err}
		}

		entries = append(entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, &errs.MappingError{Path: path, Err: fmt.Errorf("%w: %w", errs.ErrMappingLoad, err)}
	}

	return entries, nil
}

// ParseYAML parses a flat YAML mapping of "short: long" pairs, keeping document order.
func ParseYAML(path string, data []byte) ([]Entry, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &errs.MappingError{Path: path, Err: fmt.Errorf("%w: %w", errs.ErrMalformedEntry, err)}
	}

	// empty file
	if root.Kind == 0 || len(root.Content) == 0 {
		return nil, nil
	}

	node := root.Content[0]
	if node.Kind != yaml.MappingNode {
		return nil, &errs.MappingError{Path: path, Line: node.Line, Err: fmt.Errorf("%w: top level must be a mapping", errs.ErrMalformedEntry)}
	}

	entries := make([]Entry, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if k.Kind != yaml.ScalarNode || v.Kind != yaml.ScalarNode {
			return nil, &errs.MappingError{Path: path, Line: k.Line, Err: fmt.Errorf("%w: values must be scalars", errs.ErrMalformedEntry)}
		}

		entry, err := orient(k.Value, v.Value)
		if err != nil {
			return nil, &errs.MappingError{Path: path, Line: k.Line, Err: err}
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

func orient(left, right string) (Entry, error) {
	if !document.ValidSegment(left) || !document.ValidSegment(right) {
		return Entry{}, fmt.Errorf("%w: %q=%q is not a pair of key segments", errs.ErrMalformedEntry, left, right)
	}

	if len(right) < len(left) {
		return Entry{Short: right, Long: left}, nil
	}

	return Entry{Short: left, Long: right}, nil
}
