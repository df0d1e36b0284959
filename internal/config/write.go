package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
)

// SetKeyInFile updates or adds key in section ("" for global) of the config
// file at path, preserving comments and formatting. An existing line for the
// key within that section is replaced in place. Otherwise the key is added
// after the last non-blank line of the section, which is appended if it
// does not exist. Global keys always stay before the first section header.
func SetKeyInFile(path, section, key, value string) error {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config file: %w", err)
	}

	var lines []string
	if len(data) > 0 {
		lines = strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	}

	newLine := key
	if value != "" {
		newLine = key + " " + value
	}

	start, end, ok := sectionBounds(lines, section)
	if !ok {
		if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) != "" {
			lines = append(lines, "")
		}
		lines = append(lines, "["+section+"]", newLine)
		return writeLines(path, lines)
	}

	for i := start; i < end; i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if name, _, _ := strings.Cut(trimmed, " "); name == key {
			lines[i] = newLine
			return writeLines(path, lines)
		}
	}

	at := start
	for i := end - 1; i >= start; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			at = i + 1
			break
		}
	}
	lines = slices.Insert(lines, at, newLine)
	return writeLines(path, lines)
}

// sectionBounds returns the half-open line range holding the options of
// section, excluding its header.
func sectionBounds(lines []string, section string) (start, end int, ok bool) {
	found := section == ""
	for i, line := range lines {
		name, isHeader := headerName(line)
		if !isHeader {
			continue
		}
		if found {
			return start, i, true
		}
		if name == section {
			found, start = true, i+1
		}
	}
	return start, len(lines), found
}

func headerName(line string) (string, bool) {
	t := strings.TrimSpace(line)
	if !strings.HasPrefix(t, "[") || !strings.HasSuffix(t, "]") {
		return "", false
	}
	return strings.TrimSpace(strings.Trim(t, "[]")), true
}

func writeLines(path string, lines []string) error {
	return atomicWriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644)
}

// Format renders c in the config file format: global options first, then
// each section, keys sorted.
func Format(c *Config) string {
	var b strings.Builder
	writeBlock(&b, c.Global)
	for _, name := range c.SectionNames() {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "[%s]\n", name)
		writeBlock(&b, c.Sections[name])
	}
	return b.String()
}

func writeBlock(b *strings.Builder, opts map[string]string) {
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := opts[k]; v != "" {
			fmt.Fprintf(b, "%s %s\n", k, v)
		} else {
			fmt.Fprintf(b, "%s\n", k)
		}
	}
}

// WriteToPath writes Format(c) to path, replacing it atomically.
func WriteToPath(c *Config, path string) error {
	return atomicWriteFile(path, []byte(Format(c)), 0644)
}

// atomicWriteFile writes data to a temporary file beside path and renames it
// into place, creating the parent directory if needed.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
