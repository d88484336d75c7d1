package scaffolder

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"freshstart/pkg/project"
)

// ErrDestinationExists is returned when the new project's directory is already present.
var ErrDestinationExists = errors.New("destination already exists")

// Scaffold copies the source project to the request's destination, skipping
// excluded entries, and rewrites package.json and composer.json for the new
// name. With isDryRun it only prints what it would do.
func Scaffold(req *project.Request, isDryRun bool) error {
	if req == nil {
		return fmt.Errorf("request cannot be nil")
	}

	sourcePath := req.Source
	destPath := req.Destination

	if _, err := os.Stat(sourcePath); os.IsNotExist(err) {
		return fmt.Errorf("source project directory not found: %s", sourcePath)
	}
	if _, err := os.Stat(destPath); err == nil {
		return fmt.Errorf("%w: %s", ErrDestinationExists, destPath)
	}

	excludes := req.Excludes
	if excludes == nil {
		excludes = project.DefaultExcludes
	}

	if isDryRun {
		return performDryRun(req, excludes)
	}

	if err := os.MkdirAll(destPath, 0750); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	if err := copyDirectory(sourcePath, destPath, excludes); err != nil {
		return fmt.Errorf("failed to copy source directory: %w", err)
	}

	if err := rewriteManifests(req, destPath); err != nil {
		return fmt.Errorf("failed to update manifests: %w", err)
	}

	return nil
}

// performDryRun logs what would be done without actually performing the operations.
func performDryRun(req *project.Request, excludes []string) error {
	sourcePath := req.Source
	destPath := req.Destination

	fmt.Printf("DRY RUN: Would copy directory from %s to %s\n", sourcePath, destPath)

	err := walkIncluded(sourcePath, excludes, func(path string, d fs.DirEntry) error {
		relPath, err := filepath.Rel(sourcePath, path)
		if err != nil {
			return err
		}

		destFile := filepath.Join(destPath, relPath)
		if d.IsDir() {
			fmt.Printf("DRY RUN: Would create directory: %s\n", destFile)
		} else {
			fmt.Printf("DRY RUN: Would copy file: %s\n", destFile)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk source directory: %w", err)
	}

	for _, manifest := range manifestUpdates(req) {
		if _, err := os.Stat(filepath.Join(sourcePath, manifest.file)); err == nil {
			fmt.Printf("DRY RUN: Would set %s name to %q\n", manifest.file, manifest.fields[0].value)
		}
	}

	return nil
}

// walkIncluded walks src, skipping any entry whose name is excluded.
func walkIncluded(src string, excludes []string, fn func(path string, d fs.DirEntry) error) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != src && isExcluded(d.Name(), excludes) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		return fn(path, d)
	})
}

func isExcluded(name string, excludes []string) bool {
	for _, e := range excludes {
		if name == e {
			return true
		}
	}
	return false
}

// copyDirectory recursively copies a directory from src to dst.
func copyDirectory(src, dst string, excludes []string) error {
	return walkIncluded(src, excludes, func(path string, d fs.DirEntry) error {
		relPath, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		destPath := filepath.Join(dst, relPath)

		if d.IsDir() {
			return os.MkdirAll(destPath, 0750)
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return copySymlink(path, destPath)
		}

		return copyFile(path, destPath)
	})
}

func copySymlink(src, dst string) error {
	target, err := os.Readlink(src)
	if err != nil {
		return fmt.Errorf("failed to read symlink %s: %w", src, err)
	}
	return os.Symlink(target, dst)
}

// validatePath ensures the path is safe and doesn't contain directory traversal sequences
func validatePath(path string) error {
	cleanPath := filepath.Clean(path)
	for _, part := range strings.Split(filepath.ToSlash(cleanPath), "/") {
		if part == ".." {
			return fmt.Errorf("path contains directory traversal: %s", path)
		}
	}
	return nil
}

// copyFile copies a single file from src to dst.
func copyFile(src, dst string) error {
	if err := validatePath(src); err != nil {
		return fmt.Errorf("invalid source path: %w", err)
	}
	if err := validatePath(dst); err != nil {
		return fmt.Errorf("invalid destination path: %w", err)
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", src, err)
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", dst, err)
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("failed to copy file content: %w", err)
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to get source file info: %w", err)
	}

	return os.Chmod(dst, srcInfo.Mode())
}

type manifestField struct {
	key   string
	value string
}

type manifestUpdate struct {
	file   string
	fields []manifestField
}

func manifestUpdates(req *project.Request) []manifestUpdate {
	description := project.Description(req.Name)
	return []manifestUpdate{
		{file: "package.json", fields: []manifestField{{"name", req.Name}, {"description", description}}},
		{file: "composer.json", fields: []manifestField{{"name", req.ComposerName()}, {"description", description}}},
	}
}

// rewriteManifests updates the name and description of each manifest present
// in destPath.
func rewriteManifests(req *project.Request, destPath string) error {
	for _, manifest := range manifestUpdates(req) {
		path := filepath.Join(destPath, manifest.file)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", manifest.file, err)
		}

		updated, err := setJSONFields(data, manifest.fields)
		if err != nil {
			return fmt.Errorf("failed to update %s: %w", manifest.file, err)
		}

		if err := os.WriteFile(path, updated, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", manifest.file, err)
		}
	}
	return nil
}

type jsonMember struct {
	key   string
	value json.RawMessage
}

// setJSONFields sets string fields on a top-level JSON object, keeping the
// existing key order and appending new keys. Output uses two-space indentation.
func setJSONFields(data []byte, fields []manifestField) ([]byte, error) {
	members, err := decodeObject(data)
	if err != nil {
		return nil, err
	}

	for _, f := range fields {
		value, err := encodeString(f.value)
		if err != nil {
			return nil, err
		}

		found := false
		for i := range members {
			if members[i].key == f.key {
				members[i].value = value
				found = true
				break
			}
		}
		if !found {
			members = append(members, jsonMember{key: f.key, value: value})
		}
	}

	var buf bytes.Buffer
	buf.WriteString("{")
	for i, m := range members {
		if i > 0 {
			buf.WriteString(",")
		}
		key, err := encodeString(m.key)
		if err != nil {
			return nil, err
		}
		var value bytes.Buffer
		if err := json.Indent(&value, m.value, "  ", "  "); err != nil {
			return nil, err
		}
		buf.WriteString("\n  ")
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(value.Bytes())
	}
	if len(members) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("}")
	return buf.Bytes(), nil
}

func decodeObject(data []byte) ([]jsonMember, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected a JSON object")
	}

	var members []jsonMember
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected an object key, got %v", tok)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		members = append(members, jsonMember{key: key, value: value})
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return members, nil
}

func encodeString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
