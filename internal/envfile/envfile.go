// Package envfile makes sure a project has a local environment file, creating
// the template and the local copy when they are missing.
package envfile

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// SecretKey is the variable that must carry a non-empty value in the local file.
const SecretKey = "APP_SECRET"

// Outcome reports what Materialize changed on disk.
type Outcome struct {
	TemplateCreated bool
	LocalCreated    bool
}

// Materializer owns the template and local environment file paths of a project.
type Materializer struct {
	TemplatePath string
	LocalPath    string
	// Secret generates the APP_SECRET of a synthesised template.
	Secret func() (string, error)
}

// NewMaterializer returns a Materializer for the two paths, resolved against dir
// when they are relative.
func NewMaterializer(dir, templatePath, localPath string) *Materializer {
	return &Materializer{
		TemplatePath: resolve(dir, templatePath),
		LocalPath:    resolve(dir, localPath),
		Secret:       GenerateSecret,
	}
}

func resolve(dir, path string) string {
	if dir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// DefaultTemplate renders the minimal template written when none exists.
func DefaultTemplate(secret string) string {
	return "###> symfony/framework-bundle ###\n" +
		"APP_ENV=dev\n" +
		SecretKey + "=" + secret + "\n" +
		"###< symfony/framework-bundle ###\n"
}

// Materialize synthesises the template when it is missing and copies it to the
// local path when that is missing. An existing local file is never touched.
func (m *Materializer) Materialize() (Outcome, error) {
	var outcome Outcome

	templateExists, err := exists(m.TemplatePath)
	if err != nil {
		return outcome, err
	}
	if !templateExists {
		slog.Info("Environment template not found, creating a basic one", "path", m.TemplatePath)
		if err := m.writeTemplate(); err != nil {
			return outcome, err
		}
		outcome.TemplateCreated = true
	}

	localExists, err := exists(m.LocalPath)
	if err != nil {
		return outcome, err
	}
	if localExists {
		slog.Info("Local environment file already exists", "path", m.LocalPath)
		return outcome, nil
	}

	if err := copyFile(m.TemplatePath, m.LocalPath); err != nil {
		return outcome, err
	}
	slog.Info("Local environment file created", "path", m.LocalPath, "template", m.TemplatePath)
	outcome.LocalCreated = true
	return outcome, nil
}

func (m *Materializer) writeTemplate() error {
	secretFn := m.Secret
	if secretFn == nil {
		secretFn = GenerateSecret
	}
	secret, err := secretFn()
	if err != nil {
		return fmt.Errorf("failed to generate secret: %w", err)
	}

	if err := os.WriteFile(m.TemplatePath, []byte(DefaultTemplate(secret)), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", m.TemplatePath, err)
	}
	return nil
}

// Inspect parses the local file as dotenv and reports the keys among required
// that have no value, whether they are absent or set to an empty string.
func (m *Materializer) Inspect(required ...string) ([]string, error) {
	values, err := godotenv.Read(m.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", m.LocalPath, err)
	}

	var empty []string
	for _, key := range required {
		if values[key] == "" {
			empty = append(empty, key)
		}
	}
	return empty, nil
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat %s: %w", path, err)
}

// copyFile copies src to dst byte for byte. dst must not exist.
func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer srcFile.Close()

	info, err := srcFile.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", src, err)
	}

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		dstFile.Close()
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	return dstFile.Close()
}
