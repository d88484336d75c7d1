// Package project describes a request to fork the starter into a new project.
package project

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Supported providers.
const (
	ProviderGitHub = "github"
	ProviderGitLab = "gitlab"
)

// DefaultExcludes are entry names never copied into a new project, at any depth.
var DefaultExcludes = []string{"node_modules", ".git", "vendor", "var", "supervisord.pid", ".env.local"}

var (
	namePattern   = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	unsafePackage = regexp.MustCompile(`[^a-z0-9-_.]`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("projectname", func(fl validator.FieldLevel) bool {
		return ValidName(fl.Field().String())
	})
	return v
}

// Request holds everything needed to create and publish a new project.
type Request struct {
	Name        string   `validate:"required,projectname"`
	Owner       string   `validate:"required"`
	Provider    string   `validate:"required,oneof=github gitlab"`
	Visibility  string   `validate:"required,oneof=public private internal"`
	Source      string   `validate:"required"`
	Destination string   `validate:"required"`
	Excludes    []string
	// GitLabURL is the API base for self-hosted GitLab; empty means gitlab.com.
	GitLabURL string `validate:"omitempty,url"`
	DryRun    bool
}

// ValidName reports whether name uses only letters, digits, hyphens and underscores.
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

// Description is the manifest description written into a new project.
func Description(name string) string {
	return name + " - Symfony Docker Application"
}

// SafePackageSegment lowercases s and drops characters Composer rejects in a
// package name.
func SafePackageSegment(s string) string {
	return unsafePackage.ReplaceAllString(strings.ToLower(s), "")
}

// ComposerName is the vendor/package name written into composer.json.
func (r *Request) ComposerName() string {
	return SafePackageSegment(r.Owner) + "/" + SafePackageSegment(r.Name)
}

// Repository is the owner/name slug on the hosting provider.
func (r *Request) Repository() string {
	return r.Owner + "/" + r.Name
}

// Validate checks the request, reporting the first problem per field.
func (r *Request) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("validation failed: %w", err)
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		switch e.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", e.Field()))
		case "projectname":
			messages = append(messages, fmt.Sprintf("%s %q may only contain letters, numbers, hyphens, and underscores", e.Field(), e.Value()))
		case "oneof":
			messages = append(messages, fmt.Sprintf("%s must be one of: %s", e.Field(), e.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s failed validation (%s)", e.Field(), e.Tag()))
		}
	}
	return fmt.Errorf("invalid project request: %s", strings.Join(messages, "; "))
}
