// Package parser reads docker compose files.
package parser

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrServiceNotFound is returned by Service for names the file does not define.
var ErrServiceNotFound = errors.New("service not defined in compose file")

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ComposeFile is the subset of a compose file the bootstrap run relies on.
type ComposeFile struct {
	Name     string             `yaml:"name"`
	Services map[string]Service `yaml:"services" validate:"required,min=1,dive"`
	Volumes  map[string]any     `yaml:"volumes"`
	Networks map[string]any     `yaml:"networks"`
}

// Service is one entry under services.
type Service struct {
	Image         string        `yaml:"image" validate:"required_without=Build.Context"`
	Build         Build         `yaml:"build"`
	ContainerName string        `yaml:"container_name"`
	Ports         []PortMapping `yaml:"ports"`
	DependsOn     DependsOn     `yaml:"depends_on"`
}

// Build accepts the short form (a context path) and the long form. A long form
// without context builds from ".".
type Build struct {
	Context    string `yaml:"context"`
	Dockerfile string `yaml:"dockerfile"`
}

func (b *Build) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		b.Context = node.Value
		return nil
	}
	type plain Build
	if err := node.Decode((*plain)(b)); err != nil {
		return err
	}
	if b.Context == "" {
		b.Context = "."
	}
	return nil
}

// PortMapping accepts "8080:80", 80 and the long {target, published} form.
type PortMapping struct {
	Published string `yaml:"published"`
	Target    string `yaml:"target"`
}

func (p *PortMapping) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*p = parsePortSpec(node.Value)
		return nil
	case yaml.MappingNode:
		var long struct {
			Published yaml.Node `yaml:"published"`
			Target    yaml.Node `yaml:"target"`
		}
		if err := node.Decode(&long); err != nil {
			return err
		}
		p.Published = long.Published.Value
		p.Target = long.Target.Value
		return nil
	default:
		return fmt.Errorf("line %d: unsupported port mapping", node.Line)
	}
}

// parsePortSpec handles [ip:]published:target[/proto] and bare container ports.
func parsePortSpec(spec string) PortMapping {
	spec, _, _ = strings.Cut(spec, "/")
	parts := strings.Split(spec, ":")
	if len(parts) == 1 {
		return PortMapping{Target: parts[0]}
	}
	return PortMapping{Published: parts[len(parts)-2], Target: parts[len(parts)-1]}
}

// DependsOn accepts both the list and the map form.
type DependsOn []string

func (d *DependsOn) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*d = list
	case yaml.MappingNode:
		var m map[string]yaml.Node
		if err := node.Decode(&m); err != nil {
			return err
		}
		names := make([]string, 0, len(m))
		for name := range m {
			names = append(names, name)
		}
		sort.Strings(names)
		*d = names
	default:
		return fmt.Errorf("line %d: depends_on must be a list or a map", node.Line)
	}
	return nil
}

// Parse reads and validates a compose file.
func Parse(filePath string) (*ComposeFile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("compose file not found: %s", filePath)
		}
		return nil, fmt.Errorf("failed to read compose file: %w", err)
	}

	var cf ComposeFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse compose file - malformed YAML: %w", err)
	}

	if err := validate.Struct(&cf); err != nil {
		return nil, formatValidationError(err)
	}

	return &cf, nil
}

// ServiceNames returns the defined services in sorted order.
func (c *ComposeFile) ServiceNames() []string {
	names := make([]string, 0, len(c.Services))
	for name := range c.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Service returns the named service.
func (c *ComposeFile) Service(name string) (Service, error) {
	svc, ok := c.Services[name]
	if !ok {
		return Service{}, fmt.Errorf("%w: %s", ErrServiceNotFound, name)
	}
	return svc, nil
}

// PublishedPorts lists the host ports a service publishes.
func (s Service) PublishedPorts() []int {
	var ports []int
	for _, p := range s.Ports {
		if n, err := strconv.Atoi(p.Published); err == nil {
			ports = append(ports, n)
		}
	}
	return ports
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("validation failed: %w", err)
	}

	var errorMessages []string
	for _, e := range validationErrors {
		errorMessages = append(errorMessages, formatFieldError(e))
	}

	if len(errorMessages) == 1 {
		return fmt.Errorf("validation error: %s", errorMessages[0])
	}

	result := "validation errors:\n"
	for _, msg := range errorMessages {
		result += fmt.Sprintf("  - %s\n", msg)
	}
	return errors.New(result)
}

// formatFieldError formats a single validation error into a user-friendly message.
func formatFieldError(e validator.FieldError) string {
	field := e.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("field '%s' is required but missing", field)
	case "min":
		return fmt.Sprintf("field '%s' must define at least %s entry", field, e.Param())
	case "required_without":
		return fmt.Sprintf("field '%s' is required when no build context is set", field)
	default:
		return fmt.Sprintf("field '%s' failed validation (%s)", field, e.Tag())
	}
}
