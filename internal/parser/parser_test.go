package parser

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeCompose(t *testing.T, content string) string {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "freshstart-test-")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	filePath := filepath.Join(tmpDir, "docker-compose.yml")
	if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return filePath
}

func TestParse_ValidComposeFile(t *testing.T) {
	validYaml := `name: symfony-docker
services:
  app:
    build:
      context: .
      dockerfile: docker/Dockerfile
    container_name: symfony_app
    ports:
      - "8080:80"
      - target: 9000
        published: 9001
    depends_on:
      database:
        condition: service_healthy
      cache:
        condition: service_started
  database:
    image: postgres:16-alpine
    ports:
      - "127.0.0.1:5432:5432/tcp"
  cache:
    image: redis:7
    build: ./docker/redis
volumes:
  db-data: {}
`

	cf, err := Parse(writeCompose(t, validYaml))
	if err != nil {
		t.Fatalf("Expected successful parsing, got error: %v", err)
	}

	if cf.Name != "symfony-docker" {
		t.Errorf("Expected name 'symfony-docker', got '%s'", cf.Name)
	}

	if got := cf.ServiceNames(); !reflect.DeepEqual(got, []string{"app", "cache", "database"}) {
		t.Errorf("Unexpected service names: %v", got)
	}

	app, err := cf.Service("app")
	if err != nil {
		t.Fatalf("Expected app service, got error: %v", err)
	}
	if app.Build.Context != "." || app.Build.Dockerfile != "docker/Dockerfile" {
		t.Errorf("Unexpected build: %+v", app.Build)
	}
	if app.ContainerName != "symfony_app" {
		t.Errorf("Expected container name 'symfony_app', got '%s'", app.ContainerName)
	}
	if got := app.PublishedPorts(); !reflect.DeepEqual(got, []int{8080, 9001}) {
		t.Errorf("Expected published ports [8080 9001], got %v", got)
	}
	if !reflect.DeepEqual([]string(app.DependsOn), []string{"cache", "database"}) {
		t.Errorf("Unexpected depends_on: %v", app.DependsOn)
	}

	db, _ := cf.Service("database")
	if got := db.PublishedPorts(); !reflect.DeepEqual(got, []int{5432}) {
		t.Errorf("Expected published ports [5432], got %v", got)
	}

	cache, _ := cf.Service("cache")
	if cache.Build.Context != "./docker/redis" {
		t.Errorf("Expected short build form to set context, got '%s'", cache.Build.Context)
	}

	if _, ok := cf.Volumes["db-data"]; !ok {
		t.Errorf("Expected volume 'db-data' to be parsed")
	}
}

func TestParse_DependsOnList(t *testing.T) {
	cf, err := Parse(writeCompose(t, `services:
  app:
    image: php:8.3-fpm
    depends_on: [db]
    ports: ["80"]
  db:
    image: mysql:8
`))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	app, _ := cf.Service("app")
	if !reflect.DeepEqual([]string(app.DependsOn), []string{"db"}) {
		t.Errorf("Unexpected depends_on: %v", app.DependsOn)
	}
	if len(app.PublishedPorts()) != 0 {
		t.Errorf("A bare container port publishes nothing, got %v", app.PublishedPorts())
	}
	if app.Ports[0].Target != "80" {
		t.Errorf("Expected target '80', got '%s'", app.Ports[0].Target)
	}
}

func TestParse_BuildWithoutContext(t *testing.T) {
	cf, err := Parse(writeCompose(t, `services:
  app:
    build:
      dockerfile: docker/Dockerfile
`))
	if err != nil {
		t.Fatalf("A long build form without context is valid compose, got: %v", err)
	}

	app, _ := cf.Service("app")
	if app.Build.Context != "." {
		t.Errorf("Expected context to default to '.', got '%s'", app.Build.Context)
	}
	if app.Build.Dockerfile != "docker/Dockerfile" {
		t.Errorf("Expected dockerfile 'docker/Dockerfile', got '%s'", app.Build.Dockerfile)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name          string
		content       string
		errorContains string
	}{
		{
			name:          "malformed yaml",
			content:       "services:\n  app:\n    image: [unclosed\n",
			errorContains: "malformed YAML",
		},
		{
			name:          "no services",
			content:       "name: empty\n",
			errorContains: "field 'Services' is required but missing",
		},
		{
			name:          "service without image or build",
			content:       "services:\n  app:\n    container_name: x\n",
			errorContains: "field 'Services[app].Image' is required when no build context is set",
		},
		{
			name:          "bad port entry",
			content:       "services:\n  app:\n    image: x\n    ports:\n      - [1, 2]\n",
			errorContains: "unsupported port mapping",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(writeCompose(t, tt.content))
			if err == nil {
				t.Fatal("Expected error but got none")
			}
			if !strings.Contains(err.Error(), tt.errorContains) {
				t.Errorf("Expected error containing '%s', got: %s", tt.errorContains, err)
			}
		})
	}
}

func TestParse_FileNotFound(t *testing.T) {
	_, err := Parse("/nonexistent/docker-compose.yml")
	if err == nil || !strings.Contains(err.Error(), "compose file not found") {
		t.Errorf("Expected not found error, got: %v", err)
	}
}

func TestComposeFile_ServiceNotFound(t *testing.T) {
	cf := &ComposeFile{Services: map[string]Service{"web": {Image: "nginx"}}}
	_, err := cf.Service("app")
	if !errors.Is(err, ErrServiceNotFound) {
		t.Errorf("Expected ErrServiceNotFound, got: %v", err)
	}
}
