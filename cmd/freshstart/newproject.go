package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"freshstart/internal/app"
	"freshstart/pkg/project"
)

func newProjectCommand(deps commandDeps) *cobra.Command {
	req := &project.Request{}

	cmd := &cobra.Command{
		Use:   "new-project",
		Short: "Create a new project from this starter and publish it",
		Long: `new-project copies this starter into ../<name> (skipping node_modules, .git,
vendor, var, supervisord.pid and .env.local), renames package.json and
composer.json, commits everything and publishes the repository to GitHub
(through the gh CLI) or GitLab (through the API, token in GITLAB_PRIVATE_TOKEN).

Missing --name and --owner values are asked for interactively.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := deps.withDefaults()
			if err != nil {
				return err
			}
			cfgFile, _ := cmd.Flags().GetString("config")
			logLevel, _ := cmd.Flags().GetString("log-level")
			if _, err := loadConfig(cmd, d, cfgFile, logLevel); err != nil {
				return err
			}

			if err := completeRequest(req, d, cmd.OutOrStdout()); err != nil {
				return err
			}

			if _, err := app.ForkProject(cmd.Context(), req, d.factory, d.console); err != nil {
				return reportedError{err}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "new project name (letters, numbers, hyphens, underscores)")
	cmd.Flags().StringVar(&req.Owner, "owner", "", "user or group that will own the repository")
	cmd.Flags().StringVar(&req.Provider, "provider", project.ProviderGitHub, "where to publish: github or gitlab")
	cmd.Flags().StringVar(&req.Visibility, "visibility", "public", "repository visibility: public, private or internal")
	cmd.Flags().StringVar(&req.Source, "source", "", "starter directory to copy (default: working directory)")
	cmd.Flags().StringVar(&req.GitLabURL, "gitlab-url", "", "GitLab API base URL for self-hosted instances")
	cmd.Flags().BoolVar(&req.DryRun, "dry-run", false, "print what would be done without writing anything")
	return cmd
}

// completeRequest prompts for missing values and derives the paths.
func completeRequest(req *project.Request, d commandDeps, out io.Writer) error {
	reader := bufio.NewReader(d.in)

	if req.Name == "" || !project.ValidName(req.Name) {
		if req.Name != "" {
			fmt.Fprintln(out, "❌ Only letters, numbers, hyphens, and underscores allowed.")
		}
		name, err := promptUntil(reader, out, "📝 Enter new project name: ", func(s string) string {
			if !project.ValidName(s) {
				return "❌ Only letters, numbers, hyphens, and underscores allowed."
			}
			return ""
		})
		if err != nil {
			return err
		}
		req.Name = name
	}

	if req.Owner == "" {
		owner, err := promptUntil(reader, out, ownerPrompt(req.Provider), func(string) string { return "" })
		if err != nil {
			return err
		}
		req.Owner = owner
	}

	if req.Source == "" {
		req.Source = d.workDir
	}
	source, err := filepath.Abs(req.Source)
	if err != nil {
		return fmt.Errorf("failed to resolve source directory: %w", err)
	}
	req.Source = source
	req.Destination = filepath.Join(filepath.Dir(source), req.Name)
	return nil
}

func ownerPrompt(provider string) string {
	if provider == project.ProviderGitLab {
		return "🦊 Enter your GitLab username or group: "
	}
	return "🐙 Enter your GitHub username: "
}

// promptUntil asks question until the trimmed answer is non-empty and check
// returns no complaint.
func promptUntil(r *bufio.Reader, out io.Writer, question string, check func(string) string) (string, error) {
	for {
		fmt.Fprint(out, question)
		line, err := r.ReadString('\n')
		answer := strings.TrimSpace(line)

		if answer != "" {
			complaint := check(answer)
			if complaint == "" {
				return answer, nil
			}
			fmt.Fprintln(out, complaint)
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", fmt.Errorf("no answer for %q", strings.TrimSpace(question))
			}
			return "", fmt.Errorf("failed to read answer: %w", err)
		}
	}
}
