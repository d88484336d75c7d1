package app

import (
	"context"
	"fmt"
	"math"
	"strings"

	"freshstart/internal/ui"
)

// SummaryStage prints how long the run took and how to work with the result.
type SummaryStage struct{}

func NewSummaryStage() *SummaryStage {
	return &SummaryStage{}
}

func (s *SummaryStage) Name() string {
	return StageSummary
}

func (s *SummaryStage) Fatal() bool {
	return false
}

func (s *SummaryStage) Execute(_ context.Context, run *RunContext) error {
	run.Println(summaryText(run))
	run.Logf(ui.IconRocket, "Happy coding!")
	return nil
}

func summaryText(run *RunContext) string {
	seconds := int(math.Round(run.Elapsed().Seconds()))
	compose := composeCommand(run)
	service := run.Config.Compose.Service

	var b strings.Builder
	b.WriteString("\n🎉 SUCCESS! Your Symfony Docker application is ready!\n\n")
	fmt.Fprintf(&b, "🌐 Application URL: %s\n", run.Config.App.URL)
	fmt.Fprintf(&b, "⏱️  Setup completed in %d seconds\n", seconds)

	if warned := resultsWith(run, StatusWarned); len(warned) > 0 {
		fmt.Fprintf(&b, "⚠️  Completed with warnings in: %s\n", strings.Join(warned, ", "))
	}

	if run.ComposeFile != nil {
		b.WriteString("\n🐳 Services:\n")
		for _, name := range run.ComposeFile.ServiceNames() {
			svc := run.ComposeFile.Services[name]
			ports := svc.PublishedPorts()
			if len(ports) == 0 {
				fmt.Fprintf(&b, "  %s\n", name)
				continue
			}
			published := make([]string, 0, len(ports))
			for _, p := range ports {
				published = append(published, fmt.Sprintf("%d", p))
			}
			fmt.Fprintf(&b, "  %-16s ports %s\n", name, strings.Join(published, ", "))
		}
	}

	b.WriteString("\n📋 Useful commands:\n")
	b.WriteString("  npm run logs      - View application logs\n")
	b.WriteString("  npm run shell     - Access container terminal\n")
	b.WriteString("  npm run status    - Check container status\n")
	b.WriteString("  npm run stop      - Stop containers\n")
	b.WriteString("  npm run restart   - Restart containers\n")
	b.WriteString("  npm run clean     - Clean restart with fresh containers\n")

	b.WriteString("\n🔧 Direct Docker commands:\n")
	fmt.Fprintf(&b, "  %s logs -f %s          - Follow logs\n", compose, service)
	fmt.Fprintf(&b, "  %s exec %s bash        - Container shell\n", compose, service)
	fmt.Fprintf(&b, "  %s exec %s composer    - Run Composer\n", compose, service)
	fmt.Fprintf(&b, "  %s exec %s bin/console - Symfony console\n", compose, service)
	return b.String()
}

func resultsWith(run *RunContext, status StageStatus) []string {
	var names []string
	for _, res := range run.Results {
		if res.Status == status {
			names = append(names, res.Name)
		}
	}
	return names
}
