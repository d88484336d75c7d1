package app

import (
	"context"
	"fmt"

	"freshstart/internal/provisioner"
	internalruntime "freshstart/internal/runtime"
	"freshstart/internal/scm"
	"freshstart/pkg/project"
	"freshstart/pkg/runtime"
)

// ProviderFactory builds the collaborators stages talk to: the host command
// runner, the container runtime, SCM providers and provisioners.
type ProviderFactory struct {
	runner    runtime.CommandRunner
	connect   func(ctx context.Context) (runtime.ContainerRuntime, error)
	scmByName map[string]scm.ScmProvider
}

// NewProviderFactory creates a factory backed by os/exec and the Docker SDK.
func NewProviderFactory() *ProviderFactory {
	return NewProviderFactoryWith(internalruntime.NewExecRunner(), connectDocker)
}

// NewProviderFactoryWith creates a factory over the given runner and runtime
// constructor.
func NewProviderFactoryWith(runner runtime.CommandRunner, connect func(ctx context.Context) (runtime.ContainerRuntime, error)) *ProviderFactory {
	return &ProviderFactory{
		runner:    runner,
		connect:   connect,
		scmByName: map[string]scm.ScmProvider{},
	}
}

func connectDocker(ctx context.Context) (runtime.ContainerRuntime, error) {
	rt, err := internalruntime.NewDockerRuntime(ctx)
	if err != nil {
		return nil, err
	}
	return rt, nil
}

// RegisterScmProvider makes GetScmProvider return p for its name.
func (f *ProviderFactory) RegisterScmProvider(p scm.ScmProvider) {
	f.scmByName[p.Name()] = p
}

// CommandRunner returns the runner used for host commands.
func (f *ProviderFactory) CommandRunner() runtime.CommandRunner {
	return f.runner
}

// GetContainerRuntime connects to the container runtime and checks it answers.
func (f *ProviderFactory) GetContainerRuntime(ctx context.Context) (runtime.ContainerRuntime, error) {
	if f.connect == nil {
		return nil, fmt.Errorf("no container runtime configured")
	}
	return f.connect(ctx)
}

// GetScmProvider returns the SCM provider for providerName. gitlabURL is the
// API base for self-hosted GitLab and may be empty.
func (f *ProviderFactory) GetScmProvider(providerName, gitlabURL string) (scm.ScmProvider, error) {
	if p, ok := f.scmByName[providerName]; ok {
		return p, nil
	}

	switch providerName {
	case project.ProviderGitHub:
		return scm.NewGitHubProvider(f.runner), nil
	case project.ProviderGitLab:
		provider, err := scm.NewGitLabProvider(gitlabURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create GitLab provider: %w", err)
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("unsupported SCM provider: %s", providerName)
	}
}

// GetProvisioner returns the provisioner that installs dependencies inside a
// container on rt.
func (f *ProviderFactory) GetProvisioner(rt runtime.ContainerRuntime, image, artifact string) (provisioner.Provisioner, error) {
	if rt == nil {
		return nil, fmt.Errorf("container runtime is not available")
	}
	return provisioner.NewComposerDockerProvisioner(rt, image, artifact), nil
}
