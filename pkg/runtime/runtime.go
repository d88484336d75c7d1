package runtime

import (
	"context"
	"io"
)

// RunOptions defines the parameters for running a container.
type RunOptions struct {
	Image            string
	Command          []string
	VolumeMounts     map[string]string
	EnvVars          map[string]string
	WorkingDirectory string
}

// PruneReport summarises what a prune removed.
type PruneReport struct {
	ContainersDeleted int
	ImagesDeleted     int
	NetworksDeleted   int
	VolumesDeleted    int
	SpaceReclaimed    uint64
}

// ContainerRuntime defines the contract for container operations.
type ContainerRuntime interface {
	Ping(ctx context.Context) error
	PullImage(ctx context.Context, image string) error
	RunContainer(ctx context.Context, opts RunOptions) (io.ReadCloser, error)
	Prune(ctx context.Context) (PruneReport, error)
}

// CommandRunner runs external programs. Run streams output to the user;
// Output captures it.
type CommandRunner interface {
	Run(ctx context.Context, dir string, name string, args ...string) error
	Output(ctx context.Context, dir string, name string, args ...string) (string, error)
}
