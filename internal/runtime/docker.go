package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"

	"freshstart/pkg/runtime"
)

// DockerRuntime implements the ContainerRuntime interface using Docker client.
type DockerRuntime struct {
	client *client.Client
}

// NewDockerRuntime creates a DockerRuntime from the environment and checks
// that the daemon answers.
func NewDockerRuntime(ctx context.Context) (*DockerRuntime, error) {
	dockerClient, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	d := &DockerRuntime{client: dockerClient}
	if err := d.Ping(ctx); err != nil {
		_ = dockerClient.Close()
		return nil, err
	}
	return d, nil
}

// Ping checks that the Docker daemon is reachable.
func (d *DockerRuntime) Ping(ctx context.Context) error {
	if _, err := d.client.Ping(ctx); err != nil {
		return fmt.Errorf("failed to connect to Docker daemon: %w", err)
	}
	return nil
}

// Close releases the client connection.
func (d *DockerRuntime) Close() error {
	return d.client.Close()
}

// Prune removes stopped containers, dangling images, unused networks and
// unused volumes. Every kind is attempted; failures are joined.
func (d *DockerRuntime) Prune(ctx context.Context) (runtime.PruneReport, error) {
	var report runtime.PruneReport
	var errs []error

	containers, err := d.client.ContainersPrune(ctx, filters.NewArgs())
	if err != nil {
		errs = append(errs, fmt.Errorf("prune containers: %w", err))
	} else {
		report.ContainersDeleted = len(containers.ContainersDeleted)
		report.SpaceReclaimed += containers.SpaceReclaimed
	}

	images, err := d.client.ImagesPrune(ctx, filters.NewArgs(filters.Arg("dangling", "true")))
	if err != nil {
		errs = append(errs, fmt.Errorf("prune images: %w", err))
	} else {
		report.ImagesDeleted = len(images.ImagesDeleted)
		report.SpaceReclaimed += images.SpaceReclaimed
	}

	networks, err := d.client.NetworksPrune(ctx, filters.NewArgs())
	if err != nil {
		errs = append(errs, fmt.Errorf("prune networks: %w", err))
	} else {
		report.NetworksDeleted = len(networks.NetworksDeleted)
	}

	volumes, err := d.client.VolumesPrune(ctx, filters.NewArgs())
	if err != nil {
		errs = append(errs, fmt.Errorf("prune volumes: %w", err))
	} else {
		report.VolumesDeleted = len(volumes.VolumesDeleted)
		report.SpaceReclaimed += volumes.SpaceReclaimed
	}

	slog.Info("Docker prune finished",
		"containers", report.ContainersDeleted,
		"images", report.ImagesDeleted,
		"networks", report.NetworksDeleted,
		"volumes", report.VolumesDeleted,
		"spaceReclaimed", report.SpaceReclaimed)

	return report, errors.Join(errs...)
}

// PullImage pulls a Docker image.
func (d *DockerRuntime) PullImage(ctx context.Context, imageName string) error {
	slog.Info("Pulling Docker image", "image", imageName)

	reader, err := d.client.ImagePull(ctx, imageName, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image %s: %w", imageName, err)
	}
	defer reader.Close()

	if _, err := io.Copy(io.Discard, reader); err != nil {
		return fmt.Errorf("failed to stream image pull output: %w", err)
	}

	slog.Info("Successfully pulled Docker image", "image", imageName)
	return nil
}

// RunContainer starts a one-shot container and returns its log stream. Closing
// the stream waits for the container, removes it, and reports a non-zero exit.
func (d *DockerRuntime) RunContainer(ctx context.Context, opts runtime.RunOptions) (io.ReadCloser, error) {
	slog.Info("Running container", "image", opts.Image, "command", opts.Command)

	var mounts []mount.Mount
	for hostPath, containerPath := range opts.VolumeMounts {
		mounts = append(mounts, mount.Mount{
			Type:   mount.TypeBind,
			Source: hostPath,
			Target: containerPath,
		})
	}

	var envVars []string
	for key, value := range opts.EnvVars {
		envVars = append(envVars, fmt.Sprintf("%s=%s", key, value))
	}

	containerConfig := &container.Config{
		Image:      opts.Image,
		Cmd:        opts.Command,
		Env:        envVars,
		WorkingDir: opts.WorkingDirectory,
	}

	resp, err := d.client.ContainerCreate(ctx, containerConfig, &container.HostConfig{Mounts: mounts}, nil, nil, "")
	if err != nil {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}

	if err := d.client.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		if removeErr := d.client.ContainerRemove(ctx, resp.ID, container.RemoveOptions{Force: true}); removeErr != nil {
			slog.Error("Failed to remove container after start failure", "containerID", resp.ID, "error", removeErr)
		}
		return nil, fmt.Errorf("failed to start container: %w", err)
	}

	return &containerReader{
		client:      d.client,
		containerID: resp.ID,
		ctx:         ctx,
	}, nil
}

// containerReader streams container logs and removes the container on Close.
type containerReader struct {
	client      *client.Client
	containerID string
	ctx         context.Context
	reader      io.ReadCloser
	closed      bool
}

func (cr *containerReader) Read(p []byte) (int, error) {
	if cr.reader == nil {
		logs, err := cr.client.ContainerLogs(cr.ctx, cr.containerID, container.LogsOptions{
			ShowStdout: true,
			ShowStderr: true,
			Follow:     true,
		})
		if err != nil {
			return 0, fmt.Errorf("failed to get container logs: %w", err)
		}
		cr.reader = logs
	}

	return cr.reader.Read(p)
}

func (cr *containerReader) Close() error {
	if cr.closed {
		return nil
	}
	cr.closed = true

	if cr.reader != nil {
		cr.reader.Close()
	}

	var exitErr error
	statusCh, errCh := cr.client.ContainerWait(cr.ctx, cr.containerID, container.WaitConditionNotRunning)
	select {
	case status := <-statusCh:
		if status.StatusCode != 0 {
			exitErr = fmt.Errorf("container exited with status %d", status.StatusCode)
		}
	case err := <-errCh:
		exitErr = fmt.Errorf("failed to wait for container: %w", err)
	}

	if err := cr.client.ContainerRemove(context.Background(), cr.containerID, container.RemoveOptions{Force: true}); err != nil {
		slog.Error("Failed to remove container", "containerID", cr.containerID, "error", err)
		if exitErr == nil {
			exitErr = err
		}
	}

	return exitErr
}
