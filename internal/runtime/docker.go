package runtime

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/stackarr/stackarr/internal/utils/logger"
	"go.uber.org/zap"
)

// DockerDriver implements Driver using the Docker API client for inspection
// and network management, and the docker compose CLI for stack lifecycle.
type DockerDriver struct {
	api *client.Client

	// selfContainer is the name of the container this process runs in, used
	// to resolve host paths from its mount table.
	selfContainer string
}

// NewDockerDriver creates a driver and verifies connectivity to the daemon.
func NewDockerDriver() (*DockerDriver, error) {
	if _, err := exec.LookPath("docker"); err != nil {
		return nil, fmt.Errorf("docker command not found: %w", err)
	}

	api, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker API client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := api.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to Docker daemon (check DOCKER_HOST and socket permissions): %w", err)
	}

	self := os.Getenv("HOSTNAME")
	if self == "" {
		self, _ = os.Hostname()
	}

	return &DockerDriver{api: api, selfContainer: self}, nil
}

// ApplyStack brings a stack directory up
func (d *DockerDriver) ApplyStack(ctx context.Context, dir string) error {
	return d.composeCommand(ctx, dir, "up", "-d")
}

// TeardownStack brings the stack down and removes its containers
func (d *DockerDriver) TeardownStack(ctx context.Context, dir string) error {
	return d.composeCommand(ctx, dir, "down")
}

// StartStack starts the stopped containers of a stack
func (d *DockerDriver) StartStack(ctx context.Context, dir string) error {
	return d.composeCommand(ctx, dir, "start")
}

// StopStack stops the stack's containers without removing them
func (d *DockerDriver) StopStack(ctx context.Context, dir string) error {
	return d.composeCommand(ctx, dir, "stop")
}

func (d *DockerDriver) composeCommand(ctx context.Context, dir string, args ...string) error {
	full := append([]string{"compose", "--project-directory", dir}, args...)
	logger.Debug("Running docker compose",
		zap.String("dir", dir), zap.Strings("args", args))

	cmd := exec.CommandContext(ctx, "docker", full...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("docker compose %s failed: %w: %s",
			strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}
	return nil
}

// NetworkExists reports whether the named network exists
func (d *DockerDriver) NetworkExists(ctx context.Context, name string) (bool, error) {
	_, err := d.api.NetworkInspect(ctx, name, network.InspectOptions{})
	if err == nil {
		return true, nil
	}
	if client.IsErrNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to inspect network %s: %w", name, err)
}

// EnsureNetwork creates the named network when it does not exist. A creation
// race with another caller is tolerated by treating "already exists" as
// success.
func (d *DockerDriver) EnsureNetwork(ctx context.Context, name string) error {
	exists, err := d.NetworkExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		logger.Debug("Network already exists, reusing", zap.String("network", name))
		return nil
	}

	_, err = d.api.NetworkCreate(ctx, name, network.CreateOptions{Driver: "bridge"})
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return nil
		}
		return fmt.Errorf("failed to create network %s: %w", name, err)
	}
	logger.Info("Created network", zap.String("network", name))
	return nil
}

// ResolveHostPath maps a path inside this container to the host path backing
// it by walking the container's mount table. When no mount covers the path,
// or inspection fails (typically because the process is not containerized),
// the path is returned unchanged.
func (d *DockerDriver) ResolveHostPath(ctx context.Context, containerPath string) (string, error) {
	info, err := d.api.ContainerInspect(ctx, d.selfContainer)
	if err != nil {
		logger.Debug("Could not inspect own container, using path as-is",
			zap.String("path", containerPath), zap.Error(err))
		return containerPath, nil
	}

	for _, mount := range info.Mounts {
		if mount.Destination == containerPath {
			return mount.Source, nil
		}
		prefix := mount.Destination + "/"
		if strings.HasPrefix(containerPath, prefix) {
			relative := strings.TrimPrefix(containerPath, prefix)
			return filepath.Join(mount.Source, relative), nil
		}
	}

	logger.Warn("No mount found for path, using as-is", zap.String("path", containerPath))
	return containerPath, nil
}

// ContainerAddress returns a container's address on the given network
func (d *DockerDriver) ContainerAddress(ctx context.Context, containerName, networkName string) (string, error) {
	info, err := d.api.ContainerInspect(ctx, containerName)
	if err != nil {
		return "", fmt.Errorf("failed to inspect container %s: %w", containerName, err)
	}
	if info.NetworkSettings == nil {
		return "", fmt.Errorf("container %s has no network settings", containerName)
	}
	if net, ok := info.NetworkSettings.Networks[networkName]; ok && net.IPAddress != "" {
		return net.IPAddress, nil
	}
	// Fall back to whichever network the container is attached to.
	for _, net := range info.NetworkSettings.Networks {
		if net.IPAddress != "" {
			return net.IPAddress, nil
		}
	}
	return "", fmt.Errorf("container %s has no network address", containerName)
}
