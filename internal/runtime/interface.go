package runtime

import "context"

// Driver applies generated stacks to the container runtime and exposes the
// network operations the generation pipeline's custom-networks transform
// consumes. The core never talks to the runtime directly; everything passes
// through this boundary.
type Driver interface {
	// ApplyStack brings a stack directory up (compose file + env file must
	// already be written there).
	ApplyStack(ctx context.Context, dir string) error

	// TeardownStack brings the stack down and removes its containers.
	TeardownStack(ctx context.Context, dir string) error

	// StartStack starts the stopped containers of a stack.
	StartStack(ctx context.Context, dir string) error

	// StopStack stops the stack's containers without removing them.
	StopStack(ctx context.Context, dir string) error

	// EnsureNetwork creates the named network when it does not exist.
	// "Already exists" is success; check-then-create is idempotent but not
	// atomic, so a concurrent creation racing this one must be tolerated.
	EnsureNetwork(ctx context.Context, name string) error

	// NetworkExists reports whether the named network exists.
	NetworkExists(ctx context.Context, name string) (bool, error)

	// ResolveHostPath maps a path inside this container to the host path
	// backing it. Outside a container the path is returned unchanged.
	ResolveHostPath(ctx context.Context, containerPath string) (string, error)

	// ContainerAddress returns a container's address on the given network.
	ContainerAddress(ctx context.Context, containerName, networkName string) (string, error)
}
