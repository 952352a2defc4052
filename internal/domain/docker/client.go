// Package docker implements a domain.Domain backed by exec sessions inside
// a running Docker container, for agents that execute inside an isolated
// container rather than directly on the host.
package docker

import (
	"context"
	"fmt"

	"github.com/docker/docker/client"

	"github.com/kandev/orchestrator/internal/common/logger"
	"github.com/kandev/orchestrator/internal/orchestype"
)

// Config holds the connection parameters for the Docker daemon and the
// target container new panes are exec'd into.
type Config struct {
	Host        string
	APIVersion  string
	ContainerID string
}

// Domain spawns panes as `docker exec` sessions inside a single
// pre-existing container. It does not create, start, or remove containers:
// container lifecycle is assumed to be managed out of band, and this
// domain only owns the exec sessions (panes) within it.
type Domain struct {
	id          orchestype.DomainID
	cli         *client.Client
	containerID string
	logger      *logger.Logger

	panes *paneSet
}

// New creates a Docker-backed domain targeting an existing container.
func New(id orchestype.DomainID, cfg Config, log *logger.Logger) (*Domain, error) {
	if log == nil {
		log = logger.Default()
	}
	if cfg.ContainerID == "" {
		return nil, fmt.Errorf("docker domain: container_id is required")
	}

	opts := []client.Opt{client.WithAPIVersionNegotiation()}
	if cfg.Host != "" {
		opts = append(opts, client.WithHost(cfg.Host))
	}
	if cfg.APIVersion != "" {
		opts = append(opts, client.WithVersion(cfg.APIVersion))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}

	return &Domain{
		id:          id,
		cli:         cli,
		containerID: cfg.ContainerID,
		logger:      log,
		panes:       newPaneSet(),
	}, nil
}

func (d *Domain) DomainID() orchestype.DomainID { return d.id }

// Ping verifies the Docker daemon is reachable.
func (d *Domain) Ping(ctx context.Context) error {
	if _, err := d.cli.Ping(ctx); err != nil {
		return fmt.Errorf("docker ping: %w", err)
	}
	return nil
}

// Close releases the underlying Docker client connection.
func (d *Domain) Close() error {
	return d.cli.Close()
}

// containerRunning reports whether the target container is currently
// running, consulted before spawning a new exec session into it.
func (d *Domain) containerRunning(ctx context.Context) (bool, error) {
	inspect, err := d.cli.ContainerInspect(ctx, d.containerID)
	if err != nil {
		return false, fmt.Errorf("inspect container %s: %w", d.containerID, err)
	}
	return inspect.State != nil && inspect.State.Running, nil
}
