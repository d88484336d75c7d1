package provisioner

import "context"

// Provisioner installs a project's dependencies somewhere other than the host.
type Provisioner interface {
	// Provision installs the dependencies of the project rooted at projectDir.
	Provision(ctx context.Context, projectDir string) error
}
