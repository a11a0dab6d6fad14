// Package delivery defines the contract shared by every inbound adapter the process runs.
package delivery

import "context"

// Delivery is a long-running adapter started by the application entrypoint.
type Delivery interface {
	// Serve blocks until the delivery stops or fails.
	Serve(ctx context.Context) error
}
