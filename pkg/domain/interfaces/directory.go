package interfaces

import (
	"context"

	"github.com/secmon-lab/ad2image/pkg/domain/model"
)

// Directory provides read access to the user directory
type Directory interface {
	// FindUsers looks up users matching the configured user search filter with
	// uid substituted (escaped) into it. Zero or several results are not an error.
	FindUsers(ctx context.Context, uid string) ([]*model.User, error)

	// ScanUsers runs a paged search with the given filter and calls fn once per
	// page until the directory reports no further pages. Photos are not loaded.
	ScanUsers(ctx context.Context, filter string, pageSize int, fn func(page []*model.User) error) error
}
