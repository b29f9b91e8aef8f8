package artifact

import (
	"context"
	"fmt"
	"path"
	"strings"
)

// Store persists named artifacts.
type Store interface {
	Save(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error
}

// CleanName normalizes an artifact name and rejects names that are empty or
// would escape the store root.
func CleanName(name string) (string, error) {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidName)
	}

	cleaned := path.Clean("/" + name)[1:]
	if cleaned == "" || strings.Contains("/"+name+"/", "/../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	return cleaned, nil
}
