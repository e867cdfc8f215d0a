package photo

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound signals the requested object does not exist.
	ErrNotFound = errors.New("photo: not found")
	// ErrUnsupportedType rejects content types other than JPEG and PNG.
	ErrUnsupportedType = errors.New("photo: unsupported content type")
	// ErrInvalidName rejects object names that escape the photo namespace.
	ErrInvalidName = errors.New("photo: invalid object name")
)

// Object is a stored image.
type Object struct {
	Name        string
	ContentType string
	Data        []byte
	CreatedAt   time.Time
}

// Store persists objects by name. Deleting a missing object is not an error.
type Store interface {
	Put(ctx context.Context, obj Object) error
	Get(ctx context.Context, name string) (Object, error)
	Delete(ctx context.Context, name string) error
}
