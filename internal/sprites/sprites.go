// Package sprites resolves the object keys of pre-rendered sprite art and
// adapts a raw object reader into a catalog.SpriteSource.
package sprites

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/JakeFAU/termdex/internal/catalog"
)

// Object keys of the placeholder art.
const (
	SentinelLargeKey = "notfound_large"
	SentinelSmallKey = "notfound_small"
)

// ErrInvalidName is returned for names that cannot be used as an object key.
var ErrInvalidName = errors.New("invalid sprite name")

// Reader fetches the raw bytes stored under key.
type Reader interface {
	Read(ctx context.Context, key string) ([]byte, error)
}

// LargeKey is the object key of a creature's large sprite.
func LargeKey(name string) string { return path.Join("large", name) }

// SmallKey is the object key of a creature's small sprite.
func SmallKey(name string) string { return path.Join("small", name) }

// Source loads sprite pairs through a Reader.
type Source struct {
	r Reader
}

// NewSource wraps r.
func NewSource(r Reader) *Source {
	return &Source{r: r}
}

// Sprites loads the large and small sprite of name.
func (s *Source) Sprites(ctx context.Context, name string) (catalog.Sprites, error) {
	if err := validateName(name); err != nil {
		return catalog.Sprites{}, err
	}
	return s.pair(ctx, LargeKey(name), SmallKey(name))
}

// Sentinel loads the placeholder sprites.
func (s *Source) Sentinel(ctx context.Context) (catalog.Sprites, error) {
	return s.pair(ctx, SentinelLargeKey, SentinelSmallKey)
}

func (s *Source) pair(ctx context.Context, largeKey, smallKey string) (catalog.Sprites, error) {
	large, err := s.r.Read(ctx, largeKey)
	if err != nil {
		return catalog.Sprites{}, fmt.Errorf("%w: read %s: %w", catalog.ErrSprite, largeKey, err)
	}
	small, err := s.r.Read(ctx, smallKey)
	if err != nil {
		return catalog.Sprites{}, fmt.Errorf("%w: read %s: %w", catalog.ErrSprite, smallKey, err)
	}
	return catalog.Sprites{Large: string(large), Small: string(small)}, nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%w: %w %q", catalog.ErrSprite, ErrInvalidName, name)
	}
	return nil
}
