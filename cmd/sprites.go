package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	localsprites "github.com/JakeFAU/termdex/internal/sprites/local"
)

func newSpritesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sprites",
		Short: "Manage sprite art",
	}
	cmd.AddCommand(newSpritesPushCmd())
	return cmd
}

func newSpritesPushCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Upload a local sprite directory to the configured bucket",
		Long: `Copies large/, small/ and the notfound_* files from a local directory
into the GCS bucket named by sprites.bucket, keeping the same keys.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := resolveEnv(cmd.Context())
			if err != nil {
				return err
			}
			if e.cfg.Sprites.Bucket == "" {
				return errors.New("sprites.bucket is required to push")
			}
			if dir == "" {
				dir = e.cfg.Sprites.Dir
			}
			src, err := localsprites.New(localsprites.Config{BaseDir: dir})
			if err != nil {
				return fmt.Errorf("open sprite directory: %w", err)
			}

			var cl closers
			defer cl.closeAll()
			dst, err := newGCSSprites(cmd.Context(), e.cfg.Sprites, &cl)
			if err != nil {
				return err
			}
			n, err := pushSprites(cmd.Context(), src, dst, e.logger)
			if err != nil {
				return err
			}
			e.logger.Info("sprites pushed", zap.Int("objects", n), zap.String("bucket", e.cfg.Sprites.Bucket))
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "local sprite directory (defaults to sprites.dir)")
	return cmd
}

type spriteWalker interface {
	Walk(fn func(key string) error) error
	Read(ctx context.Context, key string) ([]byte, error)
}

type spritePutter interface {
	Put(ctx context.Context, key string, r io.Reader) (string, error)
}

func pushSprites(ctx context.Context, src spriteWalker, dst spritePutter, logger *zap.Logger) (int, error) {
	count := 0
	err := src.Walk(func(key string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := src.Read(ctx, key)
		if err != nil {
			return fmt.Errorf("read %s: %w", key, err)
		}
		uri, err := dst.Put(ctx, key, bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("upload %s: %w", key, err)
		}
		logger.Debug("sprite uploaded", zap.String("key", key), zap.String("uri", uri))
		count++
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("push sprites: %w", err)
	}
	return count, nil
}
