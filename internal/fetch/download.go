package fetch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"radiograb/internal/logging"
	"radiograb/internal/services"
)

// Download streams url into dest and returns the number of bytes written.
// The body goes to a pending file in dest's directory which replaces dest
// only after a complete transfer; failed attempts leave no partial file.
func (c *Client) Download(ctx context.Context, url, dest string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, services.Wrap(services.ErrTransport, "download", "prepare", dest, err)
	}

	var written int64
	err := c.withRetry(ctx, url, func() error {
		n, err := c.downloadOnce(ctx, url, dest)
		written = n
		return err
	})
	if err != nil {
		return 0, services.Wrap(services.ErrTransport, "download", "stream", url, err)
	}
	c.logger.Debug("download complete",
		logging.String("url", url),
		logging.String("path", dest),
		logging.Int64("bytes", written),
	)
	return written, nil
}

func (c *Client) downloadOnce(ctx context.Context, url, dest string) (int64, error) {
	resp, err := c.get(ctx, url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	pending, err := renameio.NewPendingFile(dest, renameio.WithPermissions(0o644))
	if err != nil {
		return 0, fmt.Errorf("create pending file: %w", err)
	}
	defer func() { _ = pending.Cleanup() }()

	n, err := io.Copy(pending, resp.Body)
	if err != nil {
		return n, fmt.Errorf("copy body: %w", err)
	}
	if resp.ContentLength > 0 && n != resp.ContentLength {
		return n, fmt.Errorf("short body: got %d of %d bytes", n, resp.ContentLength)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return n, fmt.Errorf("replace %s: %w", dest, err)
	}
	return n, nil
}
