package ownership

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// Repairer resets ownership of a persisted data tree so the service account
// can use a volume that was created or last written by someone else.
type Repairer struct {
	logger *zap.Logger
	chown  func(path string, uid, gid int) error
}

// NewRepairer creates a repairer that changes real file ownership.
func NewRepairer(logger *zap.Logger) *Repairer {
	return &Repairer{
		logger: logger,
		chown:  unix.Lchown,
	}
}

// Repair sets every entry under root, root included, to uid:gid. The first
// failure aborts the walk and propagates; the caller must not hand off after
// an error. Re-running converges to the same ownership state, so a redundant
// repair is harmless.
//
// Lchown, not Chown: symlinks inside the data tree must not redirect the
// repair outside of it.
func (r *Repairer) Repair(root string, uid, gid int) error {
	start := time.Now()
	entries := 0

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk %s: %w", path, err)
		}
		if err := r.chown(path, uid, gid); err != nil {
			return fmt.Errorf("chown %s: %w", path, err)
		}
		entries++
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("repair ownership of %s: %w", root, walkErr)
	}

	r.logger.Info("ownership repaired",
		zap.String("path", root),
		zap.Int("uid", uid),
		zap.Int("gid", gid),
		zap.Int("entries", entries),
		zap.Duration("took", time.Since(start)))

	return nil
}
