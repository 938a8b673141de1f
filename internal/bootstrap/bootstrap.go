// Package bootstrap contains the once-per-start decision the entrypoint
// makes: repair data ownership and hand off as the service account, or hand
// off directly when already unprivileged. Both arms end in a process
// replacement; the bootstrapper does not survive a successful run.
package bootstrap

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/searchkit/esboot/internal/account"
	"github.com/searchkit/esboot/internal/config"
)

// Branch is the decision taken once per container start.
type Branch int

const (
	// BranchRepair fixes data ownership, drops to the service account, and
	// hands off.
	BranchRepair Branch = iota
	// BranchDirect hands off under the current identity, no repair.
	BranchDirect
)

// SelectBranch decides from the effective uid alone. No other signal
// participates.
func SelectBranch(uid int) Branch {
	if uid == 0 {
		return BranchRepair
	}
	return BranchDirect
}

// AccountResolver yields the numeric identity for the service account.
type AccountResolver interface {
	Resolve(userName, groupName string) (account.Account, error)
}

// Repairer recursively resets ownership of a data tree.
type Repairer interface {
	Repair(root string, uid, gid int) error
}

// ExecFunc replaces the current process image. On success it does not
// return; the delegate inherits the pid, standard streams and signal
// disposition.
type ExecFunc func(argv0 string, argv []string, envv []string) error

// Bootstrapper prepares the data volume and transfers control to the
// delegate.
type Bootstrapper struct {
	cfg      *config.Config
	resolver AccountResolver
	repairer Repairer
	logger   *zap.Logger

	exec     ExecFunc
	setcreds func(uid, gid int) error
}

// New creates a bootstrapper with real exec and credential-switch behavior.
func New(cfg *config.Config, resolver AccountResolver, repairer Repairer, logger *zap.Logger) *Bootstrapper {
	return &Bootstrapper{
		cfg:      cfg,
		resolver: resolver,
		repairer: repairer,
		logger:   logger,
		exec:     execDelegate,
		setcreds: setCredentials,
	}
}

// Run performs the single decision and the terminal handoff. It returns only
// on failure; the caller exits nonzero. It must be the last thing the
// process does.
func (b *Bootstrapper) Run(uid int) error {
	argv := append([]string{b.cfg.Delegate.Path}, b.cfg.Delegate.Args...)

	switch SelectBranch(uid) {
	case BranchRepair:
		acct, err := b.resolver.Resolve(b.cfg.Identity.User, b.cfg.Identity.Group)
		if err != nil {
			return fmt.Errorf("resolve service account: %w", err)
		}

		if err := b.repairer.Repair(b.cfg.Data.Path, acct.UID, acct.GID); err != nil {
			return err
		}

		b.logger.Info("handing off",
			zap.String("delegate", b.cfg.Delegate.Path),
			zap.Strings("args", b.cfg.Delegate.Args),
			zap.String("as", acct.Name))

		if err := b.setcreds(acct.UID, acct.GID); err != nil {
			return fmt.Errorf("drop privileges: %w", err)
		}

	case BranchDirect:
		b.logger.Info("already unprivileged, handing off",
			zap.String("delegate", b.cfg.Delegate.Path),
			zap.Strings("args", b.cfg.Delegate.Args),
			zap.Int("uid", uid))
	}

	// Flush logs now; nothing runs after a successful exec.
	_ = b.logger.Sync()

	if err := b.exec(b.cfg.Delegate.Path, argv, os.Environ()); err != nil {
		return fmt.Errorf("exec %s: %w", b.cfg.Delegate.Path, err)
	}
	return nil
}
