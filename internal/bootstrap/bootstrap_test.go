package bootstrap

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/searchkit/esboot/internal/account"
	"github.com/searchkit/esboot/internal/config"
)

type fakeResolver struct {
	acct  account.Account
	err   error
	calls int
}

func (f *fakeResolver) Resolve(userName, groupName string) (account.Account, error) {
	f.calls++
	return f.acct, f.err
}

type fakeRepairer struct {
	err   error
	calls []string
}

func (f *fakeRepairer) Repair(root string, uid, gid int) error {
	f.calls = append(f.calls, fmt.Sprintf("repair %s %d:%d", root, uid, gid))
	return f.err
}

type harness struct {
	b        *Bootstrapper
	resolver *fakeResolver
	repairer *fakeRepairer

	events   []string
	execArgv []string
	execErr  error
	credsErr error
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfg := config.Default()
	cfg.Data.Path = "/data"

	h := &harness{
		resolver: &fakeResolver{acct: account.Account{Name: "elasticsearch", UID: 1000, GID: 1000}},
		repairer: &fakeRepairer{},
	}
	h.b = New(cfg, h.resolver, h.repairer, zap.NewNop())
	h.b.exec = func(argv0 string, argv []string, envv []string) error {
		h.events = append(h.events, "exec "+argv0)
		h.execArgv = argv
		return h.execErr
	}
	h.b.setcreds = func(uid, gid int) error {
		h.events = append(h.events, fmt.Sprintf("setcreds %d:%d", uid, gid))
		return h.credsErr
	}
	// Repairer events interleave with exec/setcreds events
	inner := h.repairer
	h.b.repairer = repairFunc(func(root string, uid, gid int) error {
		err := inner.Repair(root, uid, gid)
		h.events = append(h.events, inner.calls[len(inner.calls)-1])
		return err
	})
	return h
}

type repairFunc func(root string, uid, gid int) error

func (f repairFunc) Repair(root string, uid, gid int) error { return f(root, uid, gid) }

func TestSelectBranch(t *testing.T) {
	assert.Equal(t, BranchRepair, SelectBranch(0))
	assert.Equal(t, BranchDirect, SelectBranch(1))
	assert.Equal(t, BranchDirect, SelectBranch(1000))
	assert.Equal(t, BranchDirect, SelectBranch(65534))
}

func TestBootstrapper_Run_Privileged(t *testing.T) {
	t.Run("RepairThenDropThenExec", func(t *testing.T) {
		h := newHarness(t)

		// A returning exec means the image replacement failed; with the
		// fake succeeding, Run treats it as handed off.
		err := h.b.Run(0)
		require.NoError(t, err)

		assert.Equal(t, []string{
			"repair /data 1000:1000",
			"setcreds 1000:1000",
			"exec /usr/local/bin/docker-entrypoint.sh",
		}, h.events)
		assert.Equal(t, []string{"/usr/local/bin/docker-entrypoint.sh", "eswrapper"}, h.execArgv)
		assert.Equal(t, 1, h.resolver.calls)
	})

	t.Run("UnknownAccountFailsBeforeRepair", func(t *testing.T) {
		h := newHarness(t)
		h.resolver.err = fmt.Errorf("%w: user \"elasticsearch\"", account.ErrUnknownAccount)

		err := h.b.Run(0)
		require.Error(t, err)
		assert.ErrorIs(t, err, account.ErrUnknownAccount)
		assert.Empty(t, h.events, "no repair, no credential drop, no exec")
	})

	t.Run("RepairFailureAbortsBeforeExec", func(t *testing.T) {
		h := newHarness(t)
		h.repairer.err = fmt.Errorf("chown /data: read-only file system")

		err := h.b.Run(0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read-only file system")
		assert.Equal(t, []string{"repair /data 1000:1000"}, h.events,
			"delegate must never launch against unrepaired state")
	})

	t.Run("CredentialDropFailureAbortsBeforeExec", func(t *testing.T) {
		h := newHarness(t)
		h.credsErr = fmt.Errorf("setuid: operation not permitted")

		err := h.b.Run(0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "drop privileges")
		assert.NotContains(t, h.events, "exec /usr/local/bin/docker-entrypoint.sh")
	})

	t.Run("ExecFailureSurfaces", func(t *testing.T) {
		h := newHarness(t)
		h.execErr = fmt.Errorf("no such file or directory")

		err := h.b.Run(0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exec /usr/local/bin/docker-entrypoint.sh")
	})
}

func TestBootstrapper_Run_Unprivileged(t *testing.T) {
	t.Run("SkipsRepairAndCredentialDrop", func(t *testing.T) {
		h := newHarness(t)

		err := h.b.Run(1000)
		require.NoError(t, err)

		assert.Equal(t, []string{"exec /usr/local/bin/docker-entrypoint.sh"}, h.events)
		assert.Equal(t, 0, h.resolver.calls, "account resolution is a privileged-branch concern")
	})

	t.Run("SameArgvAsPrivilegedHandoff", func(t *testing.T) {
		privileged := newHarness(t)
		require.NoError(t, privileged.b.Run(0))

		unprivileged := newHarness(t)
		require.NoError(t, unprivileged.b.Run(1000))

		assert.Equal(t, privileged.execArgv, unprivileged.execArgv)
	})

	t.Run("ExecFailureSurfaces", func(t *testing.T) {
		h := newHarness(t)
		h.execErr = fmt.Errorf("permission denied")

		err := h.b.Run(1000)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exec")
	})
}
