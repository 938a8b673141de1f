package account

import (
	"errors"
	"fmt"
	"os/user"
	"strconv"
)

// ErrUnknownAccount means the service account or group does not exist inside
// the runtime image. Surfacing it by name here keeps the failure readable;
// otherwise it shows up later as an opaque chown error.
var ErrUnknownAccount = errors.New("account not present in image")

// Account is a resolved unprivileged user/group pair.
type Account struct {
	Name string
	UID  int
	GID  int
}

// Resolver translates account names into numeric ids.
type Resolver struct {
	lookupUser  func(name string) (*user.User, error)
	lookupGroup func(name string) (*user.Group, error)
}

// NewResolver creates a resolver backed by the system user database.
func NewResolver() *Resolver {
	return &Resolver{
		lookupUser:  user.Lookup,
		lookupGroup: user.LookupGroup,
	}
}

// Resolve maps the named user/group pair to numeric ids.
func (r *Resolver) Resolve(userName, groupName string) (Account, error) {
	u, err := r.lookupUser(userName)
	if err != nil {
		return Account{}, fmt.Errorf("%w: user %q: %v", ErrUnknownAccount, userName, err)
	}

	g, err := r.lookupGroup(groupName)
	if err != nil {
		return Account{}, fmt.Errorf("%w: group %q: %v", ErrUnknownAccount, groupName, err)
	}

	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return Account{}, fmt.Errorf("parse uid %q: %w", u.Uid, err)
	}

	gid, err := strconv.Atoi(g.Gid)
	if err != nil {
		return Account{}, fmt.Errorf("parse gid %q: %w", g.Gid, err)
	}

	return Account{Name: userName, UID: uid, GID: gid}, nil
}
