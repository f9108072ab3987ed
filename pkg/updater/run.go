package updater

import (
	"context"
	"strconv"

	"subsync/pkg/config"
)

// timeLayout stamps the status line that opens each cycle
const timeLayout = "2006-01-02 15:04:05"

// Run authenticates, syncs once, then loops until ctx is cancelled. Faults in
// a cycle are logged and retried on the next one; Run only returns ctx.Err().
func (u *Updater) Run(ctx context.Context) error {
	var state State
	session := u.authenticate(ctx)

	for {
		u.log.Info(u.timestamp())
		state = u.cycle(ctx, state, session)
		if err := u.pause(ctx); err != nil {
			return err
		}
		session = u.refresh(ctx, session)
	}
}

// Once authenticates and runs a single cycle from an empty state
func (u *Updater) Once(ctx context.Context) (State, Report) {
	return u.CheckAndSync(ctx, State{}, u.authenticate(ctx))
}

func (u *Updater) cycle(ctx context.Context, state State, session Session) State {
	next, _, err := u.safeCheckAndSync(ctx, state, session)
	if err != nil {
		u.log.Errorw(`There was an error in "checkAndSync". Will try again in `+u.seconds()+` seconds.`, "error", err)
		return state
	}
	return next
}

func (u *Updater) pause(ctx context.Context) error {
	u.log.Infof("Going to sleep for %s seconds.", u.seconds())
	if err := u.sleep(ctx, u.config.PollInterval()); err != nil {
		return err
	}
	return ctx.Err()
}

func (u *Updater) refresh(ctx context.Context, session Session) Session {
	if u.config.SessionRefresh == config.RefreshOnExpiry && session != nil && session.Valid() {
		return session
	}
	return u.authenticate(ctx)
}

// authenticate returns nil when Reddit rejects the login; the Reddit steps
// then fail for the cycle and the next refresh tries again.
func (u *Updater) authenticate(ctx context.Context) Session {
	session, err := u.auth.Authenticate(ctx)
	if err != nil {
		u.log.Errorw("There was an error authenticating with Reddit.", "error", err)
		return nil
	}
	return session
}

func (u *Updater) timestamp() string {
	return u.now().Format(timeLayout)
}

func (u *Updater) seconds() string {
	return strconv.Itoa(u.config.Sleep())
}
