package main

import (
	"context"
	"fmt"
	"time"

	"github.com/trezcool/appraise/core"
	"github.com/trezcool/appraise/core/guard"
	"github.com/trezcool/appraise/core/livelist"
	"github.com/trezcool/appraise/core/session"
	"github.com/trezcool/appraise/core/user"
)

const retryDelay = 3 * time.Second

// runAdmins follows the users stream and reprints the admins list on every change,
// until interrupted, logged out or the connection drops.
func (cli *commandLine) runAdmins(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("admins")
	exclude := fs.String("exclude-role", cli.conf.Admins.ExcludedRole, "Hide users with this role. Empty shows everyone.")
	retain := fs.Bool("retain", false, "Keep a listed user whose role changes to the excluded one.")
	once := fs.Bool("once", false, "Print the initial list and exit.")
	retry := fs.Bool("retry", false, "Reconnect when the connection drops.")
	if err := parse(fs, args); err != nil {
		return err
	}

	sess, err := cli.requireSession()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// a logout or expiry from anywhere ends the command
	stopGuard := cli.guard.Watch(cli.store, func(dec guard.Decision) {
		if !dec.Allow {
			cancel()
		}
	})
	defer stopGuard()
	go session.WatchExpiry(ctx, cli.store, cli.clock, cli.logger)

	filter := livelist.Filter[user.User]{}
	if *exclude != "" {
		filter.Include = user.ExcludeRole(*exclude)
	}
	if *retain {
		filter.Disqualified = livelist.Retain
	}

	for {
		err := cli.followAdmins(ctx, sess.Token, filter, *once)
		if err == nil || !*retry || ctx.Err() != nil {
			return cli.endOfFollow(err)
		}
		fmt.Fprintln(cli.out, core.NoticeFrom(err).Title)
		select {
		case <-ctx.Done():
			return cli.endOfFollow(nil)
		case <-cli.clock.After(retryDelay):
		}
	}
}

func (cli *commandLine) followAdmins(ctx context.Context, token string, filter livelist.Filter[user.User], once bool) error {
	changed := make(chan struct{}, 1)
	syncer := livelist.New(
		cli.client.UsersStream(token),
		livelist.JSONDecoder[user.User](user.StreamSeedEvent, user.StreamUpdateEvent),
		livelist.WithFilter(filter),
		livelist.WithLogger[user.User](cli.logger),
		livelist.WithListener(func(livelist.Snapshot[user.User]) {
			select {
			case changed <- struct{}{}:
			default:
			}
		}),
	)
	defer syncer.Close()

	if err := syncer.Start(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changed:
			snap := syncer.Snapshot()
			switch snap.State {
			case livelist.Lost:
				return snap.Err
			case livelist.Live:
				fmt.Fprintln(cli.out, renderRows(snap.Items, user.Columns))
				fmt.Fprintln(cli.out, plural(len(snap.Items), "user"))
				if once && snap.Seeded {
					return nil
				}
			}
		}
	}
}

// endOfFollow tells an interrupt apart from a session that ended underneath the command.
func (cli *commandLine) endOfFollow(err error) error {
	if err != nil {
		return err
	}
	if sess := cli.store.Read(); !sess.IsAuthenticated {
		if sess.Expired {
			return errSessionExpired
		}
		return errNotLoggedIn
	}
	return nil
}
