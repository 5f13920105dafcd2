// Package cli is the steady command line: task list, focus timers,
// analytics, account and calendar export.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/harrisonrobin/steady/pkg/account"
	"github.com/harrisonrobin/steady/pkg/api"
	"github.com/harrisonrobin/steady/pkg/auth"
	"github.com/harrisonrobin/steady/pkg/cache"
	"github.com/harrisonrobin/steady/pkg/config"
	"github.com/harrisonrobin/steady/pkg/logger"
	"github.com/harrisonrobin/steady/pkg/tasks"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// app carries what the commands share. It is filled in by the root
// command's pre-run.
type app struct {
	configPath string
	output     string
	verbose    bool

	cfg     *config.Config
	log     *logrus.Logger
	session *auth.SessionStore
}

// NewRootCmd builds the command tree.
func NewRootCmd(version string) *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "steady",
		Short: "Tasks, habits and focus sessions from the terminal",
		Long: `steady keeps your task list and habits in sync with your account,
runs Pomodoro and meditation timers, and mirrors deadlines into Google Calendar.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default $HOME/.config/steady/config.json)")
	root.PersistentFlags().StringVarP(&a.output, "output", "o", formatTable, "output format: table, json or yaml")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newTasksCmd(a),
		newAnalyticsCmd(a),
		newPomodoroCmd(a),
		newMeditateCmd(a),
		newWellnessCmd(a),
		newLoginCmd(a),
		newSignupCmd(a),
		newGoogleLoginCmd(a),
		newLogoutCmd(a),
		newProfileCmd(a),
		newPasswordCmd(a),
		newCalendarCmd(a),
		newServeCmd(a),
		newConfigCmd(a),
	)
	return root
}

// Execute runs the command line until it finishes or the process is
// interrupted.
func Execute(version string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd(version).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func (a *app) init(cmd *cobra.Command) error {
	var err error
	if a.configPath != "" {
		a.cfg, err = config.LoadFile(a.configPath)
	} else {
		a.cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if err := checkFormat(a.output); err != nil {
		return err
	}

	level := a.cfg.LogLevel
	if a.verbose {
		level = "debug"
	}
	a.log = logger.Init(logger.Options{Level: level, JSON: a.cfg.LogJSON, Output: cmd.ErrOrStderr()})

	a.session, err = auth.NewSessionStore()
	return err
}

func (a *app) logFor(component string) *logrus.Entry {
	return a.log.WithField("component", component)
}

// client returns an api client bound to the stored session. A rejected
// session prints a sign-in hint on w.
func (a *app) client(w io.Writer) *api.Client {
	return api.NewClient(a.cfg.APIURL, a.session,
		api.WithNavigator(&terminalNavigator{out: w}),
		api.WithLogger(logrus.NewEntry(a.log)),
		api.WithTimeout(time.Duration(a.cfg.RequestTimeout)*time.Second),
	)
}

func (a *app) accounts(w io.Writer) *account.Service {
	return account.NewService(a.client(w), a.session, a.logFor("account"))
}

// coordinator loads the task list. The returned close waits for background
// reconciliation before releasing the cache.
func (a *app) coordinator(ctx context.Context, w io.Writer) (*tasks.Coordinator, func(), error) {
	c := cache.New(a.logFor("cache"))
	coord := tasks.NewCoordinator(c, a.client(w), logrus.NewEntry(a.log))
	done := func() {
		c.Wait()
		c.Close()
	}
	if err := coord.Load(ctx); err != nil {
		done()
		return nil, nil, err
	}
	return coord, done, nil
}
