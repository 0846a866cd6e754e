package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dailies/internal/app"
	"dailies/internal/config"
	"dailies/internal/model"
	"dailies/internal/notify"
	"dailies/internal/reminders"
)

var remindersCmd = &cobra.Command{
	Use:   "reminders",
	Short: "Deliver and inspect scheduled reminders",
}

var remindersRunOnce bool

var remindersRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Deliver due reminders as desktop notifications until interrupted",
	Long: `Poll the reminder queue and show due reminders as desktop notifications.
Daily habit reminders are registered again for their next occurrence after
they fire. Use --once from cron or a launch agent instead of a long-running
process.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		if !e.cfg.Reminders.Enabled {
			return fmt.Errorf("reminders are disabled in %s", configPathForDisplay())
		}
		interval, err := e.cfg.PollInterval()
		if err != nil {
			return err
		}

		d := notify.NewDispatcher(notify.DispatcherOptions{
			Queues:   e.queues,
			Desktop:  notify.NewDesktop(),
			Interval: interval,
			Sound:    e.cfg.Reminders.Sound,
			Logger:   e.log,
			OnFired: func(profileID string, t reminders.Trigger) {
				if t.Data["kind"] == reminders.KindHabit {
					e.rearmHabit(profileID, t.Data["habitId"])
				}
			},
		})

		if remindersRunOnce {
			n := d.Tick()
			fmt.Println(e.styles.Success(fmt.Sprintf("%d reminders delivered", n)))
			return nil
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return d.Run(ctx)
	},
}

// rearmHabit registers the next occurrence of a habit's reminders in the
// profile whose queue it fired from.
func (e *env) rearmHabit(profileID, habitID string) {
	if habitID == "" {
		return
	}
	var profile *model.Profile
	for _, d := range e.profiles.List() {
		if d.ID == profileID && !d.Corrupt {
			profile = &model.Profile{ID: d.ID, Name: d.Name}
			break
		}
	}
	if profile == nil {
		e.log.Debug("fired habit belongs to a missing profile", zap.String("profile", profileID))
		return
	}

	store := e.newStore(profile.ID)
	if err := store.Login(*profile); err != nil {
		e.log.Warn("rearm habit: open profile", zap.String("profile", profile.ID), zap.Error(err))
		return
	}
	if err := store.RescheduleHabit(habitID); err != nil {
		if errors.Is(err, app.ErrNotFound) {
			e.log.Debug("fired habit no longer exists", zap.String("habit", habitID))
			return
		}
		e.log.Warn("rearm habit", zap.String("habit", habitID), zap.Error(err))
	}
}

var remindersListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List pending reminders",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		pending, err := e.queues.Pending()
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			fmt.Println(e.styles.IDStyle.Render("no pending reminders"))
			return nil
		}
		for _, t := range pending {
			fmt.Printf("%s  %s  %s\n",
				e.styles.DateStyle.Render(t.At.Local().Format("2006-01-02 15:04")),
				t.Title,
				e.styles.IDStyle.Render(t.Body))
		}
		return nil
	},
}

var remindersResyncCmd = &cobra.Command{
	Use:   "resync",
	Short: "Rebuild the reminders of every task and habit in the profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openSession()
		if err != nil {
			return err
		}
		defer e.close()

		if err := e.checkMutation(e.store.ResyncReminders()); err != nil {
			return err
		}
		fmt.Println(e.styles.Success("reminders rebuilt for " + e.profile.Name))
		return nil
	},
}

func configPathForDisplay() string {
	if flagConfig != "" {
		return flagConfig
	}
	if p := config.Path(); p != "" {
		return p
	}
	return "config.yaml"
}

func init() {
	remindersRunCmd.Flags().BoolVar(&remindersRunOnce, "once", false, "deliver what is due now and exit")
	remindersCmd.AddCommand(remindersRunCmd, remindersListCmd, remindersResyncCmd)
}
