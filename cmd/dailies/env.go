package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"dailies/internal/app"
	"dailies/internal/config"
	"dailies/internal/logging"
	"dailies/internal/model"
	"dailies/internal/notify"
	"dailies/internal/reminders"
	"dailies/internal/storage"
	dsync "dailies/internal/sync"
	"dailies/internal/ui"
	"dailies/internal/widget"
)

// defaultProfileName is created on first run when no profile exists.
const defaultProfileName = "Personal"

// env is everything one command invocation works with.
type env struct {
	cfg      *config.Config
	log      *zap.Logger
	styles   *ui.Styles
	profiles *storage.Profiles
	settings *storage.Settings
	queues   *notify.Queues
	widget   app.Widget
	git      *dsync.Git
	store    *app.Store

	profile  model.Profile
	flushLog func()
}

func defaultStyles() *ui.Styles {
	return ui.NewStylesFromTheme(config.ThemeConfig{})
}

// openEnv loads configuration and builds the storage, reminder, widget and
// sync components. Nothing is logged in yet.
func openEnv() (*env, error) {
	config.LoadEnv()
	ui.SetColorProfile(flagNoColor)

	var (
		cfg *config.Config
		err error
	)
	if flagConfig != "" {
		cfg, err = config.LoadFrom(flagConfig)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}
	dataDir := cfg.GetDataDir()
	if dataDir == "" {
		return nil, fmt.Errorf("cannot determine data directory; set %s or --data-dir", config.EnvDataDir)
	}

	log, flush, err := logging.New(logging.Options{
		DataDir:      dataDir,
		File:         cfg.Log.File,
		Level:        cfg.Log.Level,
		MaxAge:       time.Duration(cfg.Log.MaxAgeDays) * 24 * time.Hour,
		Console:      os.Stderr,
		ConsoleLevel: zapcore.WarnLevel,
		Debug:        flagDebug,
	})
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	e := &env{
		cfg:      cfg,
		log:      log,
		styles:   ui.NewStylesFromTheme(cfg.Theme),
		profiles: storage.NewProfiles(dataDir, log),
		settings: storage.NewSettings(dataDir),
		queues:   notify.NewQueues(dataDir, log),
		flushLog: flush,
	}

	if cfg.Widget.Enabled {
		e.widget = widget.NewSync(widget.NewFileBridge(dataDir, cfg.Widget.Path), log)
	}

	e.git = dsync.New(dataDir, cfg.Sync, log)
	if cfg.Sync.Enabled && e.git.IsRepo() {
		e.profiles.SetOnSave(e.git.OnSave)
		if cfg.Sync.PullOnStartup {
			if err := e.git.Pull(); err != nil {
				log.Warn("pull on startup", zap.Error(err))
			}
		}
	}
	return e, nil
}

// scheduler returns the reminder scheduler of one profile. Trigger ids are
// only unique within a profile, so each profile registers into its own queue.
func (e *env) scheduler(profileID string) *reminders.Scheduler {
	var notifier reminders.Notifier
	if e.cfg.Reminders.Enabled {
		notifier = e.queues.Profile(profileID)
	}
	return reminders.New(reminders.Options{
		Notifier:       notifier,
		DefaultDueTime: e.cfg.Reminders.DefaultDueTime,
		Logger:         e.log,
	})
}

// newStore returns a store whose reminders go to profileID's queue.
func (e *env) newStore(profileID string) *app.Store {
	return app.New(app.Options{
		Profiles:  e.profiles,
		Scheduler: e.scheduler(profileID),
		Widget:    e.widget,
		Logger:    e.log,
	})
}

// openSession is openEnv followed by logging in to the selected profile.
func openSession() (*env, error) {
	e, err := openEnv()
	if err != nil {
		return nil, err
	}
	if err := e.login(); err != nil {
		e.close()
		return nil, err
	}
	return e, nil
}

func (e *env) login() error {
	p, err := e.selectProfile(flagProfile)
	if err != nil {
		return err
	}
	e.store = e.newStore(p.ID)
	if err := e.store.Login(p); err != nil {
		return fmt.Errorf("open profile %s: %w", p.Name, err)
	}
	e.profile = p
	return nil
}

// selectProfile resolves --profile against the stored profiles. Without the
// flag it uses the default profile, the only profile, or a freshly created
// one.
func (e *env) selectProfile(ref string) (model.Profile, error) {
	list := e.profiles.List()
	if ref != "" {
		d, err := matchProfile(list, ref)
		if err != nil {
			return model.Profile{}, err
		}
		return checkProfile(d)
	}

	settings, err := e.settings.Get()
	if err != nil {
		e.log.Warn("read settings", zap.Error(err))
	}
	if settings.DefaultProfile != "" {
		for _, d := range list {
			if d.ID == settings.DefaultProfile {
				return checkProfile(d)
			}
		}
		e.log.Warn("default profile no longer exists", zap.String("profile", settings.DefaultProfile))
	}

	switch len(list) {
	case 0:
		d, err := e.profiles.Create(defaultProfileName)
		if err != nil {
			return model.Profile{}, err
		}
		if _, err := e.settings.Update(storage.SettingsPatch{DefaultProfile: &d.ID}); err != nil {
			e.log.Warn("set default profile", zap.Error(err))
		}
		return model.Profile{ID: d.ID, Name: d.Name}, nil
	case 1:
		return checkProfile(list[0])
	}
	return model.Profile{}, fmt.Errorf("%d profiles and no default; pass --profile or run 'dailies profile default <id>'", len(list))
}

func checkProfile(d storage.ProfileDescriptor) (model.Profile, error) {
	if d.Corrupt {
		return model.Profile{}, fmt.Errorf("profile %s: %w", d.ID, storage.ErrCorrupt)
	}
	return model.Profile{ID: d.ID, Name: d.Name}, nil
}

// matchProfile finds a profile by exact id, then by name (case-insensitive),
// then by unique id prefix.
func matchProfile(list []storage.ProfileDescriptor, ref string) (storage.ProfileDescriptor, error) {
	for _, d := range list {
		if d.ID == ref {
			return d, nil
		}
	}
	for _, d := range list {
		if strings.EqualFold(d.Name, ref) {
			return d, nil
		}
	}
	var found []storage.ProfileDescriptor
	for _, d := range list {
		if strings.HasPrefix(d.ID, ref) {
			found = append(found, d)
		}
	}
	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return storage.ProfileDescriptor{}, fmt.Errorf("profile %q: %w", ref, storage.ErrNotFound)
	}
	return storage.ProfileDescriptor{}, fmt.Errorf("profile %q is ambiguous (%d matches)", ref, len(found))
}

// resolveID expands a unique id prefix to the full id.
func resolveID(kind, ref string, ids []string) (string, error) {
	var found []string
	for _, id := range ids {
		if id == ref {
			return id, nil
		}
		if strings.HasPrefix(id, ref) {
			found = append(found, id)
		}
	}
	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return "", fmt.Errorf("%s %q: %w", kind, ref, app.ErrNotFound)
	}
	return "", fmt.Errorf("%s %q is ambiguous (%d matches)", kind, ref, len(found))
}

func (e *env) taskID(ref string) (string, error) {
	tasks := e.store.Tasks()
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return resolveID("task", ref, ids)
}

func (e *env) habitID(ref string) (string, error) {
	habits := e.store.Habits()
	ids := make([]string, len(habits))
	for i, h := range habits {
		ids[i] = h.ID
	}
	return resolveID("habit", ref, ids)
}

// checkMutation turns a scheduling failure into a warning: the change itself
// was saved.
func (e *env) checkMutation(err error) error {
	if err != nil && errors.Is(err, app.ErrScheduling) {
		fmt.Fprintln(os.Stderr, e.styles.Warn("saved, but reminders could not be scheduled: "+err.Error()))
		return nil
	}
	return err
}

func (e *env) close() {
	if e.git != nil {
		e.git.Flush()
	}
	if e.flushLog != nil {
		e.flushLog()
	}
}

// parseDay accepts YYYY-MM-DD, "today" and "tomorrow".
func parseDay(s string, now time.Time) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "today":
		return model.FormatDate(now), nil
	case "tomorrow":
		return model.FormatDate(now.AddDate(0, 0, 1)), nil
	}
	if _, err := model.ParseDate(s, time.Local); err != nil {
		return "", fmt.Errorf("date %q: want YYYY-MM-DD, today or tomorrow", s)
	}
	return s, nil
}
