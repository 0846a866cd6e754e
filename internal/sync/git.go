// Package sync commits the data directory to git after saves, and pulls and
// pushes on request.
package sync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	gosync "sync"
	"time"

	"go.uber.org/zap"

	"dailies/internal/config"
	"dailies/internal/fsutil"
	"dailies/internal/storage"
)

// ErrNotRepo is returned by operations that need an initialized repository.
var ErrNotRepo = errors.New("not a git repository - run 'dailies sync init' first")

// Status represents the current git status.
type Status struct {
	IsRepo       bool
	HasRemote    bool
	RemoteName   string
	RemoteURL    string
	Branch       string
	Ahead        int
	Behind       int
	HasChanges   bool
	LastCommitAt *time.Time
}

// Git manages git operations for the data directory.
type Git struct {
	dataDir string
	cfg     config.SyncConfig
	log     *zap.Logger

	// Debounced auto-commit state.
	mu              gosync.Mutex
	pendingFiles    map[string]bool
	pendingContexts []storage.SaveContext
	commitTimer     *time.Timer

	// Serializes git invocations to avoid index.lock conflicts.
	opMu gosync.Mutex

	debounceDuration time.Duration
}

// New creates a Git for dataDir.
func New(dataDir string, cfg config.SyncConfig, log *zap.Logger) *Git {
	if log == nil {
		log = zap.NewNop()
	}
	return &Git{
		dataDir:          dataDir,
		cfg:              cfg,
		log:              log,
		pendingFiles:     make(map[string]bool),
		debounceDuration: 2 * time.Second,
	}
}

// IsGitInstalled checks if git is available on the system.
func IsGitInstalled() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// IsRepo checks if the data directory is a git repository.
func (g *Git) IsRepo() bool {
	info, err := os.Stat(filepath.Join(g.dataDir, ".git"))
	return err == nil && info.IsDir()
}

const (
	defaultGitTimeout  = 10 * time.Second
	pullPushGitTimeout = 60 * time.Second
	commitGitTimeout   = 15 * time.Second
)

const gitignore = `# dailies - files that stay local
backups/
logs/
notifications/
widget/
*.bak
*.lock
*.corrupt.*
.env
`

// Init initializes a git repository in the data directory.
func (g *Git) Init() error {
	g.opMu.Lock()
	defer g.opMu.Unlock()

	if !IsGitInstalled() {
		return fmt.Errorf("git is not installed")
	}
	if err := os.MkdirAll(g.dataDir, fsutil.DirPerm); err != nil {
		return err
	}
	if _, err := g.runGitTimeout(commitGitTimeout, "init"); err != nil {
		return fmt.Errorf("failed to initialize git repository: %w", err)
	}
	if err := fsutil.WriteFileAtomic(filepath.Join(g.dataDir, ".gitignore"), []byte(gitignore), fsutil.FilePerm); err != nil {
		return fmt.Errorf("failed to create .gitignore: %w", err)
	}
	if _, err := g.runGitTimeout(defaultGitTimeout, "add", ".gitignore"); err != nil {
		return fmt.Errorf("failed to stage .gitignore: %w", err)
	}
	if _, err := g.runGitTimeout(commitGitTimeout, "-c", "commit.gpgsign=false", "commit", "-m", "Initialize dailies data repository"); err != nil {
		if !isGitNothingToCommit(err) {
			return fmt.Errorf("failed to create initial commit: %w", err)
		}
	}
	return nil
}

// Status returns the current git status.
func (g *Git) Status() (*Status, error) {
	g.opMu.Lock()
	defer g.opMu.Unlock()

	status := &Status{IsRepo: g.IsRepo()}
	if !status.IsRepo {
		return status, nil
	}

	if branch, err := g.runGitTimeout(defaultGitTimeout, "rev-parse", "--abbrev-ref", "HEAD"); err == nil {
		status.Branch = trimOutput(branch)
	}

	// First line: "origin\tgit@...\t(fetch)"
	if remotes, err := g.runGitTimeout(defaultGitTimeout, "remote", "-v"); err == nil && trimOutput(remotes) != "" {
		status.HasRemote = true
		first, _, _ := strings.Cut(trimOutput(remotes), "\n")
		if parts := strings.Fields(first); len(parts) >= 2 {
			status.RemoteName = parts[0]
			status.RemoteURL = parts[1]
		}
	}

	if out, err := g.runGitTimeout(defaultGitTimeout, "status", "--porcelain"); err == nil {
		status.HasChanges = trimOutput(out) != ""
	}

	if status.HasRemote && status.Branch != "" {
		remote := status.RemoteName + "/" + status.Branch
		if out, err := g.runGitTimeout(defaultGitTimeout, "rev-list", "--left-right", "--count", status.Branch+"..."+remote); err == nil {
			fmt.Sscanf(trimOutput(out), "%d\t%d", &status.Ahead, &status.Behind)
		}
	}

	if out, err := g.runGitTimeout(defaultGitTimeout, "log", "-1", "--format=%ci"); err == nil && trimOutput(out) != "" {
		if t, err := time.Parse("2006-01-02 15:04:05 -0700", trimOutput(out)); err == nil {
			status.LastCommitAt = &t
		}
	}
	return status, nil
}

// Commit stages and commits the given files (relative to the data directory).
func (g *Git) Commit(files []string) error {
	g.opMu.Lock()
	defer g.opMu.Unlock()
	return g.commitLocked(files, nil)
}

// CommitAll stages and commits every change in the data directory.
func (g *Git) CommitAll() error {
	g.opMu.Lock()
	defer g.opMu.Unlock()
	return g.commitLocked([]string{"-A"}, nil)
}

func (g *Git) commitLocked(files []string, contexts []storage.SaveContext) error {
	if !g.IsRepo() {
		return ErrNotRepo
	}
	if len(files) == 0 {
		return nil
	}

	args := append([]string{"add"}, files...)
	if _, err := g.runGitTimeout(defaultGitTimeout, args...); err != nil {
		return fmt.Errorf("failed to stage files: %w", err)
	}
	staged, err := g.runGitTimeout(defaultGitTimeout, "diff", "--cached", "--name-only")
	if err != nil {
		return fmt.Errorf("failed to check staged changes: %w", err)
	}
	if trimOutput(staged) == "" {
		return nil
	}

	message := g.commitMessage(strings.Fields(trimOutput(staged)), contexts)
	if _, err := g.runGitTimeout(commitGitTimeout, "-c", "commit.gpgsign=false", "commit", "-m", message); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	if g.cfg.AutoPush {
		if err := g.pushLocked(); err != nil {
			return fmt.Errorf("committed locally, but push failed: %w", err)
		}
	}
	return nil
}

// Pull fetches and rebases onto the remote.
func (g *Git) Pull() error {
	g.opMu.Lock()
	defer g.opMu.Unlock()

	if !g.IsRepo() {
		return ErrNotRepo
	}
	if !g.hasRemoteLocked() {
		return fmt.Errorf("no remote configured")
	}
	if _, err := g.runGitTimeout(pullPushGitTimeout, "pull", "--rebase"); err != nil {
		return fmt.Errorf("pull failed: %w", err)
	}
	return nil
}

// Push pushes local commits to the remote.
func (g *Git) Push() error {
	g.opMu.Lock()
	defer g.opMu.Unlock()
	return g.pushLocked()
}

func (g *Git) pushLocked() error {
	if !g.IsRepo() {
		return ErrNotRepo
	}
	if !g.hasRemoteLocked() {
		return fmt.Errorf("no remote configured - add one with 'dailies sync init --remote <url>'")
	}
	if _, err := g.runGitTimeout(pullPushGitTimeout, "push"); err != nil {
		return fmt.Errorf("push failed: %w", err)
	}
	return nil
}

func (g *Git) hasRemoteLocked() bool {
	remotes, err := g.runGitTimeout(defaultGitTimeout, "remote")
	return err == nil && trimOutput(remotes) != ""
}

// AddRemote adds a git remote, or updates its URL if it already exists.
func (g *Git) AddRemote(name, url string) error {
	g.opMu.Lock()
	defer g.opMu.Unlock()

	if !g.IsRepo() {
		return ErrNotRepo
	}
	if name == "" {
		return fmt.Errorf("remote name is required")
	}
	if url == "" {
		return fmt.Errorf("remote URL is required")
	}

	remotes, _ := g.runGitTimeout(defaultGitTimeout, "remote")
	for _, line := range strings.Split(trimOutput(remotes), "\n") {
		if strings.TrimSpace(line) == name {
			if _, err := g.runGitTimeout(defaultGitTimeout, "remote", "set-url", name, url); err != nil {
				return fmt.Errorf("failed to update remote: %w", err)
			}
			return nil
		}
	}
	if _, err := g.runGitTimeout(defaultGitTimeout, "remote", "add", name, url); err != nil {
		return fmt.Errorf("failed to add remote: %w", err)
	}
	return nil
}

// OnSave queues a saved file for a debounced commit. It has the signature of
// storage.Profiles.SetOnSave.
func (g *Git) OnSave(ctx storage.SaveContext) {
	if !g.cfg.Enabled || !g.cfg.AutoCommit || ctx.Filename == "" {
		return
	}
	if !g.IsRepo() {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.pendingFiles[ctx.Filename] = true
	g.pendingContexts = append(g.pendingContexts, ctx)

	if g.commitTimer != nil {
		g.commitTimer.Stop()
	}
	g.commitTimer = time.AfterFunc(g.debounceDuration, g.flushCommit)
}

// Flush commits pending files now instead of waiting for the debounce.
func (g *Git) Flush() {
	g.mu.Lock()
	if g.commitTimer != nil {
		g.commitTimer.Stop()
		g.commitTimer = nil
	}
	g.mu.Unlock()

	g.flushCommit()
}

func (g *Git) flushCommit() {
	g.mu.Lock()
	files := make([]string, 0, len(g.pendingFiles))
	for f := range g.pendingFiles {
		files = append(files, f)
	}
	contexts := g.pendingContexts
	g.pendingFiles = make(map[string]bool)
	g.pendingContexts = nil
	g.mu.Unlock()

	if len(files) == 0 {
		return
	}
	sort.Strings(files)

	g.opMu.Lock()
	defer g.opMu.Unlock()

	// A deleted profile has nothing left to add; stage the removal instead.
	var present, removed []string
	for _, f := range files {
		if _, err := os.Stat(filepath.Join(g.dataDir, f)); os.IsNotExist(err) {
			removed = append(removed, f)
		} else {
			present = append(present, f)
		}
	}
	if len(removed) > 0 && g.IsRepo() {
		args := append([]string{"rm", "--cached", "--ignore-unmatch", "--quiet"}, removed...)
		if _, err := g.runGitTimeout(defaultGitTimeout, args...); err != nil {
			g.log.Warn("auto-commit: unstage removed files", zap.Strings("files", removed), zap.Error(err))
		}
	}
	if len(present) == 0 {
		// Nothing to add, but removals may still be staged.
		present = []string{"--update", "."}
	}
	if err := g.commitLocked(present, contexts); err != nil {
		g.log.Warn("auto-commit failed", zap.Strings("files", files), zap.Error(err))
	}
}

// commitMessage picks the commit message for the staged files. A configured
// message wins; otherwise it is derived from the save contexts, then from the
// file names.
func (g *Git) commitMessage(files []string, contexts []storage.SaveContext) string {
	if g.cfg.CommitMessage != "" && g.cfg.CommitMessage != "auto" {
		return g.cfg.CommitMessage
	}

	switch len(contexts) {
	case 0:
		return fileMessage(files)
	case 1:
		return semanticMessage(contexts[0])
	}

	first := contexts[0]
	for _, ctx := range contexts[1:] {
		if ctx.Operation != first.Operation || ctx.ItemType != first.ItemType {
			return fmt.Sprintf("Update: %d changes", len(contexts))
		}
	}
	// "Complete 3 tasks"
	return fmt.Sprintf("%s %d %ss", capitalizeFirst(first.Operation), len(contexts), first.ItemType)
}

func fileMessage(files []string) string {
	if len(files) != 1 {
		return fmt.Sprintf("Update %d files", len(files))
	}
	switch f := files[0]; {
	case f == storage.SettingsFile:
		return "Update settings"
	case filepath.Ext(f) == ".json":
		return "Update profile " + strings.TrimSuffix(f, ".json")
	default:
		return "Update " + f
	}
}

// semanticMessage renders "Complete task: Review PR", "Add habit: Exercise".
func semanticMessage(ctx storage.SaveContext) string {
	if ctx.Operation == "" {
		return fileMessage([]string{ctx.Filename})
	}
	msg := capitalizeFirst(ctx.Operation) + " " + ctx.ItemType
	if ctx.ItemName != "" {
		msg += ": " + ctx.ItemName
	}
	return msg
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (g *Git) runGit(args ...string) (string, error) {
	return g.runGitTimeout(defaultGitTimeout, args...)
}

func (g *Git) runGitTimeout(timeout time.Duration, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.dataDir
	cmd.Env = envWithOverrides(os.Environ(), map[string]string{
		"GIT_TERMINAL_PROMPT": "0",
		"GIT_ASKPASS":         "",
		"SSH_ASKPASS":         "",
	})
	cmd.Stdin = bytes.NewReader(nil)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	g.log.Debug("git", zap.Strings("args", args))
	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("git %s timed out after %s", strings.Join(args, " "), timeout)
		}
		// "nothing to commit" goes to stdout.
		errMsg := trimOutput(stderr.String())
		if errMsg == "" {
			errMsg = trimOutput(stdout.String())
		}
		if errMsg == "" {
			errMsg = err.Error()
		}
		return "", errors.New(trimOutput(errMsg))
	}
	return stdout.String(), nil
}

func envWithOverrides(base []string, overrides map[string]string) []string {
	out := make([]string, 0, len(base)+len(overrides))
	seen := make(map[string]bool, len(overrides))
	for _, kv := range base {
		k, _, ok := strings.Cut(kv, "=")
		if v, found := overrides[k]; ok && found {
			out = append(out, k+"="+v)
			seen[k] = true
			continue
		}
		out = append(out, kv)
	}
	for k, v := range overrides {
		if !seen[k] {
			out = append(out, k+"="+v)
		}
	}
	return out
}

func isGitNothingToCommit(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "nothing to commit") ||
		strings.Contains(msg, "nothing added to commit") ||
		strings.Contains(msg, "no changes added to commit")
}

func trimOutput(s string) string {
	return strings.TrimSpace(s)
}
