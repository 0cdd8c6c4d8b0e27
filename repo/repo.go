// Package repo locates the source files of a git working tree.
package repo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	ignore "github.com/sabhiram/go-gitignore"
)

// DefaultTimeout bounds every git invocation
const DefaultTimeout = 10 * time.Second

// DefaultIgnoreFile is the ignore file looked up at the repository root
const DefaultIgnoreFile = ".aiderignore"

// ErrNotGitRepo is returned when a directory is not inside a git working tree
var ErrNotGitRepo = errors.New("not a git repository")

// Repo is a git working tree restricted to a set of files
type Repo struct {
	root       string
	ignoreFile string
	ignore     *ignore.GitIgnore
	fnames     map[string]struct{}
	timeout    time.Duration
	logger     *slog.Logger
}

// Option configures a Repo
type Option func(*Repo)

// WithTimeout sets the timeout of git invocations
func WithTimeout(d time.Duration) Option {
	return func(r *Repo) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(r *Repo) {
		if l != nil {
			r.logger = l
		}
	}
}

// Open opens the git working tree containing dir.
// ignoreFile is resolved against the repository root when relative; an empty
// ignoreFile disables ignore filtering. When fnames is not nil TrackedFiles
// only reports files of that set, even when the set is empty.
func Open(ctx context.Context, dir string, ignoreFile string, fnames []string, opts ...Option) (*Repo, error) {
	r := &Repo{
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(abs); err != nil {
		return nil, err
	} else if !info.IsDir() {
		abs = filepath.Dir(abs)
	}
	out, err := r.git(ctx, abs, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotGitRepo, abs)
	}
	r.root = resolve(strings.TrimSpace(string(out)))
	if ignoreFile != "" {
		if !filepath.IsAbs(ignoreFile) {
			ignoreFile = filepath.Join(r.root, ignoreFile)
		}
		r.ignoreFile = ignoreFile
		if _, err := os.Stat(ignoreFile); err == nil {
			gi, err := ignore.CompileIgnoreFile(ignoreFile)
			if err != nil {
				return nil, fmt.Errorf("load ignore file %s: %w", ignoreFile, err)
			}
			r.ignore = gi
		}
	}
	if fnames != nil {
		r.fnames = make(map[string]struct{}, len(fnames))
		for _, fname := range fnames {
			if rel, ok := r.RelPath(fname); ok {
				r.fnames[rel] = struct{}{}
			}
		}
	}
	r.logger.Debug("git repo opened", slog.String("root", r.root), slog.String("ignore_file", r.ignoreFile))
	return r, nil
}

// Root returns the absolute path of the working tree
func (r *Repo) Root() string {
	return r.root
}

// IgnoreFile returns the absolute path of the ignore file, empty when disabled
func (r *Repo) IgnoreFile() string {
	return r.ignoreFile
}

// AbsPath returns the absolute path of a root relative path
func (r *Repo) AbsPath(rel string) string {
	return filepath.Join(r.root, filepath.FromSlash(rel))
}

// RelPath returns the slash separated path of fname relative to the root.
// It reports false for paths outside the working tree.
func (r *Repo) RelPath(fname string) (string, bool) {
	abs, err := filepath.Abs(fname)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(r.root, resolve(abs))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// Ignored reports whether a root relative path matches the ignore file
func (r *Repo) Ignored(rel string) bool {
	if r.ignore == nil {
		return false
	}
	return r.ignore.MatchesPath(rel)
}

// TrackedFiles returns the root relative paths of the files known to git,
// sorted, without ignored files.
func (r *Repo) TrackedFiles(ctx context.Context) ([]string, error) {
	out, err := r.git(ctx, r.root, "ls-files", "-z", "--cached")
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	files := make([]string, 0)
	for _, raw := range bytes.Split(out, []byte{0}) {
		rel := string(raw)
		if rel == "" {
			continue
		}
		if _, ok := seen[rel]; ok {
			continue
		}
		seen[rel] = struct{}{}
		if r.fnames != nil {
			if _, ok := r.fnames[rel]; !ok {
				continue
			}
		}
		if r.Ignored(rel) {
			continue
		}
		files = append(files, rel)
	}
	sort.Strings(files)
	r.logger.Debug("git tracked files", slog.String("root", r.root), slog.Int("count", len(files)))
	return files, nil
}

func (r *Repo) git(ctx context.Context, dir string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	r.logger.Debug("executing git command", slog.Any("args", args), slog.String("dir", dir))
	out, err := cmd.Output()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("git %s timed out after %s", args[0], r.timeout)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("git %s: %w: %s", args[0], err, msg)
		}
		return nil, fmt.Errorf("git %s: %w", args[0], err)
	}
	return out, nil
}

// TrackedSrcFiles returns the absolute paths of the tracked files found below
// path, the way the file tools list a folder.
func TrackedSrcFiles(ctx context.Context, path string, ignoreFile string, opts ...Option) ([]string, error) {
	fnames, err := FindSrcFiles(path)
	if err != nil {
		return nil, err
	}
	r, err := Open(ctx, path, ignoreFile, fnames, opts...)
	if err != nil {
		return nil, err
	}
	rels, err := r.TrackedFiles(ctx)
	if err != nil {
		return nil, err
	}
	ret := make([]string, 0, len(rels))
	for _, rel := range rels {
		ret = append(ret, r.AbsPath(rel))
	}
	return ret, nil
}

// FindSrcFiles returns path itself when it is a file, otherwise every file below
// the directory. Git metadata directories are skipped.
func FindSrcFiles(path string) ([]string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{abs}, nil
	}
	files := make([]string, 0)
	err = filepath.WalkDir(abs, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func resolve(p string) string {
	if v, err := filepath.EvalSymlinks(p); err == nil {
		return v
	}
	return p
}
