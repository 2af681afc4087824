package results

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-version"
)

// Repository reads and writes artifacts under a results root.
type Repository struct {
	root   string
	logger *slog.Logger
}

// NewRepository returns a repository rooted at root. A nil logger
// discards output.
func NewRepository(root string, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Repository{root: root, logger: logger}
}

// Root returns the repository's root directory.
func (r *Repository) Root() string {
	return r.root
}

// Dir returns the directory holding artifacts for k.
func (r *Repository) Dir(k Key) (string, error) {
	rel := filepath.Join(k.Specification, k.TestCase, filepath.FromSlash(k.Path))
	if k.Specification == "" || k.TestCase == "" || k.Path == "" || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("invalid artifact key %s/%s/%s", k.Specification, k.TestCase, k.Path)
	}
	return filepath.Join(r.root, rel), nil
}

// Save writes a atomically and returns the file path. An existing artifact
// for the same runner version is replaced.
func (r *Repository) Save(a Artifact) (string, error) {
	dir, err := r.Dir(a.Key())
	if err != nil {
		return "", err
	}
	if a.Result.Details.ID == "" {
		return "", errors.New("artifact has no runner id")
	}
	data, err := a.Encode()
	if err != nil {
		return "", fmt.Errorf("failed to encode artifact: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}

	path := filepath.Join(dir, a.FileName())
	tmp, err := os.CreateTemp(dir, ".artifact-*")
	if err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	r.logger.Debug("artifact saved", "path", path)
	return path, nil
}

// Load returns every artifact stored for k, ordered by runner id then
// version. A package with no artifacts yields an empty slice.
func (r *Repository) Load(k Key) ([]Artifact, error) {
	dir, err := r.Dir(k)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []Artifact{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	out := []Artifact{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		a, err := Decode(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		out = append(out, a)
	}
	sortArtifacts(out)
	return out, nil
}

// Clear removes every stored artifact. The root itself is kept.
func (r *Repository) Clear() error {
	entries, err := os.ReadDir(r.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", r.root, err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if err := os.RemoveAll(filepath.Join(r.root, e.Name())); err != nil {
			return fmt.Errorf("failed to clear results: %w", err)
		}
	}
	r.logger.Info("results cleared", "root", r.root)
	return nil
}

// Latest keeps one artifact per runner id: the one with the highest
// version. Versions that do not parse sort below any that do and compare
// as strings among themselves. The result is ordered by runner id.
func Latest(artifacts []Artifact) []Artifact {
	best := make(map[string]Artifact)
	for _, a := range artifacts {
		id := a.Result.Details.ID
		cur, ok := best[id]
		if !ok || compareVersions(a.Result.Details.Version, cur.Result.Details.Version) > 0 {
			best[id] = a
		}
	}
	out := make([]Artifact, 0, len(best))
	for _, a := range best {
		out = append(out, a)
	}
	sortArtifacts(out)
	return out
}

func sortArtifacts(as []Artifact) {
	sort.SliceStable(as, func(i, j int) bool {
		di, dj := as[i].Result.Details, as[j].Result.Details
		if di.ID != dj.ID {
			return di.ID < dj.ID
		}
		return compareVersions(di.Version, dj.Version) < 0
	})
}

func compareVersions(a, b string) int {
	va, errA := version.NewVersion(a)
	vb, errB := version.NewVersion(b)
	switch {
	case errA == nil && errB == nil:
		return va.Compare(vb)
	case errA == nil:
		return 1
	case errB == nil:
		return -1
	}
	return strings.Compare(a, b)
}
