package instance

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"clashlb/launcher/pkg/clash"
	"clashlb/launcher/pkg/partition"
)

// MaterializeError reports the filesystem failure that aborted a
// materialization.
type MaterializeError struct {
	Index int
	Path  string
	Op    string
	Err   error
}

func (e *MaterializeError) Error() string {
	return fmt.Sprintf("materialize instance %d: %s %s: %v", e.Index, e.Op, e.Path, e.Err)
}

func (e *MaterializeError) Unwrap() error {
	return e.Err
}

// Options controls where and how instances are materialized.
type Options struct {
	// Root is the work directory holding one subdirectory per instance.
	Root string

	// StartPort is the listen port of instance 0.
	StartPort int

	// Mode selects which listen port field is set.
	Mode clash.ListenMode

	// Concurrency bounds parallel writes. Zero means one writer per instance.
	Concurrency int
}

// Materializer writes derived instance configurations to disk.
type Materializer struct {
	opts   Options
	logger *slog.Logger
}

// NewMaterializer creates a Materializer.
func NewMaterializer(opts Options, logger *slog.Logger) *Materializer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Materializer{
		opts:   opts,
		logger: logger.With("component", "instance.materializer"),
	}
}

// Materialize derives one configuration per bucket and writes it to
// <root>/clash_<index>/config.yml. Writes run in parallel; the first failure
// cancels the rest and is returned, and no instances are returned with it.
func (m *Materializer) Materialize(ctx context.Context, base *clash.Config, rules []string, buckets []partition.Bucket) ([]Instance, error) {
	if len(buckets) == 0 {
		return nil, partition.ErrEmptySelection
	}
	if err := CheckPortRange(m.opts.StartPort, len(buckets)); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(m.opts.Root, 0o755); err != nil {
		return nil, &MaterializeError{Index: -1, Path: m.opts.Root, Op: "mkdir", Err: err}
	}

	instances := make([]Instance, len(buckets))
	g, gctx := errgroup.WithContext(ctx)
	if m.opts.Concurrency > 0 {
		g.SetLimit(m.opts.Concurrency)
	}

	for i, b := range buckets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			inst, err := m.write(gctx, base, rules, b)
			if err != nil {
				return err
			}
			instances[i] = inst
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		m.logger.ErrorContext(ctx, "materialization aborted", "error", err)
		return nil, err
	}

	m.logger.InfoContext(ctx, "instances materialized",
		"count", len(instances),
		"root", m.opts.Root,
		"first_port", instances[0].Port,
		"last_port", instances[len(instances)-1].Port,
	)
	return instances, nil
}

func (m *Materializer) write(ctx context.Context, base *clash.Config, rules []string, b partition.Bucket) (Instance, error) {
	port := Port(m.opts.StartPort, b.Index)
	dir := Dir(m.opts.Root, b.Index)
	cfg := Derive(base, rules, b, m.opts.Mode, port)
	if err := clash.Validate(cfg); err != nil {
		return Instance{}, &MaterializeError{Index: b.Index, Path: dir, Op: "validate", Err: err}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Instance{}, &MaterializeError{Index: b.Index, Path: dir, Op: "mkdir", Err: err}
	}

	data, err := clash.Marshal(cfg)
	if err != nil {
		return Instance{}, &MaterializeError{Index: b.Index, Path: dir, Op: "marshal", Err: err}
	}

	path := filepath.Join(dir, ConfigFileName)
	if err := writeFileAtomic(path, data); err != nil {
		return Instance{}, &MaterializeError{Index: b.Index, Path: path, Op: "write", Err: err}
	}

	m.logger.DebugContext(ctx, "instance config written",
		"index", b.Index,
		"proxy", b.Proxy.Name,
		"port", port,
		"path", path,
	)

	return Instance{
		Index:      b.Index,
		ProxyName:  b.Proxy.Name,
		Port:       port,
		Dir:        dir,
		ConfigPath: path,
		LogPath:    filepath.Join(dir, LogFileName),
		Config:     cfg,
	}, nil
}

// writeFileAtomic writes data next to path and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
