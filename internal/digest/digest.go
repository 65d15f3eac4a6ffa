// Package digest builds path to content-digest maps for directory trees.
package digest

import (
	"context"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/pders01/git-closest/internal/models"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	// AlgorithmSHA1 is the default 160-bit digest
	AlgorithmSHA1 = "sha1"
	// AlgorithmSHA256 is the 256-bit digest
	AlgorithmSHA256 = "sha256"

	// DefaultChunkSize is the read buffer size used while hashing
	DefaultChunkSize = 1 << 20
)

// Options configures a Hasher
type Options struct {
	Algorithm string
	ChunkSize int
	// Workers > 1 hashes files concurrently. The returned map is the same.
	Workers int
	// Retries is the number of extra attempts for a file that fails to read
	Retries int
	Matcher *Matcher
	Logger  log.FieldLogger
}

// Hasher computes FileDigestMaps. It holds no state between calls.
type Hasher struct {
	newHash   func() hash.Hash
	chunkSize int
	workers   int
	retries   int
	matcher   *Matcher
	logger    log.FieldLogger
}

// NewHasher validates the options and returns a Hasher
func NewHasher(opts Options) (*Hasher, error) {
	h := &Hasher{
		chunkSize: opts.ChunkSize,
		workers:   opts.Workers,
		retries:   opts.Retries,
		matcher:   opts.Matcher,
		logger:    opts.Logger,
	}

	switch opts.Algorithm {
	case "", AlgorithmSHA1:
		h.newHash = sha1.New
	case AlgorithmSHA256:
		h.newHash = sha256.New
	default:
		return nil, fmt.Errorf("unsupported hash algorithm: %s (must be: sha1, sha256)", opts.Algorithm)
	}

	if h.chunkSize <= 0 {
		h.chunkSize = DefaultChunkSize
	}
	if h.workers <= 0 {
		h.workers = 1
	}
	if h.retries < 0 {
		h.retries = 0
	}
	if h.logger == nil {
		h.logger = log.StandardLogger()
	}

	return h, nil
}

// WithWorkers returns a copy of h using n workers
func (h *Hasher) WithWorkers(n int) *Hasher {
	c := *h
	if n <= 0 {
		n = 1
	}
	c.workers = n
	return &c
}

type fileEntry struct {
	abs string
	rel string
}

// Collect hashes every regular file under root and returns the map keyed by
// forward-slash relative path. Directories are not hashed and symlinked
// directories are not descended.
func (h *Hasher) Collect(ctx context.Context, root string) (models.FileDigestMap, error) {
	files, err := h.list(root)
	if err != nil {
		return nil, err
	}

	digests := make(models.FileDigestMap, len(files))

	if h.workers == 1 {
		for _, f := range files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			sum, err := h.hashWithRetry(ctx, f)
			if err != nil {
				return nil, err
			}
			digests[f.rel] = sum
		}
		return digests, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.workers)

	for _, f := range files {
		f := f
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sum, err := h.hashWithRetry(gctx, f)
			if err != nil {
				return err
			}
			mu.Lock()
			digests[f.rel] = sum
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return digests, nil
}

// list walks root and returns the files to hash. A symlinked root is
// resolved first since WalkDir does not follow it.
func (h *Hasher) list(root string) ([]fileEntry, error) {
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	root = resolved

	var files []fileEntry

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if h.matcher.Excluded(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if h.matcher.Excluded(rel, false) {
			return nil
		}

		if !d.Type().IsRegular() {
			// Only symlinks that resolve to a regular file are hashed
			if d.Type()&fs.ModeSymlink == 0 {
				return nil
			}
			info, err := os.Stat(path)
			if err != nil || !info.Mode().IsRegular() {
				return nil
			}
		}

		files = append(files, fileEntry{abs: path, rel: rel})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	return files, nil
}

func (h *Hasher) hashWithRetry(ctx context.Context, f fileEntry) (string, error) {
	if h.retries == 0 {
		return h.hashFile(f.abs)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 20 * time.Millisecond
	policy.MaxInterval = 500 * time.Millisecond

	var sum string
	try := 1
	err := backoff.Retry(func() error {
		var err error
		sum, err = h.hashFile(f.abs)
		if err != nil {
			h.logger.WithError(err).WithField("path", f.rel).Debugf("hash attempt #%d failed", try)
		}
		try++
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(h.retries)), ctx))
	if err != nil {
		return "", err
	}
	return sum, nil
}

// hashFile digests the file's raw bytes, reading in chunkSize pieces
func (h *Hasher) hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	sum := h.newHash()
	buf := make([]byte, h.chunkSize)
	// wrappers hide ReadFrom/WriteTo so reads go through buf
	if _, err := io.CopyBuffer(struct{ io.Writer }{sum}, struct{ io.Reader }{f}, buf); err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	return hex.EncodeToString(sum.Sum(nil)), nil
}
