// Package etlfs provides file system iterators.
package etlfs

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/stdiopt/rollup/etl"
	"github.com/stdiopt/rollup/etl/etlio"
)

// Iter alias to etl.Iter.
type Iter = etl.Iter

// Find returns an iterator that yields the path of every file under root
// whose base name matches pattern, in lexical order.
func Find(root, pattern string) Iter {
	return etl.MakeGen(etl.Gen[string]{
		Run: func(_ context.Context, yield etl.Y[string]) error {
			return findFiles(root, pattern, yield)
		},
	})
}

func findFiles(root, pattern string, yield func(string) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		matched, err := filepath.Match(pattern, filepath.Base(path))
		if err != nil {
			return err
		}
		if !matched {
			return nil
		}
		return yield(path)
	})
}

// ReadFile returns an iterator of the file content in []byte chunks,
// closing the iterator closes the file.
func ReadFile(p string) Iter {
	f, err := os.Open(p)
	if err != nil {
		return etl.ErrIter(fmt.Errorf("etlfs.ReadFile: %w", err))
	}
	return etlio.FromReadCloser(f)
}

// WriteFile writes the []byte chunks of it into the file p.
func WriteFile(ctx context.Context, it Iter, p string) error {
	f, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("etlfs.WriteFile: %w", err)
	}
	if err := etlio.WriteTo(ctx, it, f); err != nil {
		f.Close()
		return fmt.Errorf("etlfs.WriteFile: %w", err)
	}
	return f.Close()
}
