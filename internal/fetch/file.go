package fetch

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/nao1215/maxtract/internal/model"
)

// FileFetcher reads file addresses from the local filesystem.
type FileFetcher struct {
	maxBodySize int64
}

// NewFileFetcher creates a FileFetcher. A non-positive maxBodySize uses
// DefaultMaxBodySize.
func NewFileFetcher(maxBodySize int64) *FileFetcher {
	if maxBodySize <= 0 {
		maxBodySize = DefaultMaxBodySize
	}
	return &FileFetcher{maxBodySize: maxBodySize}
}

// Fetch reads the file named by address.
func (f *FileFetcher) Fetch(ctx context.Context, address model.Address) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := address.URL().Path
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	file, err := os.Open(path) //nolint:gosec // Reading user-specified pages is the purpose of this fetcher
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(io.LimitReader(file, f.maxBodySize))
}
