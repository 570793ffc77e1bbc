package render

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"

	"github.com/mkantor/operator/internal/content"
)

// StaticRenderer copies a file's bytes verbatim. The file is opened with
// O_NOFOLLOW so a symlink swapped in after resolution cannot redirect the
// read.
type StaticRenderer struct{}

func (StaticRenderer) Render(ctx context.Context, source *content.Source, _ Context, _ Recursion) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := openNoFollow(source.Path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%q: %v: %w", source.Path, err, content.ErrForbidden)
		}
		return nil, fmt.Errorf("open %q: %w", source.Path, err)
	}
	defer file.Close()

	body, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", source.Path, err)
	}

	return &Result{Body: body, MediaType: source.MediaType}, nil
}

func openNoFollow(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_RDONLY|unix.O_NOFOLLOW, 0)
}
