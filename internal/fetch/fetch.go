package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/profile-featurizer/internal/record"
	"github.com/spigell/profile-featurizer/internal/utils"
)

// ErrEmpty is returned when the source yields no usable record.
var ErrEmpty = errors.New("empty profile record")

const (
	SourceFile       = "file"
	SourceCommand    = "command"
	SourceHeadHunter = "headhunter"
)

// Fetcher turns a profile identifier into a nested record.
type Fetcher interface {
	Fetch(ctx context.Context, id string) (any, error)
}

// File reads a JSON record from disk. The identifier is the path; an empty
// identifier falls back to Path.
type File struct {
	Path string
}

func (f *File) Fetch(_ context.Context, id string) (any, error) {
	path := strings.TrimSpace(id)
	if path == "" {
		path = f.Path
	}
	if path == "" {
		return nil, fmt.Errorf("record path is required")
	}

	return readRecord(path)
}

// Command runs an external crawler with the identifier as its last argument
// and reads the record it writes to Output.
type Command struct {
	Args   []string
	Output string
	Logger *zap.Logger
}

func (c *Command) Fetch(ctx context.Context, id string) (any, error) {
	if len(c.Args) == 0 {
		return nil, fmt.Errorf("crawler command is required")
	}
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("profile identifier is required")
	}

	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := os.Remove(c.Output); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("remove stale crawler output: %w", err)
	}

	args := append(append([]string(nil), c.Args[1:]...), id)
	cmd := exec.CommandContext(ctx, c.Args[0], args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	logger.Debug("running crawler", zap.String("command", c.Args[0]), zap.Strings("args", args))
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("run crawler: %w: %s", err, utils.TruncateForLog(strings.TrimSpace(stderr.String()), 200))
	}

	return readRecord(c.Output)
}

func readRecord(path string) (any, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if stat.Size() == 0 {
		return nil, ErrEmpty
	}

	v, err := record.Decode(file)
	if err != nil {
		return nil, err
	}
	if IsEmpty(v) {
		return nil, ErrEmpty
	}
	return v, nil
}

// IsEmpty reports whether v carries no data.
func IsEmpty(v any) bool {
	switch typed := v.(type) {
	case nil:
		return true
	case map[string]any:
		return len(typed) == 0
	case []any:
		return len(typed) == 0
	default:
		return false
	}
}
