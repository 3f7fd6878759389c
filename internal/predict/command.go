package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/spigell/profile-featurizer/internal/utils"
)

// Command is a classifier backed by an external model process. The vector is
// written to its stdin as JSON and the first line of stdout is the label.
type Command struct {
	Task string
	Args []string
}

func (c *Command) Label() string {
	return c.Task
}

func (c *Command) Predict(ctx context.Context, v Vector) (string, error) {
	if len(c.Args) == 0 {
		return "", fmt.Errorf("model command for %s is required", c.Task)
	}

	payload, err := json.Marshal(v)
	if err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, c.Args[0], c.Args[1:]...)
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("run model: %w: %s", err, utils.TruncateForLog(stderr.String(), 200))
	}

	label, _, _ := strings.Cut(strings.TrimSpace(stdout.String()), "\n")
	label = strings.TrimSpace(label)
	if label == "" {
		return "", fmt.Errorf("model for %s returned no label", c.Task)
	}
	return label, nil
}
