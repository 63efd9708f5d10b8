package fetch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"strconv"
)

// curl exit codes that are worth retrying: couldn't connect, timeout,
// empty reply, send/receive failures.
var curlTransient = map[int]bool{7: true, 28: true, 52: true, 55: true, 56: true}

// CurlFetcher shells out to curl. ESPN fingerprints Go's TLS client and
// serves it a block page; curl gets the real document.
type CurlFetcher struct {
	Binary         string
	TimeoutSeconds int
}

// NewCurlFetcher returns a fetcher using curl from PATH.
func NewCurlFetcher() *CurlFetcher {
	return &CurlFetcher{Binary: "curl", TimeoutSeconds: 15}
}

// Fetch runs curl and returns stdout.
func (c *CurlFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	args := []string{"-s", "-L", "--fail", "-A", UserAgent, "-m", strconv.Itoa(c.TimeoutSeconds), url}
	cmd := exec.CommandContext(ctx, c.Binary, args...)

	output, err := cmd.Output()
	if err != nil {
		log.Printf("[fetch] ❌ curl failed for %s: %v", url, err)
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if curlTransient[exitErr.ExitCode()] {
				return nil, fmt.Errorf("curl %s exited %d: %w", url, exitErr.ExitCode(), ErrTransient)
			}
			// --fail maps HTTP errors >= 400 to exit 22.
			if exitErr.ExitCode() == 22 {
				return nil, &StatusError{URL: url, Code: 400, Body: string(exitErr.Stderr)}
			}
			return nil, fmt.Errorf("curl failed: %s (stderr: %s)", err, string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("curl execution failed: %w", err)
	}
	if len(output) == 0 {
		return nil, fmt.Errorf("curl %s: empty body: %w", url, ErrTransient)
	}
	return output, nil
}
