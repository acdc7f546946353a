// pkg/setuplog/setuplog.go - collecting SQL Server setup logs into the job output.
//
// See https://learn.microsoft.com/en-us/sql/database-engine/install-windows/view-and-read-sql-server-setup-log-files

package setuplog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/windowsadmins/setup-sqlserver/pkg/logging"
)

// Gatherer finds setup logs under a SQL Server installation root, e.g.
// C:\Program Files\Microsoft SQL Server.
type Gatherer struct {
	root     string
	readFile func(string) ([]byte, error)
}

// New returns a Gatherer for root.
func New(root string) *Gatherer {
	return &Gatherer{root: root, readFile: os.ReadFile}
}

// Gather returns the Summary.txt files of every installed version and, when
// withDetail is set, the most recent Detail.txt.
func (g *Gatherer) Gather(withDetail bool) ([]string, error) {
	// the version directory differs per release (160, 150, ...)
	summaries, err := filepath.Glob(filepath.Join(g.root, "[0-9]*", "Setup Bootstrap", "Log", "Summary.txt"))
	if err != nil {
		return nil, fmt.Errorf("failed to search for summary files: %w", err)
	}
	if len(summaries) > 0 {
		logging.Debug(fmt.Sprintf("Found files: %s", strings.Join(summaries, ", ")))
	} else {
		logging.Notice("No summary files found")
	}
	if !withDetail {
		return summaries, nil
	}

	// detail logs live in a <date>_<time> directory per setup run
	details, err := filepath.Glob(filepath.Join(g.root, "[0-9]*", "Setup Bootstrap", "Log", "[0-9]*_[0-9]*", "Detail.txt"))
	if err != nil {
		return summaries, fmt.Errorf("failed to search for detail files: %w", err)
	}
	if len(details) == 0 {
		logging.Notice("No detail files found")
		return summaries, nil
	}
	sort.Strings(details)
	logging.Debug(fmt.Sprintf("Found detail files: %s", strings.Join(details, ", ")))
	return append(summaries, details[len(details)-1]), nil
}

// Dump reads files concurrently and prints each one in its own group, in order.
func (g *Gatherer) Dump(ctx context.Context, files []string) error {
	contents := make([][]byte, len(files))
	eg, _ := errgroup.WithContext(ctx)
	for i, file := range files {
		i, file := i, file
		eg.Go(func() error {
			data, err := g.readFile(file)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", file, err)
			}
			contents[i] = data
			return nil
		})
	}
	err := eg.Wait()

	for i, file := range files {
		if contents[i] == nil {
			continue
		}
		_ = logging.Group(filepath.Base(file), func() error {
			logging.Print(string(contents[i]))
			return nil
		})
	}
	return err
}

// Finalize gathers and prints the setup logs. Problems are returned joined
// so the caller can log them; they never concern the install itself.
func (g *Gatherer) Finalize(ctx context.Context, withDetail bool) error {
	files, gatherErr := g.Gather(withDetail)
	dumpErr := g.Dump(ctx, files)
	return errors.Join(gatherErr, dumpErr)
}
