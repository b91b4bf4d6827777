package report

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/jderrod/GrantStationTool/internal/search"
)

// Export file names written by Save.
const (
	FilteredFile = "filtered_results.txt"
	AllFile      = "all_results.txt"
	DebugFile    = "debug_log.txt"
	RunFile      = "results.json"
)

// Save writes both text panes, the debug log when there is one, and the run
// itself into dir. Existing files are overwritten.
func Save(dir string, run *search.Run) error {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	files := map[string]string{
		FilteredFile: FilteredText(run),
		AllFile:      AllText(run),
	}
	if trace := run.Trace(); len(trace) > 0 {
		files[DebugFile] = DebugText(trace)
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			return fmt.Errorf("save %s: %w", name, err)
		}
	}
	if err := search.SaveRun(filepath.Join(dir, RunFile), run); err != nil {
		return err
	}

	log.Printf("[Report] Results saved to %s", dir)
	return nil
}
