package pipeline

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/contact-cli/internal/model"
)

// Report is the YAML document written at the end of a run.
type Report struct {
	RunID     string            `yaml:"run_id"`
	Kind      string            `yaml:"kind"`
	Status    model.RunStatus   `yaml:"status"`
	CreatedAt time.Time         `yaml:"created_at"`
	Summary   *model.RunSummary `yaml:"summary,omitempty"`
	Outputs   map[string]string `yaml:"outputs,omitempty"`
}

// NewReport builds a report for run. outputs maps table names to the files
// they were written to.
func NewReport(run *model.Run, outputs map[string]string) Report {
	return Report{
		RunID:     run.ID,
		Kind:      run.Kind,
		Status:    run.Status,
		CreatedAt: run.CreatedAt,
		Summary:   run.Summary,
		Outputs:   outputs,
	}
}

// WriteReport writes r as YAML to path.
func WriteReport(path string, r Report) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return eris.Wrap(err, "report: marshal")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrap(err, "report: write")
	}
	return nil
}

// FormatSummary renders a short human-readable summary of a run.
func FormatSummary(s model.RunSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Organizations: %d\n", s.Organizations)
	if s.Websites > 0 {
		fmt.Fprintf(&b, "Websites crawled: %d (%d pages, %d re-crawl passes)\n", s.Websites, s.Pages, s.Iterations)
	}
	if s.CapReached {
		fmt.Fprintf(&b, "Still missing email or phone: %d\n", len(s.StillMissing))
	}
	if s.Contacts > 0 || s.MapsContacts > 0 {
		fmt.Fprintf(&b, "Contacts: %d scraped, %d from places\n", s.Contacts, s.MapsContacts)
	}

	if len(s.Statuses) > 0 {
		keys := make([]string, 0, len(s.Statuses))
		for k := range s.Statuses {
			keys = append(keys, string(k))
		}
		sort.Strings(keys)

		b.WriteString("Statuses:\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "  %s: %d\n", k, s.Statuses[model.MatchStatus(k)])
		}
	}
	fmt.Fprintf(&b, "Duration: %s\n", s.Duration.Round(time.Millisecond))
	return b.String()
}
