package stress

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"
)

// Report formats accepted by WriteReport.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// WriteReport writes r to w in the given format.
func WriteReport(w io.Writer, r *Report, format string) error {
	switch format {
	case FormatText, "":
		return writeText(w, r)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		data, err := yaml.Marshal(r)
		if err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("invalid report format %q (expected text, json or yaml)", format)
	}
}

func writeText(w io.Writer, r *Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "run %s\tlock=%s\tallocator=%s\tworkers=%d\n",
		r.RunID, r.Config.Lock, r.Config.Allocator, r.Config.Workers)
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "STATUS\tSCENARIO\tOPS\tINJECTED\tVIOLATIONS\tDURATION")
	for _, res := range r.Results {
		status := "PASS"
		if !res.Passed() {
			status = "FAIL"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n",
			status, res.Scenario, res.Ops, res.Failures, res.ViolationCount, res.Duration.Round(time.Microsecond))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, res := range r.Results {
		if res.Error != "" {
			fmt.Fprintf(w, "%s: %s\n", res.Scenario, res.Error)
		}
		for _, v := range res.Violations {
			fmt.Fprintf(w, "  %s\n", v)
		}
	}

	if len(r.Locks) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "LOCK TIMER\tCOUNT\tMEAN\tP99\tMAX")
		for _, l := range r.Locks {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", l.Name, l.Count,
				time.Duration(l.Mean).Round(time.Nanosecond),
				time.Duration(l.P99).Round(time.Nanosecond),
				time.Duration(l.Max))
		}
	}

	if len(r.Allocators) > 0 {
		names := make([]string, 0, len(r.Allocators))
		for name := range r.Allocators {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "ALLOCATOR\tALLOCS\tDEALLOCS\tCONSTRUCTED\tDESTROYED\tBALANCED")
		for _, name := range names {
			s := r.Allocators[name]
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%v\n",
				name, s.Allocations, s.Deallocations, s.Constructed, s.Destroyed, s.Balanced())
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	verdict := "PASSED"
	if !r.Passed() {
		verdict = "FAILED"
	}
	_, err := fmt.Fprintf(w, "\n%s in %s\n", verdict, r.Duration.Round(time.Millisecond))
	return err
}
