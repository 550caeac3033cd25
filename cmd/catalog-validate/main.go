// Command catalog-validate checks a booking profile catalog and exits
// non-zero when any profile or alias is invalid. CI runs it against
// the catalog file before it is deployed.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"booking_engine/internal/profiles"
	"booking_engine/internal/profiles/catalog"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("catalog-validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	file := fs.String("file", "", "catalog YAML file; the built-in catalog when empty")
	asJSON := fs.Bool("json", false, "print the full report as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	report, err := validate(*file)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			fmt.Fprintf(stderr, "encode report: %v\n", err)
			return 1
		}
	} else {
		printReport(stdout, report)
	}

	if !report.Valid {
		return 1
	}
	return 0
}

// validate decodes the file without building a catalog, so every violation is
// reported instead of the first one that stops the load.
func validate(path string) (catalog.Report, error) {
	if path == "" {
		return profiles.ValidateCatalog(catalog.Default()), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return catalog.Report{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	doc, err := catalog.DecodeDocument(f)
	if err != nil {
		return catalog.Report{}, fmt.Errorf("%s: %w", path, err)
	}
	return catalog.ValidateSet(doc.Profiles, doc.Aliases), nil
}

func printReport(w io.Writer, report catalog.Report) {
	keys := make([]string, 0, len(report.Profiles))
	for key := range report.Profiles {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		res := report.Profiles[key]
		if res.Valid {
			fmt.Fprintf(w, "ok    %s\n", key)
			for _, warning := range res.Warnings {
				fmt.Fprintf(w, "      ! %s\n", warning)
			}
			continue
		}
		fmt.Fprintf(w, "FAIL  %s\n", key)
		for _, e := range res.Errors {
			fmt.Fprintf(w, "      - %s\n", e)
		}
	}
	for _, e := range report.Errors {
		fmt.Fprintf(w, "FAIL  %s\n", e)
	}
	if report.Valid {
		fmt.Fprintf(w, "%d profiles valid\n", len(keys))
	}
}
