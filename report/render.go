package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/kbukum/gatewayprobe/errors"
)

// Format selects a renderer.
type Format string

// Supported formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", errors.Configurationf("unknown report format %q (want text, json or yaml)", s)
	}
}

// Render writes r to w in format f.
func Render(w io.Writer, r *Report, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case FormatText, "":
		return renderText(w, r)
	default:
		return fmt.Errorf("report: unknown format %q", f)
	}
}

// WriteFile renders r to path, or to stdout when path is empty.
func WriteFile(r *Report, f Format, path string, stdout io.Writer) (err error) {
	if path == "" {
		return Render(stdout, r, f)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: create %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	return Render(file, r, f)
}

func renderText(w io.Writer, r *Report) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Gateway:   %s\n", r.Endpoint)
	fmt.Fprintf(&b, "Run:       %s\n", r.RunID)
	fmt.Fprintf(&b, "Liveness:  %s\n", r.Liveness)
	if r.Enumeration != nil {
		fmt.Fprintf(&b, "Models:    %s\n", r.Enumeration)
	}

	if len(r.Records) > 0 {
		b.WriteString("\n")
		tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		header := []string{"MODEL"}
		for _, m := range r.Modes {
			header = append(header, strings.ToUpper(string(m)))
		}
		fmt.Fprintln(tw, strings.Join(header, "\t"))
		for _, rec := range r.Records {
			row := []string{rec.Model}
			for _, m := range r.Modes {
				o, ok := rec.Outcome(m)
				if !ok {
					row = append(row, "-")
					continue
				}
				row = append(row, string(o.Kind))
			}
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		b.WriteString("\nDetails:\n")
		for _, rec := range r.Records {
			for _, res := range rec.Results {
				if res.Detail == "" {
					continue
				}
				fmt.Fprintf(&b, "  %s [%s] %s: %s\n", rec.Model, res.Mode, res.Kind, res.Detail)
			}
		}
	}

	b.WriteString("\n")
	if len(r.Compatible) > 0 {
		fmt.Fprintf(&b, "Compatible: %s\n", strings.Join(r.Compatible, ", "))
	} else {
		b.WriteString("Compatible: none\n")
	}
	fmt.Fprintf(&b, "Result:     %s\n", verdict(r))

	_, err := io.WriteString(w, b.String())
	return err
}

func verdict(r *Report) string {
	switch {
	case r.Pass:
		return "PASS"
	case r.Interrupted:
		return "FAIL (interrupted)"
	case !r.Liveness.OK():
		return "FAIL (gateway " + string(r.Liveness.Kind) + ")"
	default:
		return "FAIL"
	}
}

// Summary is a one-line description of r for logs.
func Summary(r *Report) string {
	return fmt.Sprintf("%d models, %d compatible, liveness %s, pass=%t",
		len(r.Records), len(r.Compatible), r.Liveness.Kind, r.Pass)
}
