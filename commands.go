package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/giygas/rxcomposer/entities"
	"github.com/giygas/rxcomposer/export"
	"github.com/giygas/rxcomposer/logging"
	"github.com/giygas/rxcomposer/session"
	"github.com/giygas/rxcomposer/suggest"
	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOut    string
	interactive  bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the current prescription as csv, xlsx, pdf, json or html",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := cmd.Context()
		sess := newSession(ctx, store)
		sess.AssignPatientID()
		return writeExport(ctx, sess, exportFormat, exportOut, cmd.OutOrStdout())
	},
}

var suggestCmd = &cobra.Command{
	Use:   "suggest [query]",
	Short: "List reference medicines matching a query",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		dc, err := loadReference(ctx)
		if err != nil {
			return err
		}
		matcher := suggest.NewMatcher(dc)

		if !interactive {
			out := cmd.OutOrStdout()
			for _, m := range matcher.Match(strings.Join(args, " ")) {
				fmt.Fprintln(out, describe(m))
			}
			return nil
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		sess := newSession(ctx, store)
		return runComposer(ctx, matcher, sess, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "csv, xlsx, pdf, json or html")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file, a directory, or - for stdout (default: generated name in the working directory)")
	suggestCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "compose lines from stdin with a live candidate list")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(suggestCmd)
}

func writeExport(ctx context.Context, sess *session.Session, format, out string, stdout io.Writer) error {
	rec := sess.Record()

	var (
		name  string
		write func(io.Writer) error
	)
	switch format {
	case "csv":
		name = export.CSVFilename(rec)
		write = func(w io.Writer) error { return export.WriteCSV(w, rec) }
	case "xlsx":
		name = export.XLSXFilename(rec)
		write = func(w io.Writer) error { return export.WriteXLSX(w, rec) }
	case "pdf":
		name = export.PDFFilename(rec)
		renderer := export.NewPDFRenderer(cfg.PDFFontPath)
		write = func(w io.Writer) error { return renderer.WritePDF(w, rec) }
	case "html":
		name = "prescription_" + rec.Patient.ID + ".html"
		write = func(w io.Writer) error { return export.WritePrintHTML(w, rec) }
	case "json":
		name = export.BundleFilename
		write = func(w io.Writer) error {
			body, err := sess.ExportBundle(ctx)
			if err != nil {
				return err
			}
			_, err = w.Write(body)
			return err
		}
	default:
		return fmt.Errorf("unknown export format %q", format)
	}

	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return fmt.Errorf("rendering %s: %w", format, err)
	}

	if out == "-" {
		_, err := buf.WriteTo(stdout)
		return err
	}

	path := out
	if path == "" {
		path = name
	} else if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, name)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	logging.Info("Export written", "format", format, "path", path)
	fmt.Fprintln(stdout, path)
	return nil
}

func describe(m entities.Medicine) string {
	return strings.TrimSpace(m.Name + " " + m.Strength + " " + m.Form)
}

// Layout used to place the candidate list in a terminal session.
type fixedGeometry struct{}

func (fixedGeometry) Anchor() suggest.Rect    { return suggest.Rect{Left: 16, Top: 40, Width: 320, Height: 24} }
func (fixedGeometry) Container() suggest.Rect { return suggest.Rect{Width: 960, Height: 720} }

// focusTracker records which input receives typed text.
type focusTracker struct {
	target string
	item   int
}

func (f *focusTracker) FocusInput()     { f.target = "name" }
func (f *focusTracker) FocusDosage()    { f.target = "dosage" }
func (f *focusTracker) FocusItem(i int) { f.target, f.item = "item", i }

// runComposer drives a suggestion box from line input. Plain lines type into
// the focused field; lines starting with ':' are keys and commands.
func runComposer(ctx context.Context, matcher *suggest.Matcher, sess *session.Session, in io.Reader, out io.Writer) error {
	var (
		name, dosage suggest.TextField
		draft        entities.Draft
		focus        = &focusTracker{target: "name"}
	)

	box := suggest.NewBox(matcher, suggest.BoxOptions{
		Name:      &name,
		Dosage:    &dosage,
		Focus:     focus,
		Geometry:  fixedGeometry{},
		Debouncer: suggest.NewDebouncer(cfg.SuggestDebounce, nil),
		Render: func(v suggest.View) {
			if !v.Visible {
				fmt.Fprintln(out, "  (list closed)")
				return
			}
			for i, m := range v.Items {
				marker := " "
				if i == v.Focused {
					marker = ">"
				}
				fmt.Fprintf(out, "%s %d. %s\n", marker, i+1, describe(m))
			}
		},
		OnSelect: func(m entities.Medicine) {
			fmt.Fprintf(out, "selected %s\n", m.Name)
		},
	})

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())

		if !strings.HasPrefix(line, ":") {
			if focus.target == "dosage" {
				dosage.SetValue(line)
				continue
			}
			name.SetValue(line)
			focus.FocusInput()
			box.Input(line)
			box.Flush()
			continue
		}

		cmd, arg, _ := strings.Cut(line[1:], " ")
		arg = strings.TrimSpace(arg)
		switch cmd {
		case "down":
			box.KeyDown(suggest.KeyArrowDown)
		case "up":
			box.KeyDown(suggest.KeyArrowUp)
		case "enter":
			box.KeyDown(suggest.KeyEnter)
		case "esc":
			box.KeyDown(suggest.KeyEscape)
		case "pick":
			n, err := strconv.Atoi(arg)
			if err != nil || !box.Click(n-1) {
				fmt.Fprintf(out, "no candidate %q\n", arg)
			}
		case "type", "timings", "days", "remarks":
			setDraftField(&draft, cmd, arg)
		case "add":
			draft.Name = name.Value()
			draft.Dosage = dosage.Value()
			entry, err := sess.Cart.Add(ctx, draft)
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			fmt.Fprintf(out, "added %s %s\n", entry.Name, entry.Dosage)
			name.SetValue("")
			dosage.SetValue("")
			draft = entities.Draft{}
			box.Input("")
			focus.FocusInput()
		case "cart":
			for i, e := range sess.Cart.Snapshot() {
				fmt.Fprintf(out, "%d. %s %s %s %s %s\n", i+1, e.Type, e.Name, e.Dosage, e.Timings, e.Days)
			}
		case "quit":
			return nil
		default:
			fmt.Fprintf(out, "unknown command :%s\n", cmd)
		}

		for _, n := range sess.DrainNotices() {
			fmt.Fprintf(out, "notice: %s\n", n)
		}
	}
	return scanner.Err()
}

func setDraftField(d *entities.Draft, field, value string) {
	switch field {
	case "type":
		d.Type = value
	case "timings":
		d.Timings = value
	case "days":
		d.Days = value
	case "remarks":
		d.Remarks = value
	}
}
