package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"jobassist-backend/internal/bootstrap"
	"jobassist-backend/internal/extract"
	"jobassist-backend/internal/record"
	"jobassist-backend/internal/resumes"
	"jobassist-backend/internal/shared/config"
)

type parseOptions struct {
	mode   string
	format string
	save   bool
	user   string
}

func (o parseOptions) validate() error {
	switch o.mode {
	case "", config.ParserModeModel, config.ParserModeHeuristic:
	default:
		return fmt.Errorf("--mode must be %q or %q", config.ParserModeHeuristic, config.ParserModeModel)
	}
	switch o.format {
	case "yaml", "json":
	default:
		return fmt.Errorf("--format must be yaml or json")
	}
	if o.save && strings.TrimSpace(o.user) == "" {
		return errors.New("--save requires --user")
	}
	return nil
}

func newParseCmd(load func() config.Config) *cobra.Command {
	opts := parseOptions{}
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Extract and structure a PDF or DOCX résumé",
		Args:  cobra.ExactArgs(1),
		Example: `  resumectl parse ./cv.pdf
  resumectl parse ./cv.docx --mode model --format json
  resumectl parse ./cv.pdf --save --user google:123`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			cfg := load()
			if opts.mode != "" {
				cfg.ParserMode = opts.mode
			}
			app, err := bootstrap.BuildContext(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer app.Close()
			return runParse(cmd.Context(), app.ResumeService, args[0], opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVar(&opts.mode, "mode", "", "parser strategy: heuristic or model (default from PARSER_MODE)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "yaml", "output format: yaml or json")
	cmd.Flags().BoolVar(&opts.save, "save", false, "store the record for --user in the configured docstore")
	cmd.Flags().StringVar(&opts.user, "user", "", "user id the record is saved under")
	return cmd
}

func runParse(ctx context.Context, svc *resumes.Service, path string, opts parseOptions, out, status io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	result, err := svc.Parse(ctx, opts.user, extract.Upload{Data: data, FileName: filepath.Base(path)}, opts.save)
	if err != nil {
		return err
	}

	fmt.Fprintln(status, titleStyle.Render(filepath.Base(path)))
	fmt.Fprintln(status, statusLine("mode:", string(result.Mode)))
	fmt.Fprintln(status, statusLine("fields:", fmt.Sprintf("%d", result.Record.Len())))
	if result.Saved {
		fmt.Fprintln(status, statusLine("saved for:", opts.user))
	}
	return renderRecord(out, result.Record, opts.format)
}

func renderRecord(w io.Writer, rec *record.Record, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}
	text, err := rec.YAML()
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, text)
	return err
}
