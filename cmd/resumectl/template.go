package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"jobassist-backend/internal/record"
	"jobassist-backend/internal/shared/config"
)

func newTemplateCmd(load func() config.Config) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Print the active résumé schema template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = load().SchemaTemplatePath
			}
			tpl, err := record.LoadTemplate(path)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), statusLine("source:", tpl.Source))
			fmt.Fprintln(cmd.ErrOrStderr(), statusLine("sections:", fmt.Sprintf("%v", tpl.Schema.Sections())))
			_, err = fmt.Fprint(cmd.OutOrStdout(), tpl.Text)
			return err
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "template file (default SCHEMA_TEMPLATE_PATH or the embedded template)")
	return cmd
}
