package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jsphweid/chartview/chart"
	"github.com/jsphweid/chartview/model"
	"github.com/jsphweid/chartview/viewer"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	inspectPage   int
	inspectPretty bool
)

func init() {
	inspectCmd.Flags().IntVarP(&inspectPage, "page", "p", 0, "page index to show")
	inspectCmd.Flags().BoolVar(&inspectPretty, "pretty", false, "indent output even when not writing to a terminal")
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <chart>",
	Short: "Prints the notes and tempos of a page",
	Long: `Prints the notes and tempo events of one page of a chart as JSON,
followed by anything suspicious found in the chart.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := chart.ReadFile(args[0])
		if err != nil {
			return err
		}
		return inspect(cmd.OutOrStdout(), cmd.ErrOrStderr(), c, inspectPage, inspectPretty || isTerminal(cmd.OutOrStdout()))
	},
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func inspect(out, errOut io.Writer, c *model.Chart, page int, pretty bool) error {
	enc := json.NewEncoder(out)
	if pretty {
		enc.SetIndent("", "  ")
	}
	view := viewer.Render(c, page)
	if err := enc.Encode(view); err != nil {
		return fmt.Errorf("could not encode page %d: %w", page, err)
	}

	for _, issue := range chart.Lint(c) {
		fmt.Fprintln(errOut, issue)
	}

	p := message.NewPrinter(language.English)
	p.Fprintf(errOut, "page %d of %d: %d of %d notes, %d of %d tempos\n",
		page, len(c.PageList), len(view.Notes), len(c.NoteList), len(view.Tempos), len(c.TempoList))
	return nil
}
