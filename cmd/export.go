package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jsphweid/chartview/chart"
	"github.com/jsphweid/chartview/logger"
	"github.com/jsphweid/chartview/midi"
	"github.com/jsphweid/chartview/model"
	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2/smf"
)

var (
	exportPage   int
	exportOutput string
)

func init() {
	exportCmd.Flags().IntVarP(&exportPage, "page", "p", 0, "page index to export, -1 for every page")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file name (default derived from the chart name)")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export <chart>",
	Short: "Writes a page as a MIDI file",
	Long:  `Writes the notes and tempo events of a page, or of the whole chart, as a standard MIDI file.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := chart.ReadFile(args[0])
		if err != nil {
			return err
		}
		output := exportOutput
		if output == "" {
			output = exportName(args[0], exportPage)
		}
		return export(c, exportPage, output)
	},
}

func exportName(chartPath string, page int) string {
	base := strings.TrimSuffix(chartPath, filepath.Ext(chartPath))
	if page < 0 {
		return base + ".mid"
	}
	return fmt.Sprintf("%s.page%d.mid", base, page)
}

func export(c *model.Chart, page int, output string) (err error) {
	var s *smf.SMF
	if page < 0 {
		s, err = midi.FromChart(c)
	} else {
		s, err = midi.FromPage(c, page)
	}
	if err != nil {
		return err
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("could not create %v: %w", output, err)
	}
	defer func() {
		closeErr := f.Close()
		if closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	if err := midi.Write(f, s); err != nil {
		return err
	}
	logger.GetLogger().Info("exported", "page", page, "output", output)
	return nil
}
