package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer one question from the command line",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		question := strings.Join(args, " ")
		ans := e.Pipeline.Answer(cmd.Context(), question)

		if askJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return eris.Wrap(enc.Encode(ans), "ask: encode answer")
		}

		fmt.Println(ans.AnswerText)
		if len(ans.Citations) > 0 {
			fmt.Println("\nSources:")
			for _, c := range ans.Citations {
				fmt.Printf("  - %s (%s)\n", c.DatasetTitle, c.Publisher)
			}
		}
		if ans.ErrorKind != "" {
			fmt.Printf("\n[%s]\n", ans.ErrorKind)
		}
		return nil
	},
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "emit the full answer as JSON")
	rootCmd.AddCommand(askCmd)
}
