package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledgermatch/sheetgate/internal/sheets"
	"github.com/spf13/cobra"
)

var checkKeyCmd = &cobra.Command{
	Use:   "checkkey [file]",
	Short: "Validate and normalize a service-account private key.",
	Long: `Reads a PEM private key from the given file (or stdin), runs the same
normalization the server applies to request-supplied keys, and prints the
canonical PEM form. Mangled keys are the most common import-support problem;
this reproduces exactly what the server would accept or reject.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var raw []byte
		var err error
		if len(args) == 1 {
			raw, err = os.ReadFile(args[0])
		} else {
			raw, err = io.ReadAll(cmd.InOrStdin())
		}
		if err != nil {
			return err
		}

		normalized, err := sheets.NormalizePrivateKey(string(raw))
		if err != nil {
			return &exitError{code: 2, err: fmt.Errorf("key rejected: %w", err)}
		}
		if !strings.HasSuffix(normalized, "\n") {
			normalized += "\n"
		}

		fmt.Fprint(cmd.OutOrStdout(), normalized)
		return nil
	},
}
