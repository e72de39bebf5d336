package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"donation-flow/internal/validation"
)

func init() {
	rootCmd.AddCommand(phoneCmd)
	phoneCmd.AddCommand(phoneFormatCmd)
}

var phoneCmd = &cobra.Command{
	Use:   "phone",
	Short: "Phone number helpers",
}

var phoneFormatCmd = &cobra.Command{
	Use:     "format NUMBER",
	Short:   "Hyphenate a phone number and check it",
	Example: `  donation-flow phone format 01012345678`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		formatted := validation.FormatPhoneNumber(args[0])
		fmt.Fprintln(cmd.OutOrStdout(), formatted)
		if r := validation.ValidatePhone(formatted); !r.Valid {
			return errors.New(r.Message)
		}
		return nil
	},
}
