package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"donation-flow/internal/format"
	"donation-flow/internal/history"
	"donation-flow/internal/model"
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyFindCmd)
	historyCmd.AddCommand(historyListCmd)

	historyFindCmd.Flags().StringP("name", "n", "", "Donor name (exact match)")
	historyFindCmd.Flags().String("contact", "", "Donor email or phone number")
	historyFindCmd.MarkFlagRequired("name")
	historyFindCmd.MarkFlagRequired("contact")
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the donation history",
}

var historyFindCmd = &cobra.Command{
	Use:   "find",
	Short: "Find donations by donor name and contact",
	Long: `Find donations whose donor name matches exactly and whose email or
phone matches the contact. Phone numbers match with or without hyphens.`,
	Example: `  donation-flow history find --name 김민지 --contact 010-1234-5678`,
	RunE:    runHistoryFind,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every recorded donation, newest first",
	RunE:  runHistoryList,
}

func openHistory(cmd *cobra.Command) (*history.Store, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	log := cliLogger()
	store, closeStore, err := openDurableStore(cmd.Context(), cfg.Storage, log)
	if err != nil {
		return nil, nil, err
	}
	return history.New(store, log), closeStore, nil
}

func runHistoryFind(cmd *cobra.Command, _ []string) error {
	name, _ := cmd.Flags().GetString("name")
	contact, _ := cmd.Flags().GetString("contact")
	if strings.TrimSpace(name) == "" || strings.TrimSpace(contact) == "" {
		return fmt.Errorf("both --name and --contact are required")
	}

	hist, closeStore, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	records := hist.Find(cmd.Context(), name, contact)
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No donations found.")
		return nil
	}
	return printRecords(cmd.OutOrStdout(), records)
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	hist, closeStore, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	records := hist.All(cmd.Context())
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No donations recorded.")
		return nil
	}
	return printRecords(cmd.OutOrStdout(), records)
}

func printRecords(out io.Writer, records []model.DonationRecord) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tCERTIFICATE\tDONOR\tTYPE\tAMOUNT\tMISSIONS")
	for _, r := range records {
		names := make([]string, 0, len(r.SelectedMissions))
		for _, slug := range r.SelectedMissions {
			name := model.MissionName(string(slug))
			if pct, ok := r.Distribution[slug]; ok && len(r.SelectedMissions) > 1 {
				name = fmt.Sprintf("%s %d%%", name, pct)
			}
			names = append(names, name)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Date,
			r.CertificateNumber,
			r.DonorName,
			r.DonationType.Label(),
			format.Currency(r.Amount),
			strings.Join(names, ", "),
		)
	}
	return w.Flush()
}
