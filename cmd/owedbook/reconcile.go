package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gyeh/owedbook/internal/exitcode"
	"github.com/gyeh/owedbook/internal/normalize"
	"github.com/gyeh/owedbook/internal/reconcile"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Print reconciled claims, KPIs and the payer summary",
	Args:  cobra.NoArgs,
	RunE:  runReconcile,
}

var (
	reconcileQuery  queryFlags
	reconcileFormat string
)

func init() {
	reconcileQuery.register(reconcileCmd.Flags(), true)
	reconcileCmd.Flags().StringVar(&reconcileFormat, "format", "table", "Output format: table or json")
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	log := setupLog()
	ctx := context.Background()

	q, err := reconcileQuery.query()
	if err != nil {
		fail(log, exitcode.UsageError, err, "invalid filters")
	}

	pool, st := connect(ctx, log)
	defer pool.Close()
	svc := newServices(st, log)

	if err := svc.tracker.Heal(ctx, nil); err != nil {
		fail(log, exitcode.ExportError, err, "self-heal failed")
	}
	res, err := svc.engine.Run(ctx, q)
	if err != nil {
		fail(log, exitcode.DBConnError, err, "reconciliation failed")
	}

	if reconcileFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	printResult(res)
	return nil
}

func printResult(res *reconcile.Result) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Date\tScript\tNDC\tDrug\tQty\tRate\tMethod\tExpected\tPaid\tNew Paid\tDifference\tUpd Diff\tPBM\tStatus\t")
	for _, r := range res.Rows {
		newPaid := ""
		if r.NewPaid != nil {
			newPaid = fmt.Sprintf("%.2f", *r.NewPaid)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%g\t%.4f\t%s\t%.2f\t%.2f\t%s\t%.2f\t%.2f\t%s\t%s\t\n",
			normalize.FormatDate(r.Date), r.Script, r.NDC, r.Drug, r.Qty, r.Rate, r.Method,
			normalize.Round2(r.Expected), r.TotalPaid, newPaid, normalize.Round2(r.Difference),
			normalize.Round2(r.UpdatedDifference), r.Payer, r.Status.Label())
	}
	tw.Flush()

	k := res.KPIs
	fmt.Printf("\n%d of %d rows\n", len(res.Rows), res.Total)
	fmt.Printf("Underpaid total:         %10.2f\n", k.UnderpaidTotal)
	fmt.Printf("Number of scripts:       %10d\n", k.ScriptCount)
	fmt.Printf("Updated difference:      %10.2f\n", k.UpdatedDifferenceTotal)
	fmt.Printf("Owed:                    %10.2f\n", k.Owed)
	fmt.Printf("Underpaid (all payers):  %10.2f\n", k.UnderpaidAll)
	fmt.Printf("Net owed (commercial):   %10.2f\n", k.OwedNetCommercial)
	fmt.Printf("Net owed (all payers):   %10.2f\n", k.OwedNetAll)

	fmt.Println()
	tw = tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "PBM\tCommercial\tFederal\t")
	for _, l := range append(res.Summary.Lines, res.Summary.Total) {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t\n", l.Payer, l.Commercial, l.Federal)
	}
	tw.Flush()
}
