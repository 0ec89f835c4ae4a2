package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"calibration-backend/internal/calibration"
	"calibration-backend/internal/client"
)

const requestTimeout = 10 * time.Second

func newAPIClient() *client.Client {
	return client.New(serverURL, requestTimeout, zap.NewNop())
}

var (
	overdueColor   = color.New(color.FgRed, color.Bold)
	actSoonColor   = color.New(color.FgYellow)
	compliantColor = color.New(color.FgGreen)
	terminalColor  = color.New(color.Faint)
)

// bandString renders a band in its traffic-light color.
func bandString(band, label string) string {
	text := band
	if label != "" {
		text = fmt.Sprintf("%s (%s)", band, label)
	}
	switch band {
	case "Overdue":
		return overdueColor.Sprint(text)
	case "ActSoon":
		return actSoonColor.Sprint(text)
	case "Compliant":
		return compliantColor.Sprint(text)
	default:
		return terminalColor.Sprint(text)
	}
}

func printCounts(w io.Writer, counts calibration.BandCounts) {
	fmt.Fprintf(w, "%s %d\n", overdueColor.Sprint("Overdue:  "), counts.Overdue)
	fmt.Fprintf(w, "%s %d\n", actSoonColor.Sprint("Act soon: "), counts.ActSoon)
	fmt.Fprintf(w, "%s %d\n", compliantColor.Sprint("Compliant:"), counts.Compliant)
}

func printInstruments(w io.Writer, insts []client.Instrument) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNUMBER\tNAME\tFREQUENCY\tNEXT DUE\tBAND")
	for _, inst := range insts {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			inst.RegistryID, inst.InstrumentNumber, inst.InstrumentName, inst.Frequency, inst.NextDueDate,
			bandString(inst.Band, inst.Label))
	}
	return tw.Flush()
}

func printCycles(w io.Writer, cycles []client.Cycle) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LOGGED\tNUMBER\tCALIBRATED\tDUE\tCOMPLETED ON\tCERTIFICATE\tBY")
	for _, c := range cycles {
		cert := "-"
		if c.CertificateNumber != nil {
			cert = *c.CertificateNumber
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			c.EntryTimestamp.UTC().Format(time.RFC3339), c.InstrumentNumber, c.CalibrationDate, c.NextDueDate,
			c.CompletedOn, cert, c.PerformedBy)
	}
	return tw.Flush()
}

func NewCountsCommand() *cobra.Command {
	var now string
	cmd := &cobra.Command{
		Use:     "counts",
		GroupID: gClient,
		Short:   "Show how many active instruments fall in each compliance band",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			counts, err := newAPIClient().Counts(cmd.Context(), now)
			if err != nil {
				return err
			}
			printCounts(cmd.OutOrStdout(), counts)
			return nil
		},
	}
	cmd.Flags().StringVar(&now, "now", "", "classify as of this day (YYYY-MM-DD, default today)")
	return cmd
}

func NewWorklistCommand() *cobra.Command {
	var (
		now    string
		status string
	)
	cmd := &cobra.Command{
		Use:     "worklist",
		GroupID: gClient,
		Short:   "List instruments with their compliance band",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			insts, err := newAPIClient().Instruments(cmd.Context(), status, now)
			if err != nil {
				return err
			}
			return printInstruments(cmd.OutOrStdout(), insts)
		},
	}
	cmd.Flags().StringVar(&now, "now", "", "classify as of this day (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&status, "status", "active", "all, active or obsolete")
	return cmd
}

func NewRegisterCommand() *cobra.Command {
	var (
		in   calibration.NewInstrument
		cert string
	)
	cmd := &cobra.Command{
		Use:     "register",
		GroupID: gClient,
		Short:   "Register a new instrument",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cert != "" {
				in.CertificateNumber = &cert
			}
			inst, err := newAPIClient().Register(cmd.Context(), in)
			if err != nil {
				return err
			}
			cmd.Printf("registered %s as #%d, next due %s\n", inst.InstrumentNumber, inst.RegistryID, inst.NextDueDate)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.InstrumentNumber, "number", "", "instrument number (unique)")
	f.StringVar(&in.InstrumentName, "name", "", "instrument name")
	f.StringVar(&in.EquipmentSerialNo, "serial", "", "equipment serial number")
	f.StringVar(&in.Make, "make", "", "manufacturer")
	f.StringVar(&in.ModelNumber, "model", "", "model number")
	f.StringVar(&in.CalibrationDate, "calibrated", "", "last calibration date (YYYY-MM-DD)")
	f.StringVar(&in.Frequency, "frequency", "", "Monthly, BiMonthly, Quarterly, HalfYearly, Yearly or BiYearly")
	f.StringVar(&in.PerformedBy, "by", "", "who performed the calibration")
	f.StringVar(&cert, "certificate", "", "certificate number of the current cycle")
	return cmd
}

func NewCompleteCommand() *cobra.Command {
	var (
		in   calibration.CompletionInput
		cert string
	)
	cmd := &cobra.Command{
		Use:     "complete <registry-id>",
		GroupID: gClient,
		Short:   "Record a completed calibration and open the next cycle",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid registry id %q", args[0])
			}
			if cert != "" {
				in.CertificateNumber = &cert
			}

			done, err := newAPIClient().Complete(cmd.Context(), id, in)
			if err != nil {
				return err
			}
			cmd.Printf("%s archived as %s; next due %s %s\n",
				done.Instrument.InstrumentNumber, done.HistoryEntry.EntryID, done.Instrument.NextDueDate,
				bandString(done.Instrument.Band, done.Instrument.Label))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.CalibrationDate, "calibrated", "", "calibration date (YYYY-MM-DD)")
	f.StringVar(&in.Frequency, "frequency", "", "frequency of the new cycle")
	f.StringVar(&in.PerformedBy, "by", "", "who performed the calibration")
	f.StringVar(&cert, "certificate", "", "certificate number of the new cycle")
	return cmd
}

func NewHistoryCommand() *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:     "history",
		GroupID: gClient,
		Short:   "List ledger entries logged between two days (inclusive)",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cycles, err := newAPIClient().History(cmd.Context(), from, to)
			if err != nil {
				return err
			}
			return printCycles(cmd.OutOrStdout(), cycles)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last day (YYYY-MM-DD)")
	return cmd
}
