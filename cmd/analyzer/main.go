package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"flowlog-analyzer/internal/exporter"
	"flowlog-analyzer/internal/model"
	"flowlog-analyzer/internal/runner"
	"flowlog-analyzer/internal/store"
	"flowlog-analyzer/pkg/wellknown"
)

var (
	accountName  string
	displayLB    bool
	showAllowed  bool
	direction    string
	hours        int
	minutes      int
	onlyNonZero  bool
	noCounters   bool
	flowState    string
	ipFilter     string
	ip2Filter    string
	portFilter   string
	protoFilter  string
	resourceName string
	mode         string
	vnetFlowLogs bool
	showTotals   bool
	noOutput     bool
	workers      int
	outFile      string
	exportDB     string
	logLevel     string
	logFile      string
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "flowlog-analyzer",
		Short: "Retrieve and filter NSG flow logs and firewall logs from a storage account",
		Long: `flowlog-analyzer downloads the most recent NSG/VNet flow-log and Azure
	Firewall blobs from a storage account, decodes all supported schema
	versions into one tabular view, and applies the requested filters.`,
		RunE: run,
	}

	rootCmd.Flags().StringVar(&accountName, "account-name", "", "Storage account name (or set STORAGE_ACCOUNT_NAME)")
	rootCmd.Flags().BoolVar(&displayLB, "display-lb", false, "Display flows generated by the Azure load balancer")
	rootCmd.Flags().BoolVar(&showAllowed, "display-allowed", false, "Display allowed flows as well, not only denied ones")
	rootCmd.Flags().StringVar(&direction, "display-direction", "in", "Display flows in a specific direction: in, out or both")
	rootCmd.Flags().IntVar(&hours, "display-hours", 1, "How many hourly blobs to look back per resource")
	rootCmd.Flags().IntVar(&minutes, "display-minutes", 0, "Only display flows more recent than this many minutes (0: unlimited)")
	rootCmd.Flags().BoolVar(&onlyNonZero, "only-non-zero", false, "Display only flows with all packet/byte counters present")
	rootCmd.Flags().BoolVar(&noCounters, "no-counters", false, "Do not display packet/byte counter columns")
	rootCmd.Flags().StringVar(&flowState, "flow-state", "", "Filter to a specific v2 flow state (B/C/E)")
	rootCmd.Flags().StringVar(&ipFilter, "ip", "", "Filter to a specific IP address")
	rootCmd.Flags().StringVar(&ip2Filter, "ip2", "", "Additional IP address filter (with --ip: match the pair)")
	rootCmd.Flags().StringVar(&portFilter, "port", "", "Filter to a specific destination port")
	rootCmd.Flags().StringVar(&protoFilter, "protocol", "", "Filter to a specific protocol (T/U/I)")
	rootCmd.Flags().StringVar(&resourceName, "resource-name", "", "Filter to a specific NSG or firewall")
	rootCmd.Flags().StringVar(&mode, "mode", "nsg", "Log sources to analyze: nsg, fw or both")
	rootCmd.Flags().BoolVar(&vnetFlowLogs, "vnet-flow-logs", false, "Analyze VNet flow logs instead of NSG flow logs")
	rootCmd.Flags().BoolVar(&showTotals, "aggregate", false, "Print byte/packet count aggregates")
	rootCmd.Flags().BoolVar(&noOutput, "no-output", false, "Do not print the record table")
	rootCmd.Flags().IntVarP(&workers, "workers", "w", runtime.NumCPU(), "Number of concurrent blob fetches")
	rootCmd.Flags().StringVar(&outFile, "out", "", "Optional output CSV file")
	rootCmd.Flags().StringVar(&exportDB, "db", "", "Optional MariaDB DSN to export filtered records to")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "Log file path (default: stderr)")

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	logger := setupLogger(logLevel, logFile).With("run_id", uuid.NewString())
	slog.SetDefault(logger)

	opts := &model.Options{
		Hours:            hours,
		Minutes:          minutes,
		ShowAllowed:      showAllowed,
		ShowLoadBalancer: displayLB,
		OnlyNonZero:      onlyNonZero,
		NoCounters:       noCounters,
		Aggregate:        showTotals,
		VNetFlowLogs:     vnetFlowLogs,
		DirectionFilter:  direction,
		FlowStateFilter:  flowState,
		IPFilter:         ipFilter,
		IP2Filter:        ip2Filter,
		PortFilter:       portFilter,
		ProtocolFilter:   protoFilter,
		ResourceName:     resourceName,
		Mode:             mode,
	}
	if err := opts.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		return err
	}

	account, key, err := storageCredentials()
	if err != nil {
		slog.Error("Missing storage credentials", "error", err)
		return err
	}

	slog.Info("Starting flow log analysis", "account", account, "mode", opts.Mode,
		"hours", opts.Hours, "direction", opts.DirectionFilter, "workers", workers)
	startTime := time.Now()

	blobStore, err := store.NewAzureStore(account, key)
	if err != nil {
		slog.Error("Could not connect to storage account", "account", account, "error", err)
		return err
	}

	r := &runner.Runner{Store: blobStore, Workers: workers}
	result, err := r.Run(context.Background(), opts)
	if err != nil {
		slog.Error("Analysis failed", "error", err)
		return err
	}
	slog.Info("Analysis complete", "records", len(result.Records), "duration", time.Since(startTime))

	if len(result.Records) == 0 {
		fmt.Println("No logs satisfy your filters, try other options")
		return nil
	}

	if !noOutput {
		writeTable(os.Stdout, result.Records, opts)
	}
	if opts.Aggregate {
		writeTotals(os.Stdout, result.Totals)
	}
	if outFile != "" {
		if err := writeCSV(outFile, result.Records, opts); err != nil {
			slog.Error("Could not write CSV output", "path", outFile, "error", err)
			return err
		}
		slog.Info("CSV output written", "path", outFile)
	}
	if exportDB != "" {
		exp, err := exporter.NewMariaDBExporter(exportDB)
		if err != nil {
			slog.Error("Could not connect to export database", "error", err)
			return err
		}
		defer exp.Close()
		if err := exp.Export(context.Background(), result.Records); err != nil {
			slog.Error("Database export failed", "error", err)
			return err
		}
		slog.Info("Records exported to database", "count", len(result.Records))
	}
	return nil
}

// storageCredentials resolves the account name (flag or environment) and the
// shared key (environment only, it is a secret).
func storageCredentials() (account, key string, err error) {
	viper.AutomaticEnv()
	account = accountName
	if account == "" {
		account = viper.GetString("STORAGE_ACCOUNT_NAME")
	}
	if account == "" {
		return "", "", fmt.Errorf("no storage account given: use --account-name or set STORAGE_ACCOUNT_NAME")
	}
	key = viper.GetString("STORAGE_ACCOUNT_KEY")
	if key == "" {
		return "", "", fmt.Errorf("the environment variable STORAGE_ACCOUNT_KEY is not set")
	}
	return account, key, nil
}

func setupLogger(level, logFilePath string) *slog.Logger {
	var logWriter io.Writer = os.Stderr
	if logFilePath != "" {
		f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err == nil {
			logWriter = f
		}
		// No logging here: the logger is not set up yet, so a bad path just
		// falls back to stderr.
	}

	var lvl slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		lvl = slog.LevelDebug
	case "INFO":
		lvl = slog.LevelInfo
	case "WARN":
		lvl = slog.LevelWarn
	case "ERROR":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(logWriter, &slog.HandlerOptions{Level: lvl}))
}

func recordHeader(opts *model.Options) []string {
	header := []string{"timestamp", "type", "resource", "rule", "src_ip", "src_port",
		"dst_ip", "dst_port", "protocol", "direction", "action", "state"}
	if !opts.NoCounters {
		header = append(header, "packets_src_to_dst", "bytes_src_to_dst",
			"packets_dst_to_src", "bytes_dst_to_src")
	}
	return header
}

func recordRow(rec *model.FlowRecord, opts *model.Options, annotatePorts bool) []string {
	dstPort := rec.DstPort
	if annotatePorts {
		if name, ok := wellknown.ServiceName(dstPort); ok {
			dstPort = fmt.Sprintf("%s (%s)", dstPort, name)
		}
	}
	row := []string{
		rec.Timestamp.UTC().Format(time.RFC3339),
		string(rec.Source),
		rec.Resource,
		rec.Rule,
		rec.SrcIP,
		rec.SrcPort,
		rec.DstIP,
		dstPort,
		rec.Protocol,
		string(rec.Direction),
		string(rec.Action),
		string(rec.State),
	}
	if !opts.NoCounters {
		row = append(row, counterCell(rec.PacketsSrcToDst), counterCell(rec.BytesSrcToDst),
			counterCell(rec.PacketsDstToSrc), counterCell(rec.BytesDstToSrc))
	}
	return row
}

// counterCell renders an absent counter as an empty cell, not as zero.
func counterCell(v *uint64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%d", *v)
}

func writeTable(w io.Writer, records []model.FlowRecord, opts *model.Options) {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(recordHeader(opts), "\t"))
	for i := range records {
		fmt.Fprintln(tw, strings.Join(recordRow(&records[i], opts, true), "\t"))
	}
	tw.Flush()
}

func writeTotals(w io.Writer, totals model.Totals) {
	fmt.Fprintf(w, "packets_src_to_dst: %d\n", totals.PacketsSrcToDst)
	fmt.Fprintf(w, "bytes_src_to_dst:   %d\n", totals.BytesSrcToDst)
	fmt.Fprintf(w, "packets_dst_to_src: %d\n", totals.PacketsDstToSrc)
	fmt.Fprintf(w, "bytes_dst_to_src:   %d\n", totals.BytesDstToSrc)
}

func writeCSV(path string, records []model.FlowRecord, opts *model.Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create output file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	if err := writer.Write(recordHeader(opts)); err != nil {
		return err
	}
	for i := range records {
		if err := writer.Write(recordRow(&records[i], opts, false)); err != nil {
			return err
		}
	}
	return nil
}
