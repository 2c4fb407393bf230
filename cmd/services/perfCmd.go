package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"github.com/rcrowley/go-metrics"
	"github.com/sfdaemon/dapi/cmd/util"
	"github.com/sfdaemon/dapi/rpc/client"
	"github.com/sfdaemon/dapi/rpc/common"
	"github.com/sfdaemon/dapi/rpc/transport"
	"github.com/sfdaemon/dapi/rpc/transport/base"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"math"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for the daemon connection",
		Args:    cobra.NoArgs,
		PreRunE: processPerfConfig,
		RunE:    withClient(runPerf),
	}
	perfNumThreads = 10
	perfServiceID  = ""
	perfSkip       = make([]string, 0)
)

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. state,list)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of goroutines per CPU to use for the benchmark"))
	key = "service"
	perfTestCmd.Flags().String(key, "", util.WrapString("Service used by the service-state benchmark (default: first listed service)"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	perfNumThreads = viper.GetInt("threads")
	perfServiceID = viper.GetString("service")
	perfSkip = strings.Split(viper.GetString("skip"), ",")
	return nil
}

func runPerf(ctx context.Context, c *client.DaemonClient) error {
	fmt.Println("Performance testing tool for the daemon connection")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Println()

	if perfServiceID == "" {
		services, err := c.ListServices(ctx)
		if err != nil {
			return fmt.Errorf("failed to list services: %w", err)
		}
		if len(services) > 0 {
			perfServiceID = services[0].ID
		}
	}

	fmt.Println("starting tests...")

	benchmarks := []struct {
		name string
		op   func(ctx context.Context) error
	}{
		{"state", func(ctx context.Context) error {
			_, err := c.State(ctx)
			return err
		}},
		{"list", func(ctx context.Context) error {
			_, err := c.ListServices(ctx)
			return err
		}},
		{"service-state", func(ctx context.Context) error {
			if perfServiceID == "" {
				return nil
			}
			_, err := c.ServiceState(ctx, perfServiceID)
			return err
		}},
	}

	results := make(map[string]testing.BenchmarkResult)
	var exhausted, failed atomic.Int64

	for _, bm := range benchmarks {
		result := testing.Benchmark(func(b *testing.B) {
			if shouldSkip(bm.name) {
				return
			}

			b.SetParallelism(perfNumThreads)
			b.ResetTimer()

			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					err := bm.op(context.Background())
					switch {
					case err == nil:
					case errors.Is(err, transport.ErrPoolExhausted):
						exhausted.Add(1)
					default:
						failed.Add(1)
						util.Logger.Debugf("(%s) - error: %v", bm.name, err)
					}
				}
			})
		})
		results[bm.name] = result
		printResult(bm.name, result)
	}

	fmt.Println()
	fmt.Printf("rejected (pool exhausted): %d\n", exhausted.Load())
	fmt.Printf("failed:                    %d\n", failed.Load())

	// Exchange latency as measured by the pool
	if pool, ok := clientTransport.(interface{ Metrics() metrics.Registry }); ok {
		printTimer(pool.Metrics())
	}

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results, util.GetClientConfig()); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\n", test, nsPerOp, time.Duration(nsPerOp), opsPerSec)
}

// printTimer prints the exchange latency distribution recorded by the pool
func printTimer(registry metrics.Registry) {
	timer, ok := registry.Get(base.MetricExchange).(metrics.Timer)
	if !ok || timer.Count() == 0 {
		return
	}
	snapshot := timer.Snapshot()
	ps := snapshot.Percentiles([]float64{0.5, 0.95, 0.99})

	fmt.Println()
	fmt.Println("Exchange latency (pool):")
	fmt.Printf("  count: %d\n", snapshot.Count())
	fmt.Printf("  mean:  %s\n", time.Duration(snapshot.Mean()))
	fmt.Printf("  p50:   %s\n", time.Duration(ps[0]))
	fmt.Printf("  p95:   %s\n", time.Duration(ps[1]))
	fmt.Printf("  p99:   %s\n", time.Duration(ps[2]))
	fmt.Printf("  max:   %s\n", time.Duration(snapshot.Max()))
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult, config *common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "Skipped",
		"Endpoint", "TimeoutSec", "MaxConnections",
		"Serializer", "Transport", "Threads",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	for test, result := range results {
		var nsPerOp float64
		var opsPerSec float64
		skipped := "true"

		if result.NsPerOp() != 0 {
			skipped = "false"
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			skipped,
			config.Endpoint,
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.MaxConnections),
			viper.GetString("serializer"),
			viper.GetString("transport"),
			strconv.Itoa(perfNumThreads),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
