// cmd/experiment is the batch harness: it runs each configuration (from a
// YAML file, or the built-in defaults) 100 times, measures restore
// accuracy, and writes a semicolon-separated summary CSV mirroring
// simulation_runner.py's summary_accuracy.csv contract.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"filestore-consensus/internal/experiment"
)

const trialsPerConfig = 100

func main() {
	configPath := flag.String("config", "", "YAML batch configuration file (defaults to the built-in table)")
	outDir := flag.String("out-dir", "simulation_results", "directory to write summary.csv into")
	flag.Parse()

	configs, err := loadConfigs(*configPath)
	if err != nil {
		log.Fatalf("load configs: %v", err)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("create output directory: %v", err)
	}

	rows := make([][]string, 0, len(configs)+1)
	rows = append(rows, []string{
		"Config", "retry_limit", "retry_period_ms", "ack_timeout_ms",
		"failure_probs", "recovery_delays", "weights", "restore_accuracy",
	})

	for _, cfg := range configs {
		log.Printf("running configuration: %s", cfg.Name)
		successes := 0
		for i := 0; i < trialsPerConfig; i++ {
			restored, expected, err := experiment.Run(cfg, int64(i+1), 3)
			if err != nil {
				log.Printf("configuration %s trial %d: %v", cfg.Name, i, err)
				continue
			}
			if restored != nil && restored.Version == expected.Version {
				successes++
			}
		}
		accuracy := float64(successes) / float64(trialsPerConfig)

		rows = append(rows, []string{
			cfg.Name,
			strconv.Itoa(cfg.RetryLimit),
			strconv.Itoa(cfg.RetryPeriodMs),
			strconv.Itoa(cfg.AckTimeoutMs),
			formatFailureProbs(cfg.Replicas),
			formatRecoveryDelays(cfg.Replicas),
			formatWeights(cfg.Replicas),
			strconv.FormatFloat(accuracy, 'f', 3, 64),
		})
	}

	outPath := filepath.Join(*outDir, "summary.csv")
	if err := writeCSV(outPath, rows); err != nil {
		log.Fatalf("write summary: %v", err)
	}
	fmt.Printf("wrote %s\n", outPath)
}

func loadConfigs(path string) ([]experiment.Config, error) {
	if path == "" {
		return experiment.DefaultConfigs(), nil
	}
	bf, err := experiment.LoadBatchFile(path)
	if err != nil {
		return nil, err
	}
	return bf.Configs, nil
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = ';'
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	w.Flush()
	return w.Error()
}

func formatFailureProbs(replicas []experiment.ReplicaSetting) string {
	parts := make([]string, len(replicas))
	for i, r := range replicas {
		parts[i] = strconv.FormatFloat(r.FailureProb, 'f', -1, 64)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatRecoveryDelays(replicas []experiment.ReplicaSetting) string {
	parts := make([]string, len(replicas))
	for i, r := range replicas {
		parts[i] = fmt.Sprintf("(%d, %d)", r.RecoveryDelayMin, r.RecoveryDelayMax)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatWeights(replicas []experiment.ReplicaSetting) string {
	parts := make([]string, len(replicas))
	for i, r := range replicas {
		parts[i] = strconv.Itoa(r.Weight)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
