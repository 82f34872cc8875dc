// Command scorer scores LeetCode users from the command line using the same
// batch pipeline as the server.
//
//	scorer alice bob
//	scorer -f usernames.txt -o scores.json
//	scorer -history 10
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"leetscore/internal/config"
	"leetscore/internal/logger"
	"leetscore/internal/models"
	"leetscore/internal/repository"
	"leetscore/internal/service"
	"leetscore/internal/upstream"
	"leetscore/internal/worker"

	"github.com/fatih/color"
)

func main() {
	file := flag.String("f", "", "read usernames from `file`, one per line (- for stdin)")
	output := flag.String("o", "", "write the JSON result to `file` instead of stdout")
	history := flag.Int("history", 0, "print the last `n` audited batch runs and exit")
	noAudit := flag.Bool("no-audit", false, "do not record this run in the batch audit")
	flag.Parse()

	// keep stdout clean for the JSON result
	logger.SetOutput(os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		fatal("Failed to load configuration: %v", err)
	}
	logger.SetDebug(cfg.Debug)

	if *history > 0 {
		if err := printHistory(cfg, *history); err != nil {
			fatal("%v", err)
		}
		return
	}

	usernames, err := collectUsernames(flag.Args(), *file)
	if err != nil {
		fatal("%v", err)
	}
	if len(usernames) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	client := upstream.NewClient(cfg.Upstream)
	resolver := service.NewResolver(client)
	scheduler := service.NewScheduler(cfg.Batch, resolver.Attempt)

	start := time.Now()
	result, err := scheduler.RunBatchWithProgress(usernames, func(p service.GroupProgress) {
		logger.Debug("group %d: %d/%d users", p.Index, p.Offset+len(p.Scores), len(usernames))
	})
	if err != nil {
		fatal("Scoring failed: %v", err)
	}
	took := time.Since(start)

	if err := writeResult(result, *output); err != nil {
		fatal("%v", err)
	}
	printSummary(result, took)

	if cfg.AuditEnabled() && !*noAudit {
		recordRun(cfg, models.NewBatchRun("cli", result, took))
	}
}

// collectUsernames merges positional arguments with the contents of file.
// Blank lines and lines starting with # are skipped.
func collectUsernames(args []string, file string) ([]string, error) {
	usernames := append([]string{}, args...)
	if file == "" {
		return usernames, nil
	}

	var r io.Reader = os.Stdin
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("open username file: %w", err)
		}
		defer f.Close()
		r = f
	}

	names, err := readUsernames(r)
	if err != nil {
		return nil, fmt.Errorf("read username file: %w", err)
	}
	return append(usernames, names...), nil
}

func readUsernames(r io.Reader) ([]string, error) {
	var names []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	return names, scanner.Err()
}

func writeResult(result *models.BatchResult, path string) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func printSummary(result *models.BatchResult, took time.Duration) {
	scored, notFound, degraded := result.Counts()

	bold := color.New(color.Bold)
	bold.Fprintf(os.Stderr, "\n%d users scored in %v\n", result.Total, took.Round(time.Millisecond))
	color.New(color.FgGreen).Fprintf(os.Stderr, "  scored:    %d (%d active)\n", scored, result.Active)
	if notFound > 0 {
		color.New(color.FgYellow).Fprintf(os.Stderr, "  not found: %d\n", notFound)
	}
	if degraded > 0 {
		color.New(color.FgRed).Fprintf(os.Stderr, "  degraded:  %d\n", degraded)
		for _, r := range result.Scores {
			if r.Status == models.StatusDegraded {
				fmt.Fprintf(os.Stderr, "    %s: %s\n", r.Username, r.Error)
			}
		}
	}
}

// recordRun writes one audit row through the worker pool and waits for it
func recordRun(cfg *config.Config, run models.BatchRun) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := repository.OpenPostgres(ctx, cfg.GetDSN(), 1)
	if err != nil {
		logger.Warning("Batch audit skipped: %v", err)
		return
	}
	repo := repository.NewPostgresRepository(db)
	defer repo.Close()

	if err := repo.AutoMigrate(); err != nil {
		logger.Warning("Batch audit skipped: %v", err)
		return
	}

	pool := worker.NewPool(1, 1, repo)
	pool.Start()
	pool.Submit(run)
	if err := pool.Shutdown(10 * time.Second); err != nil {
		logger.Warning("Batch audit: %v", err)
	}
}

func printHistory(cfg *config.Config, n int) error {
	if !cfg.AuditEnabled() {
		return fmt.Errorf("no database configured (set DATABASE_URL or DB_HOST)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := repository.OpenPostgres(ctx, cfg.GetDSN(), 1)
	if err != nil {
		return fmt.Errorf("connect to PostgreSQL: %w", err)
	}
	repo := repository.NewPostgresRepository(db)
	defer repo.Close()

	runs, err := repo.RecentBatchRuns(ctx, n)
	if err != nil {
		return fmt.Errorf("load batch runs: %w", err)
	}

	header := color.New(color.Bold)
	header.Printf("%-20s %-6s %7s %7s %9s %9s %9s\n", "WHEN", "SOURCE", "TOTAL", "ACTIVE", "NOTFOUND", "DEGRADED", "TOOK")
	for _, r := range runs {
		fmt.Printf("%-20s %-6s %7d %7d %9d %9d %9s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Source,
			r.Total, r.Active, r.NotFound, r.Degraded,
			(time.Duration(r.DurationMS) * time.Millisecond).String())
	}
	return nil
}

func fatal(format string, args ...interface{}) {
	logger.Error(format, args...)
	os.Exit(1)
}
