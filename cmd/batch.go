package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ziadkadry99/freestyler/internal/freestyle"
	"github.com/ziadkadry99/freestyler/internal/persona"
	"github.com/ziadkadry99/freestyler/internal/progress"
	"github.com/ziadkadry99/freestyler/internal/render"
)

var batchCmd = &cobra.Command{
	Use:   "batch <topics-file>",
	Short: "Generate a freestyle for every topic in a file",
	Long: `Reads one topic per line (blank lines and lines starting with # are
skipped) and generates a freestyle for each with bounded concurrency.
Every generation is recorded in history.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringP("persona", "p", "", "rapper persona (default from config)")
	batchCmd.Flags().Int("concurrency", 3, "max parallel generations")
	batchCmd.Flags().Bool("fail-fast", false, "stop at the first failed topic")
	rootCmd.AddCommand(batchCmd)
}

type batchResult struct {
	topic string
	res   *freestyle.Result
	err   error
}

func runBatch(cmd *cobra.Command, args []string) error {
	start := time.Now()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	personaName, _ := cmd.Flags().GetString("persona")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	failFast, _ := cmd.Flags().GetBool("fail-fast")
	if concurrency < 1 {
		concurrency = 1
	}

	topics, err := readTopics(args[0])
	if err != nil {
		return err
	}
	if len(topics) == 0 {
		return fmt.Errorf("no topics in %s", args[0])
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	database, store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	svc, err := buildService(cfg, store, logger)
	if err != nil {
		return err
	}

	p, err := svc.Catalog().Resolve(personaName)
	if err != nil {
		return err
	}

	results := runTopics(ctx, svc, p.Name, topics, concurrency, failFast, progress.NewReporter(os.Stderr))

	var failed int
	for _, r := range results {
		fmt.Printf("\n## %s\n\n", r.topic)
		if r.err != nil {
			failed++
			fmt.Println(render.Warning(r.err.Error()))
			continue
		}
		fmt.Println(render.Bars(persona.Heading(p), r.res.Bars))
	}

	logger.Info("batch finished",
		zap.Int("topics", len(topics)),
		zap.Int("failed", failed),
		zap.Duration("duration", time.Since(start)),
	)
	fmt.Fprintf(os.Stderr, "\n%d/%d freestyles completed in %s\n",
		len(topics)-failed, len(topics), time.Since(start).Round(time.Millisecond))

	if failed > 0 {
		return fmt.Errorf("%d topic(s) failed", failed)
	}
	return nil
}

// runTopics generates a freestyle per topic with at most concurrency in
// flight. Results keep the order of topics. With failFast the first error
// cancels the remaining topics.
func runTopics(ctx context.Context, svc *freestyle.Service, personaName string, topics []string, concurrency int, failFast bool, reporter progress.Reporter) []batchResult {
	results := make([]batchResult, len(topics))
	reporter.Start(len(topics))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, topic := range topics {
		results[i].topic = topic
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].err = err
				reporter.Done(topic)
				return nil
			}
			res, err := svc.Generate(gctx, freestyle.Request{Topic: topic, Persona: personaName}, nil)
			results[i].res, results[i].err = res, err
			reporter.Done(topic)
			if err != nil && failFast {
				return err
			}
			return nil
		})
	}
	// Per-topic errors are already in results.
	_ = g.Wait()
	reporter.Finish()
	return results
}

func readTopics(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening topics file: %w", err)
	}
	defer f.Close()

	var topics []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		topics = append(topics, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading topics file: %w", err)
	}
	return topics, nil
}
