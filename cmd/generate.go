package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/freestyler/internal/client"
	"github.com/ziadkadry99/freestyler/internal/config"
	"github.com/ziadkadry99/freestyler/internal/freestyle"
	"github.com/ziadkadry99/freestyler/internal/render"
)

var generateCmd = &cobra.Command{
	Use:   "generate [topic]",
	Short: "Generate a freestyle and cut it into bars",
	Long: `Streams a freestyle about the topic in the style of the chosen persona,
then prints the bars. With --server the request goes to a running
freestyler server instead of straight to the model.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringP("persona", "p", "", "rapper persona (default from config)")
	generateCmd.Flags().String("prompt", "", "send this prompt verbatim instead of building one")
	generateCmd.Flags().String("server", "", "base URL of a freestyler server, e.g. http://localhost:8080")
	generateCmd.Flags().Int("copy", 0, "copy bar N (1-based) to the clipboard")
	generateCmd.Flags().Bool("pick", false, "choose a bar interactively and copy it")
	generateCmd.Flags().Bool("no-save", false, "do not record the generation in history")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	start := time.Now()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	personaName, _ := cmd.Flags().GetString("persona")
	prompt, _ := cmd.Flags().GetString("prompt")
	serverURL, _ := cmd.Flags().GetString("server")
	copyN, _ := cmd.Flags().GetInt("copy")
	pick, _ := cmd.Flags().GetBool("pick")
	noSave, _ := cmd.Flags().GetBool("no-save")

	var topic string
	if len(args) > 0 {
		topic = args[0]
	}

	catalog, err := buildCatalog(cfg)
	if err != nil {
		return err
	}
	if personaName == "" {
		personaName = catalog.Default().Name
	}

	// Stream the freestyle to stdout as it arrives.
	onChunk := func(chunk string) error {
		_, err := fmt.Fprint(os.Stdout, chunk)
		return err
	}

	var (
		lines []string
		id    string
	)
	if serverURL != "" {
		lines, id, err = generateRemote(ctx, cfg, serverURL, prompt, topic, personaName, onChunk)
	} else {
		lines, id, err = generateLocal(ctx, cfg, prompt, topic, personaName, noSave, os.Stdout)
	}
	fmt.Println()
	if err != nil {
		return err
	}

	heading := headingFor(catalog, personaName)
	fmt.Println()
	fmt.Println(render.Bars(heading, lines))

	if pick && len(lines) > 0 {
		n, err := render.Pick(heading, lines)
		if err != nil {
			return fmt.Errorf("bar picker: %w", err)
		}
		copyN = n
	}
	if copyN > 0 {
		if line, err := render.CopyBar(lines, copyN); err != nil {
			fmt.Fprintln(os.Stderr, render.Warning(err.Error()))
		} else {
			fmt.Fprintln(os.Stderr, render.Success(fmt.Sprintf("Copied bar %d: %s", copyN, line)))
		}
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "\nGeneration %s finished in %s\n", id, time.Since(start).Round(time.Millisecond))
	}
	return nil
}

// generateLocal calls the model directly and records the result unless
// noSave is set.
func generateLocal(ctx context.Context, cfg *config.Config, prompt, topic, personaName string, noSave bool, out *os.File) ([]string, string, error) {
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, "", err
	}
	defer logger.Sync()

	var recorder freestyle.Recorder
	if !noSave {
		database, store, err := openHistory(cfg)
		if err != nil {
			warnf("history disabled: %v", err)
		} else {
			defer database.Close()
			recorder = store
		}
	}

	svc, err := buildService(cfg, recorder, logger)
	if err != nil {
		return nil, "", err
	}

	res, err := svc.Generate(ctx, freestyle.Request{Prompt: prompt, Topic: topic, Persona: personaName}, out)
	if err != nil {
		return nil, "", err
	}
	return res.Bars, res.ID, nil
}

// generateRemote streams from a freestyler server and cuts the bars
// locally with the configured filter.
func generateRemote(ctx context.Context, cfg *config.Config, serverURL, prompt, topic, personaName string, onChunk client.ChunkFunc) ([]string, string, error) {
	c := client.New(serverURL, nil)

	var (
		res *client.Result
		err error
	)
	if strings.TrimSpace(prompt) != "" {
		res, err = c.Generate(ctx, prompt, onChunk)
	} else {
		res, err = c.Freestyle(ctx, topic, personaName, onChunk)
	}
	if err != nil {
		return nil, "", err
	}
	return buildFilter(cfg).Apply(res.Text), res.GenerationID, nil
}
