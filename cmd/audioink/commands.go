package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fabianhtml/AudioInk/internal/history"
	"github.com/fabianhtml/AudioInk/internal/metrics"
	"github.com/fabianhtml/AudioInk/internal/models"
	"github.com/fabianhtml/AudioInk/internal/transcribe"
)

func runModels(args []string) int {
	fs := flag.NewFlagSet("audioink models", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: audioink models [list|download <model>|delete <model>]")
		fs.PrintDefaults()
	}
	configPath := fs.String("config", "", "Path to configuration file")
	fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	store := models.NewStore(cfg.Engine.ModelsDir)

	var appMetrics *metrics.Metrics
	if cfg.Metrics.Enabled {
		appMetrics = metrics.NewMetrics()
	}

	switch fs.Arg(0) {
	case "", "list":
		return listModels(store)
	case "download":
		if fs.Arg(1) == "" {
			fmt.Fprintln(os.Stderr, "Usage: audioink models download <model>")
			return 2
		}
		return downloadModel(store, fs.Arg(1), appMetrics)
	case "delete":
		if fs.Arg(1) == "" {
			fmt.Fprintln(os.Stderr, "Usage: audioink models delete <model>")
			return 2
		}
		return deleteModel(store, fs.Arg(1))
	default:
		fs.Usage()
		return 2
	}
}

func listModels(store *models.Store) int {
	info := store.StorageInfo()
	for _, m := range models.All() {
		mark := " "
		if _, ok := info.ModelSizes[m]; ok {
			mark = "*"
		}
		fmt.Printf("%s %-15s %10s  %s\n", mark, m, models.FormatBytes(m.SizeBytes()), m.Description())
	}
	fmt.Printf("\nDownloaded models (*) use %s in %s\n", info.TotalSizeFormatted(), info.Dir)
	return 0
}

func downloadModel(store *models.Store, name string, appMetrics *metrics.Metrics) int {
	m, err := models.Parse(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if store.IsDownloaded(m) {
		fmt.Printf("Model %s is already downloaded.\n", m)
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path, err := store.Download(ctx, m, func(fraction float64, downloaded, total int64) {
		fmt.Fprintf(os.Stderr, "\rDownloading %s: %5.1f%% (%s / %s)", m, fraction*100,
			models.FormatBytes(downloaded), models.FormatBytes(total))
	})
	fmt.Fprintln(os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if stat, err := os.Stat(path); err == nil {
		appMetrics.RecordModelDownload(stat.Size())
	}
	fmt.Printf("Model %s downloaded to %s\n", m, path)
	return 0
}

func deleteModel(store *models.Store, name string) int {
	m, err := models.Parse(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if !store.IsDownloaded(m) {
		fmt.Fprintf(os.Stderr, "Model %s is not downloaded.\n", m)
		return 1
	}
	if err := store.Delete(m); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Printf("Model %s deleted.\n", m)
	return 0
}

func runHistory(args []string) int {
	fs := flag.NewFlagSet("audioink history", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: audioink history [list|show <id>|export <id> <path>|delete <id>|clear]")
		fs.PrintDefaults()
	}
	configPath := fs.String("config", "", "Path to configuration file")
	fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	store := history.NewStore(cfg.History.Dir)

	switch fs.Arg(0) {
	case "", "list":
		return listHistory(store)
	case "show":
		if fs.Arg(1) == "" {
			fmt.Fprintln(os.Stderr, "Usage: audioink history show <id>")
			return 2
		}
		return showHistory(store, fs.Arg(1))
	case "export":
		if fs.Arg(1) == "" || fs.Arg(2) == "" {
			fmt.Fprintln(os.Stderr, "Usage: audioink history export <id> <path>")
			return 2
		}
		return exportHistory(store, fs.Arg(1), fs.Arg(2))
	case "delete":
		if fs.Arg(1) == "" {
			fmt.Fprintln(os.Stderr, "Usage: audioink history delete <id>")
			return 2
		}
		return deleteHistory(store, fs.Arg(1))
	case "clear":
		return clearHistory(store)
	default:
		fs.Usage()
		return 2
	}
}

func listHistory(store *history.Store) int {
	entries, err := store.List()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if len(entries) == 0 {
		fmt.Println("History is empty.")
		return 0
	}
	for _, e := range entries {
		fmt.Printf("%s  %-28s %8s  %6d words  %s\n",
			e.ID, truncate(e.SourceName, 28), e.DurationStr, e.WordCount, e.Language)
	}
	return 0
}

func showHistory(store *history.Store, id string) int {
	entry, err := store.Get(id)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			fmt.Fprintf(os.Stderr, "No history entry with id %s\n", id)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	fmt.Print(history.ExportText(*entry))
	return 0
}

func exportHistory(store *history.Store, id, path string) int {
	entry, err := store.Get(id)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			fmt.Fprintf(os.Stderr, "No history entry with id %s\n", id)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	if err := history.ExportFile(*entry, path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Printf("Exported %s to %s\n", id, path)
	return 0
}

func deleteHistory(store *history.Store, id string) int {
	if err := store.Delete(id); err != nil {
		if errors.Is(err, history.ErrNotFound) {
			fmt.Fprintf(os.Stderr, "No history entry with id %s\n", id)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	fmt.Printf("Deleted %s\n", id)
	return 0
}

func clearHistory(store *history.Store) int {
	count, err := store.Count()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if err := store.Clear(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Printf("Removed %d entries.\n", count)
	return 0
}

func runLanguages(w io.Writer) int {
	for _, l := range transcribe.Languages {
		fmt.Fprintf(w, "%-8s %s\n", l.Code, l.Name)
	}
	return 0
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "..."
}
