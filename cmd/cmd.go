package cmd

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/thiagokokada/gitstatic/internal/buildinfo"
	"github.com/thiagokokada/gitstatic/internal/config"
	"github.com/thiagokokada/gitstatic/internal/git"
	"github.com/thiagokokada/gitstatic/internal/report"
	"github.com/thiagokokada/gitstatic/internal/site"
	"github.com/thiagokokada/gitstatic/internal/watch"
)

func Run() error {
	return run(os.Args[1:])
}

func run(args []string) error {
	fs := flag.NewFlagSet("gitstatic", flag.ContinueOnError)
	outDir := fs.String("out", "out", "directory to write the rendered site to")
	configPath := fs.String("config", "", "path to an optional yaml configuration file")
	watchRepo := fs.Bool("watch", false, "re-render the full site when the repository changes")
	verbose := fs.Bool("verbose", false, "enable verbose logging")
	showVersion := fs.Bool("version", false, "print version information and exit")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}
	if *showVersion {
		fmt.Println(buildinfo.VersionWithTags())
		return nil
	}
	if *verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	repoPath := "."
	remaining := fs.Args()
	if len(remaining) > 0 {
		repoPath = remaining[len(remaining)-1]
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	svc, err := git.Open(repoPath)
	if err != nil {
		return err
	}

	render := func() error {
		rep := report.New()
		if err := site.Build(svc, cfg, *outDir, rep); err != nil {
			return err
		}
		rep.Summarize()
		return nil
	}

	if err := render(); err != nil {
		return err
	}
	if !*watchRepo {
		return nil
	}
	return watch.Run(svc.RepoPath(), func() {
		if err := render(); err != nil {
			slog.Error("re-render failed", slog.Any("error", err))
		}
	})
}
