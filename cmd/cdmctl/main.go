package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/WessZumino/CDM/corpus"
	applog "github.com/WessZumino/CDM/log"
	"github.com/WessZumino/CDM/storage"
)

const usage = `usage: cdmctl [-dir=<path>] [-ns=<namespace>] <command> [<args>]

Configuration flags:

   -dir   The local directory to mount as the default storage namespace.
   -ns    The namespace name to mount -dir under (default "local").

Commands
   load <path>...         Load and index the given corpus paths and their imports
   fetch <path> [anchor]  Resolve and print one object
   relate <manifest>      Calculate the entity relationship graph for a manifest (not printed)

Other commands
   help    Display this help message
`

var (
	dirFlag = flag.String("dir", ".", "local directory to mount")
	nsFlag  = flag.String("ns", "local", "namespace to mount -dir under")
)

func main() {
	flag.Parse()
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	args := flag.Args()
	if len(args) == 0 {
		fmt.Print(usage)
		os.Exit(1)
	}

	c, err := buildCorpus(*dirFlag, *nsFlag, log)
	if err != nil {
		log.Error("setup failed", "error", err)
		os.Exit(1)
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "load":
		err = runLoad(c, rest)
	case "fetch":
		err = runFetch(c, rest)
	case "relate":
		err = runRelate(c, rest)
	case "help":
		fmt.Print(usage)
		return
	default:
		fmt.Printf("unknown command %q\n\n", cmd)
		fmt.Print(usage)
		os.Exit(1)
	}
	if err != nil {
		log.Error(cmd, "error", err)
		os.Exit(1)
	}
}

func buildCorpus(dir, ns string, l *slog.Logger) (*corpus.Corpus, error) {
	fs, err := storage.NewFS(dir)
	if err != nil {
		return nil, fmt.Errorf("mount %s: %w", dir, err)
	}
	registry := storage.NewRegistry(ns)
	registry.Mount(ns, fs)

	logger := applog.New(l)
	c := corpus.New(registry, corpus.MaterializeJSON, corpus.Options{
		DefaultNamespace: ns,
		Logger:           logger,
	})
	c.SetEventCallback(func(ev corpus.Event) {
		l.Warn("event", "severity", ev.Severity.String(), "path", string(ev.Path), "message", ev.Message)
	}, corpus.SevWarning)
	return c, nil
}

func runLoad(c *corpus.Corpus, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("load requires at least one corpus path")
	}
	seeds := make([]corpus.CorpusPath, len(args))
	for i, a := range args {
		seeds[i] = corpus.CorpusPath(a)
	}
	if err := c.Load(context.Background(), seeds); err != nil {
		return err
	}
	stats := c.Stats()
	fmt.Printf("loaded %d document(s), indexed %d\n", stats.DocumentsLoaded, stats.DocumentsIndexed)
	return nil
}

func runFetch(c *corpus.Corpus, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("fetch requires a corpus path")
	}
	var anchor corpus.CorpusPath
	if len(args) > 1 {
		anchor = corpus.CorpusPath(args[1])
	}
	def, err := c.FetchObject(corpus.CorpusPath(args[0]), anchor)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s (id %d)\n", def.ObjectType(), def.DeclaredName(), def.ID())
	return nil
}

func runRelate(c *corpus.Corpus, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("relate requires a manifest corpus path")
	}
	manifest := corpus.CorpusPath(args[0])
	if err := c.CalculateEntityGraph(manifest); err != nil {
		return err
	}
	fmt.Printf("outgoing relationships from %s recorded\n", manifest)
	return nil
}
