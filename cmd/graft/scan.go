package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/graft"
	"github.com/jward/graft/internal/report"
	"github.com/jward/graft/script"
)

var (
	flagApply bool
	flagDB    string
)

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Match rule patterns against a source tree",
	Long:  "Parses every source file of the chosen language under path, runs the analysis phase, and prints the matches. With --apply the rewrite phase runs too and files are edited in place.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&flagApply, "apply", false, "run the rewrite phase and write files in place")
	scanCmd.Flags().StringVar(&flagDB, "db", "", "record findings to a SQLite database at this path")
}

func runScan(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	eng, err := newEngine()
	if err != nil {
		return err
	}
	if len(eng.Rules()) == 0 {
		return fmt.Errorf("no rules loaded; pass --rules")
	}

	var store *report.Store
	var runID int64
	if flagDB != "" {
		store, err = report.NewStore(flagDB)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Migrate(); err != nil {
			return err
		}
		runID, err = store.BeginRun(root, flagLanguage, flagApply)
		if err != nil {
			return err
		}
	}

	start := time.Now()
	var files, matched, edited int
	err = walkSources(root, func(path string) error {
		files++
		n, edits, err := scanFile(eng, path, store, runID)
		if err != nil {
			return err
		}
		matched += n
		if edits > 0 {
			edited++
		}
		return nil
	})
	if err != nil {
		return err
	}

	if store != nil {
		if err := store.FinishRun(runID); err != nil {
			return err
		}
	}
	printSummary(cmd.OutOrStdout(), files, matched, edited, flagApply, time.Since(start))
	return nil
}

// scanFile runs both phases over one file. Returns the match count and, when
// applying, the number of edits written back.
func scanFile(eng *graft.Engine, path string, store *report.Store, runID int64) (int, int, error) {
	src, err := graft.ParseFile(path)
	if err != nil {
		return 0, 0, err
	}
	defer src.Close()

	pending, err := eng.Analyze(src)
	if err != nil {
		return 0, 0, err
	}
	matches := pending.Matches()
	for _, m := range matches {
		printMatch(os.Stdout, path, m)
		if store != nil {
			_, err := store.InsertFinding(&report.Finding{
				RunID:     runID,
				File:      path,
				Rule:      m.Rule().Name,
				StartByte: m.Node.StartByte(),
				EndByte:   m.Node.EndByte(),
				Matched:   m.Text(),
			})
			if err != nil {
				return 0, 0, err
			}
		}
	}
	if !flagApply || len(matches) == 0 {
		return len(matches), 0, nil
	}

	edits := &graft.EditLog{}
	imports := &graft.ImportLog{}
	rc := &graft.RewriteContext{Edits: edits, Imports: imports, Group: "graft scan"}
	if err := eng.Rewrite(pending, rc); err != nil {
		return len(matches), 0, err
	}
	if edits.Len() == 0 {
		return len(matches), 0, nil
	}
	out, err := edits.Apply(src.Bytes)
	if err != nil {
		return len(matches), 0, fmt.Errorf("%s: %w", path, err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return len(matches), 0, err
	}
	if store != nil {
		for _, e := range edits.Edits() {
			_, err := store.InsertEdit(&report.EditRecord{
				RunID:       runID,
				File:        path,
				StartByte:   e.Start,
				EndByte:     e.End,
				Replacement: e.Replacement,
				Group:       e.Group,
			})
			if err != nil {
				return len(matches), 0, err
			}
		}
	}
	printImports(os.Stdout, path, imports)
	return len(matches), edits.Len(), nil
}

// newEngine builds an engine for the configured language with the rule
// scripts from --rules registered.
func newEngine() (*graft.Engine, error) {
	eng, err := graft.New(flagLanguage)
	if err != nil {
		return nil, err
	}
	if flagRules == "" {
		return eng, nil
	}
	rules, err := script.LoadRules(os.DirFS(flagRules))
	if err != nil {
		return nil, err
	}
	if err := eng.Register(graft.Provider(rules...)); err != nil {
		return nil, err
	}
	return eng, nil
}

// walkSources visits every file of the configured language under root,
// skipping hidden directories.
func walkSources(root string, fn func(path string) error) error {
	ext := "." + flagLanguage
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if name := d.Name(); name != "." && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ext {
			return nil
		}
		return fn(path)
	})
}
