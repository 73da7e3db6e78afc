package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/finimport/internal/gitops"
	"github.com/cleared-dev/finimport/internal/importer"
	"github.com/cleared-dev/finimport/internal/importlog"
	"github.com/cleared-dev/finimport/internal/logging"
)

func newScanCommand(a *app) *cobra.Command {
	var dryRun, commit bool
	var repoDir string

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Import every statement waiting in import/",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			absDir, err := filepath.Abs(repoDir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			opts := scanOptions{
				dryRun: dryRun,
				commit: commit || a.cfg.Git.AutoCommit,
				author: gitops.Author{Name: a.cfg.Git.AuthorName, Email: a.cfg.Git.AuthorEmail},
			}
			return runScan(cmd.Context(), cmd.OutOrStdout(), a.registry(cmd), absDir, opts)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse and report without writing the log or moving files")
	cmd.Flags().BoolVar(&commit, "commit", false, "commit the import log and processed files to git")
	cmd.Flags().StringVar(&repoDir, "repo", ".", "repository directory")

	return cmd
}

type scanOptions struct {
	dryRun bool
	commit bool
	author gitops.Author
}

// scanResult counts what one scan did.
type scanResult struct {
	Files      int
	Failed     int
	Imported   int
	Duplicates int
	Skipped    int
}

func runScan(ctx context.Context, w io.Writer, reg *importer.Registry, repoRoot string, opts scanOptions) error {
	res, err := scan(ctx, w, reg, repoRoot, opts.dryRun, time.Now().UTC())
	if err != nil {
		return err
	}

	if res.Files == 0 {
		warning(w, "no statement files in %s", filepath.Join(repoRoot, "import"))
		return nil
	}
	prefix := ""
	if opts.dryRun {
		prefix = "[dry run] "
	}
	success(w, "%s%d imported, %d duplicates, %d rows skipped across %d files", prefix, res.Imported, res.Duplicates, res.Skipped, res.Files)

	if opts.commit && !opts.dryRun && res.Failed < res.Files {
		if err := commitImport(w, repoRoot, opts.author, res); err != nil {
			return err
		}
	}
	if res.Failed > 0 {
		return fmt.Errorf("%d of %d files failed to import", res.Failed, res.Files)
	}
	return nil
}

// scan parses each file in import/, drops transactions already in the
// import log or earlier in this run, logs the rest and moves the file to
// import/processed/. Files that fail to parse stay in place.
func scan(ctx context.Context, w io.Writer, reg *importer.Registry, repoRoot string, dryRun bool, now time.Time) (scanResult, error) {
	logger := logging.FromContext(ctx)
	var res scanResult

	files, err := importer.Scan(repoRoot, reg)
	if err != nil {
		return res, err
	}
	res.Files = len(files)

	seen, err := importlog.SeenKeys(repoRoot)
	if err != nil {
		return res, err
	}

	for _, fi := range files {
		p := reg.Detect(fi.Name)
		rep, err := parseFile(p, fi.Path)
		if err != nil {
			res.Failed++
			logger.Error().Err(err).Str("file", fi.Name).Msg("import failed")
			failure(w, "%s: %v", fi.Name, err)
			continue
		}

		kept, keys, dropped := importer.Deduplicate(rep.Transactions, seen)
		res.Imported += len(kept)
		res.Duplicates += dropped
		res.Skipped += len(rep.Skipped)

		logger.Info().
			Str("file", fi.Name).
			Str("format", p.Format()).
			Int("imported", len(kept)).
			Int("duplicates", dropped).
			Int("skipped", len(rep.Skipped)).
			Msg("statement parsed")
		fmt.Fprintf(w, "  %s (%s): %d new, %d duplicates, %d rows skipped\n", fi.Name, p.Format(), len(kept), dropped, len(rep.Skipped))

		if dryRun {
			continue
		}

		entries := make([]importlog.Entry, len(kept))
		for i, t := range kept {
			entries[i] = importlog.NewEntry(now, fi.Name, p.Format(), t, keys[i])
		}
		if len(entries) > 0 {
			if err := importlog.Append(repoRoot, entries); err != nil {
				return res, fmt.Errorf("writing import log: %w", err)
			}
		}
		if err := importer.MarkProcessed(repoRoot, fi.Name); err != nil {
			return res, err
		}
	}
	return res, nil
}

// commitImport records the import log and the moved files in git.
func commitImport(w io.Writer, repoRoot string, author gitops.Author, res scanResult) error {
	if !gitops.IsRepo(repoRoot) {
		warning(w, "%s is not a git repository, not committing", repoRoot)
		return nil
	}
	var paths []string
	for _, p := range []string{"logs", "import"} {
		if _, err := os.Stat(filepath.Join(repoRoot, p)); err == nil {
			paths = append(paths, p)
		}
	}
	msg := fmt.Sprintf("import: %d transactions from %d files", res.Imported, res.Files-res.Failed)
	hash, err := gitops.CommitPaths(repoRoot, msg, author, paths...)
	if errors.Is(err, gitops.ErrNothingToCommit) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("committing import: %w", err)
	}
	success(w, "committed %s", hash)
	return nil
}

func parseFile(p importer.Parser, path string) (*importer.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening statement: %w", err)
	}
	defer f.Close()
	return p.ParseReport(f)
}
