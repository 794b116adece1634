package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/platinummonkey/specbook/pkg/importer"
)

func newImportCommand() *Command {
	cmd := &Command{
		Name:        "import",
		Description: "Import a tab-separated endpoint listing into a specification",
		Flags:       flag.NewFlagSet("import", flag.ContinueOnError),
		Run:         runImport,
	}

	cmd.Flags.Int64("spec", 0, "Specification ID")
	cmd.Flags.String("file", "", "Endpoint listing to import")
	cmd.Flags.String("server", DefaultServer, "Specbook server URL")
	cmd.Flags.Bool("watch", false, "Re-import whenever the file changes")
	cmd.Flags.Duration("delay", 500*time.Millisecond, "Quiet period after a change before re-importing")

	return cmd
}

func runImport(args []string) error {
	cmd := newImportCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	specID := flagInt64(cmd.Flags, "spec")
	file := cmd.Flags.Lookup("file").Value.String()
	server := cmd.Flags.Lookup("server").Value.String()
	watch := cmd.Flags.Lookup("watch").Value.String() == "true"
	delay := flagDuration(cmd.Flags, "delay")

	if specID <= 0 || file == "" {
		return fmt.Errorf("spec and file are required")
	}

	c := newClient(server)
	importFile := func() error {
		summary, err := importListing(c, specID, file)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Imported %d rows into specification %d: %d paths created, %d verbs created, %d verbs already present\n",
			summary.Rows, specID, summary.PathsCreated, summary.VerbsCreated, summary.VerbsExisted)
		return nil
	}

	if err := importFile(); err != nil {
		if !watch {
			return err
		}
		logger.WithError(err).Warn("Initial import failed")
	}
	if !watch {
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.WithField("file", file).Info("Watching for changes")
	return watchFile(ctx, file, delay, func() {
		if err := importFile(); err != nil {
			logger.WithError(err).WithField("file", file).Error("Import failed")
		}
	})
}

// importListing posts the listing at file to the import endpoint
func importListing(c *client, specID int64, file string) (*importer.Summary, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}

	var summary importer.Summary
	if err := c.postText(fmt.Sprintf("/api/v1/specifications/%d/import", specID), string(data), &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// watchFile calls onChange once writes to file have been quiet for delay. The
// parent directory is watched so editors that replace the file by rename are
// still seen. It returns when ctx is done.
func watchFile(ctx context.Context, file string, delay time.Duration, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	target, err := filepath.Abs(file)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(target), err)
	}

	timer := time.NewTimer(delay)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				logger.WithField("op", event.Op.String()).Debug("File changed")
				timer.Reset(delay)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.WithError(err).Warn("Watcher error")
		case <-timer.C:
			onChange()
		}
	}
}

func flagInt64(fs *flag.FlagSet, name string) int64 {
	return fs.Lookup(name).Value.(flag.Getter).Get().(int64)
}

func flagDuration(fs *flag.FlagSet, name string) time.Duration {
	return fs.Lookup(name).Value.(flag.Getter).Get().(time.Duration)
}
