package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"jobprofit/storage"
)

var (
	deleteDBPath string
	deleteRunID  string
	deleteBuilds bool
)

var (
	deletePromptInput  io.Reader = os.Stdin
	deletePromptOutput io.Writer = os.Stdout
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete one stored build or the complete SQLite database file",
	Long: `Destructive database cleanup command.

With --run, only that build and its fact rows are removed from the database.
With --all-builds, every build is removed but the database file and schema are kept.
Otherwise the complete SQLite database file is deleted.
Before deletion, an interactive security prompt requires typing exactly "Y".`,
	Example: `
  # Delete one build (requires interactive confirmation)
  jobprofit delete --run 6f1c...

  # Empty the build store
  jobprofit delete --all-builds

  # Delete the complete SQLite file (requires interactive confirmation)
  jobprofit delete --db ./jobprofit.db
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := resolveDBPath(deleteDBPath)
		target := fmt.Sprintf("database file %q", dbPath)
		switch {
		case deleteRunID != "" && deleteBuilds:
			return fmt.Errorf("--run and --all-builds cannot be combined")
		case deleteRunID != "":
			target = fmt.Sprintf("build %s in %q", deleteRunID, dbPath)
		case deleteBuilds:
			target = fmt.Sprintf("all builds in %q", dbPath)
		}

		confirmed, err := confirmDeletePrompt(deletePromptInput, deletePromptOutput, target)
		if err != nil {
			return err
		}
		if !confirmed {
			return fmt.Errorf("delete aborted: confirmation was not 'Y'")
		}

		if deleteRunID != "" {
			if err := deleteStoredBuild(dbPath, deleteRunID); err != nil {
				return err
			}
			fmt.Printf("Deleted build %s from %s\n", deleteRunID, dbPath)
			return nil
		}

		if deleteBuilds {
			deleted, err := clearStoredBuilds(dbPath)
			if err != nil {
				return err
			}
			fmt.Printf("Deleted %d builds from %s\n", deleted, dbPath)
			return nil
		}

		if err := removeDatabaseFile(dbPath); err != nil {
			return err
		}
		fmt.Printf("Deleted database file: %s\n", dbPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().StringVar(&deleteDBPath, "db", "", "Path to the SQLite build store (default from config)")
	deleteCmd.Flags().StringVar(&deleteRunID, "run", "", "Delete only this build run ID")
	deleteCmd.Flags().BoolVar(&deleteBuilds, "all-builds", false, "Delete every build but keep the database file")
}

func confirmDeletePrompt(input io.Reader, output io.Writer, target string) (bool, error) {
	if input == nil {
		return false, fmt.Errorf("delete confirmation input is not available")
	}

	if output == nil {
		output = io.Discard
	}

	if _, err := fmt.Fprintf(output, "Delete %s? Type Y to confirm: ", target); err != nil {
		return false, fmt.Errorf("write delete confirmation prompt: %w", err)
	}

	line, err := bufio.NewReader(input).ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			line = strings.TrimSpace(line)
			return line == "Y", nil
		}
		return false, fmt.Errorf("read delete confirmation: %w", err)
	}
	return strings.TrimSpace(line) == "Y", nil
}

// openExistingStore refuses to create a fresh database as a side effect.
func openExistingStore(dbPath string) (*storage.SQLiteStore, error) {
	if _, err := os.Stat(dbPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("database file not found: %s", dbPath)
		}
		return nil, fmt.Errorf("stat database file: %w", err)
	}
	return storage.OpenSQLite(dbPath)
}

func clearStoredBuilds(dbPath string) (int64, error) {
	store, err := openExistingStore(dbPath)
	if err != nil {
		return 0, err
	}
	defer store.Close()

	return store.DeleteAllBuilds()
}

func deleteStoredBuild(dbPath, runID string) error {
	store, err := openExistingStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.DeleteBuild(runID); err != nil {
		if errors.Is(err, storage.ErrBuildNotFound) {
			return fmt.Errorf("%w: %s", err, runID)
		}
		return err
	}
	return nil
}

func removeDatabaseFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("database file not found: %s", path)
		}
		return fmt.Errorf("stat database file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("database path is a directory: %s", path)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete database file: %w", err)
	}
	return nil
}
