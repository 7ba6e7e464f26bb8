package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/riichinakano/forest-zaim-app/internal/accounts"
	"github.com/riichinakano/forest-zaim-app/internal/config"
	"github.com/riichinakano/forest-zaim-app/internal/gitops"
	"github.com/riichinakano/forest-zaim-app/internal/model"
)

func newInitCommand() *cobra.Command {
	var name string
	var useGit bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new zaim project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd.OutOrStdout(), absDir, name, useGit)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "organization name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().BoolVar(&useGit, "git", false, "track zaim.yaml and the account masters in git")

	return cmd
}

func runInit(out io.Writer, dir, name string, useGit bool) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	}

	cfg := config.Default(name)
	cfg.Dir = dir

	// Create directory structure.
	dirs := []string{
		cfg.DataDir(model.StatementPL),
		cfg.DataDir(model.StatementBS),
		cfg.ConfigDir(),
		filepath.Dir(cfg.AuditPath()),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	// Write zaim.yaml.
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Write starter account masters.
	for _, st := range []model.Statement{model.StatementPL, model.StatementBS} {
		svc := accounts.NewService(accounts.DefaultMaster(st))
		if err := svc.Save(cfg.ConfigDir(), accounts.MasterFileFor(st)); err != nil {
			return fmt.Errorf("writing %s master: %w", st, err)
		}
	}

	// Write .gitignore. Source data and exports stay out of history.
	gitignore := "data/\nlogs/\n.env\n*_月次推移.*\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	if !useGit {
		fmt.Fprintf(out, "Initialized zaim project at %s\n", dir)
		return nil
	}

	if err := gitops.Init(dir); err != nil {
		return err
	}
	hash, err := gitops.Commit(dir, "init: "+name, gitops.DefaultAuthor, config.FileName, cfg.Data.ConfigDir, ".gitignore")
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}
	fmt.Fprintf(out, "Initialized zaim project at %s (%s)\n", dir, hash)
	return nil
}
