package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"jobmail-engine/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create, show and validate the config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config if none exists",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective config",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the config for errors and warnings",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	if cfgPath == "" {
		path, created, err := config.EnsureUserConfig(config.DefaultDataDir())
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintln(out, "Wrote", path)
		} else {
			fmt.Fprintln(out, "Config already exists at", path)
		}
		return nil
	}

	if _, err := os.Stat(cfgPath); err == nil {
		fmt.Fprintln(out, "Config already exists at", cfgPath)
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := config.SaveAtomic(cfgPath, config.Default()); err != nil {
		return err
	}
	fmt.Fprintln(out, "Wrote", cfgPath)
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", a.path)
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(a.cfg); err != nil {
		return err
	}
	return enc.Close()
}

func runConfigValidate(cmd *cobra.Command, _ []string) error {
	path := cfgPath
	if path == "" {
		var err error
		path, _, err = config.EnsureUserConfig(config.DefaultDataDir())
		if err != nil {
			return err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	_, v := config.NormalizeAndValidate(cfg)

	out := cmd.OutOrStdout()
	for _, e := range v.Errors {
		fmt.Fprintln(out, "error:  ", e)
	}
	for _, w := range v.Warnings {
		fmt.Fprintln(out, "warning:", w)
	}
	if !v.OK() {
		return fmt.Errorf("%s has %d errors", path, len(v.Errors))
	}
	fmt.Fprintln(out, path, "is valid.")
	return nil
}
