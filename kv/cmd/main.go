package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/aep/videolib/api"
	"github.com/aep/videolib/kv"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

var (
	storeKind string
	storePath string
	file      string
	output    string
	force     bool
)

var CMD = &cobra.Command{
	Use:   "store",
	Short: "direct access to the video store",
}

func init() {
	CMD.PersistentFlags().StringVar(&storeKind, "store", "file", "store backend: file or pebble")
	CMD.PersistentFlags().StringVar(&storePath, "data", "data/videos.json", "data file (file store) or directory (pebble store)")

	importCmd.Flags().StringVarP(&file, "file", "f", "", "Path to JSON/YAML file, - for stdin")
	importCmd.MarkFlagRequired("file")
	importCmd.Flags().BoolVar(&force, "force", false, "replace a non-empty store")

	initCmd.Flags().BoolVar(&force, "force", false, "empty a non-empty store")

	exportCmd.Flags().StringVarP(&output, "output", "o", "-", "Path to write, .json writes JSON, anything else YAML")

	CMD.AddCommand(listCmd)
	CMD.AddCommand(getCmd)
	CMD.AddCommand(delCmd)
	CMD.AddCommand(importCmd)
	CMD.AddCommand(exportCmd)
	CMD.AddCommand(initCmd)
}

func open() kv.Store {
	s, err := kv.Open(storeKind, storePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return s
}

var listCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List all stored videos",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := open()
		defer s.Close()

		videos, err := s.LoadAll(cmd.Context())
		if err != nil {
			return err
		}
		for _, v := range videos {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t[%s]\n", v.Id, escapeNonPrintable(v.Title), strings.Join(v.Tags, ","))
		}
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Print a stored video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := open()
		defer s.Close()

		videos, err := s.LoadAll(cmd.Context())
		if err != nil {
			return err
		}
		for _, v := range videos {
			if v.Id == args[0] {
				enc, err := yaml.Marshal(v)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(enc)
				return err
			}
		}
		return fmt.Errorf("video %s not found", args[0])
	},
}

var delCmd = &cobra.Command{
	Use:     "del [id]",
	Aliases: []string{"rm"},
	Short:   "Delete a stored video",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := open()
		defer s.Close()

		videos, err := s.LoadAll(cmd.Context())
		if err != nil {
			return err
		}
		for i, v := range videos {
			if v.Id == args[0] {
				videos = append(videos[:i], videos[i+1:]...)
				return s.SaveAll(cmd.Context(), videos)
			}
		}
		return fmt.Errorf("video %s not found", args[0])
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Replace the store content with videos from a file",
	RunE: func(cmd *cobra.Command, args []string) error {
		videos, err := parseFile(file)
		if err != nil {
			return err
		}
		if err := checkRecords(videos); err != nil {
			return err
		}

		s := open()
		defer s.Close()

		existing, err := s.LoadAll(cmd.Context())
		if err != nil {
			return err
		}
		if len(existing) > 0 && !force {
			return fmt.Errorf("store already holds %d videos, use --force to replace them", len(existing))
		}

		if err := s.SaveAll(cmd.Context(), videos); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d videos\n", len(videos))
		return nil
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an empty store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := open()
		defer s.Close()

		existing, err := s.LoadAll(cmd.Context())
		if err != nil && !force {
			return err
		}
		if len(existing) > 0 && !force {
			return fmt.Errorf("store already holds %d videos, use --force to empty it", len(existing))
		}

		return s.SaveAll(cmd.Context(), []api.Video{})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write all videos as a store document",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := open()
		defer s.Close()

		videos, err := s.LoadAll(cmd.Context())
		if err != nil {
			return err
		}

		doc := map[string][]api.Video{"videos": videos}

		var enc []byte
		if filepath.Ext(output) == ".json" {
			enc, err = json.MarshalIndent(doc, "", "  ")
		} else {
			enc, err = yaml.Marshal(doc)
		}
		if err != nil {
			return err
		}

		if output == "-" {
			_, err = cmd.OutOrStdout().Write(enc)
			return err
		}
		return os.WriteFile(output, enc, 0o644)
	},
}

func escapeNonPrintable(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsPrint(r) {
			result.WriteRune(r)
		} else {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		}
	}
	return result.String()
}
