package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/libklein/nand2tetris/internal/fileutil"
	"github.com/libklein/nand2tetris/vm"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "vm-translator <path>",
	Short: "Translate VM code to Hack assembly",
	Long: `Translate a .vm file, or every .vm file in a directory, into a single
.asm file named after the input path's stem. Directory inputs get the
bootstrap sequence emitted once at the top.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetLevel(log.DebugLevel)
		}
		return translate(args[0])
	},
}

func translate(path string) error {
	inputs, isDir, err := fileutil.Collect(path, ".vm")
	if err != nil {
		return err
	}

	var files []vm.File
	for _, input := range inputs {
		log.Infof("parsing %q", input)
		file, err := parseFile(input)
		if err != nil {
			return err
		}
		files = append(files, file)
	}

	outputPath := fileutil.ReplaceExt(path, ".asm")
	if isDir {
		outputPath = filepath.Join(path, fileutil.Stem(path)+".asm")
	}
	output, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("cannot open %q for writing: %w", outputPath, err)
	}
	defer output.Close()

	// The bootstrap belongs to whole-program translations only; a single
	// file is translated as-is so it can be loaded at any address.
	if err := vm.Translate(output, fileutil.Stem(path), files, isDir); err != nil {
		return err
	}
	log.Infof("saved %q", outputPath)
	return nil
}

func parseFile(path string) (vm.File, error) {
	input, err := os.Open(path)
	if err != nil {
		return vm.File{}, fmt.Errorf("cannot read %q: %w", path, err)
	}
	defer input.Close()

	commands, err := vm.Parse(input)
	if err != nil {
		return vm.File{}, fmt.Errorf("%s: %w", path, err)
	}
	return vm.File{Name: fileutil.Stem(path), Commands: commands}, nil
}

func main() {
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
