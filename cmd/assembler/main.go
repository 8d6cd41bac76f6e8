package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/libklein/nand2tetris/hack"
	"github.com/libklein/nand2tetris/internal/fileutil"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:           "assembler <file.asm>",
	Short:         "Assemble Hack assembly to binary code",
	Long:          `Assemble a .asm file into a sibling .hack file of 16 bit binary instructions.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetLevel(log.DebugLevel)
		}
		return assemble(args[0])
	},
}

func assemble(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read %q: %w", path, err)
	}

	instructions, err := hack.Assemble(src)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	outputPath := fileutil.ReplaceExt(path, ".hack")
	output, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("cannot open %q for writing: %w", outputPath, err)
	}
	defer output.Close()

	w := bufio.NewWriter(output)
	for _, instruction := range instructions {
		fmt.Fprintln(w, instruction)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("cannot write %q: %w", outputPath, err)
	}

	log.Infof("saved %q (%d instructions)", outputPath, len(instructions))
	return nil
}

func main() {
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
