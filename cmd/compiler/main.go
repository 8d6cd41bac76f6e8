package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/libklein/nand2tetris/internal/fileutil"
	"github.com/libklein/nand2tetris/jack"
)

var (
	verbose    bool
	dumpTokens bool
)

var rootCmd = &cobra.Command{
	Use:   "compiler <path>",
	Short: "Compile Jack classes to VM code",
	Long: `Compile a .jack file, or every .jack file in a directory, to a
sibling .vm file.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetLevel(log.DebugLevel)
		}

		files, _, err := fileutil.Collect(args[0], ".jack")
		if err != nil {
			return err
		}

		for _, file := range files {
			log.Infof("compiling %q", file)
			if err := compileFile(file); err != nil {
				return err
			}
		}
		return nil
	},
}

func compileFile(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read %q: %w", path, err)
	}

	if dumpTokens {
		if err := dumpTokenListing(path, src); err != nil {
			return err
		}
	}

	outputPath := fileutil.ReplaceExt(path, ".vm")
	output, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("cannot open %q for writing: %w", outputPath, err)
	}
	defer output.Close()

	if err := jack.Compile(path, src, output); err != nil {
		return err
	}
	log.Infof("saved %q", outputPath)
	return nil
}

func dumpTokenListing(path string, src []byte) error {
	xml, err := jack.TokensXML(path, src)
	if err != nil {
		return err
	}
	listingPath := fileutil.ReplaceExt(path, "T.xml")
	if err := os.WriteFile(listingPath, []byte(xml), 0644); err != nil {
		return fmt.Errorf("cannot write %q: %w", listingPath, err)
	}
	return nil
}

func main() {
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.Flags().BoolVar(&dumpTokens, "tokens", false, "also write the token listing to <stem>T.xml")

	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
