package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wavedeck/wavedeck/internal/chapter"
)

func newChaptersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chapters",
		Short: "Work with chapter marker files",
	}
	cmd.AddCommand(
		newChaptersSortCommand(),
		newChaptersImportCommand(),
	)
	return cmd
}

func newChaptersSortCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "sort FILE",
		Short: "Sort a chapter file by time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chapters, err := chapter.Load(args[0])
			if err != nil {
				return err
			}
			chapter.Sort(chapters)

			path := output
			if path == "" {
				path = args[0]
			}
			if err := chapter.Save(path, chapters); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sorted %d chapters into %s\n", len(chapters), path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a different file instead of rewriting FILE")
	return cmd
}

func newChaptersImportCommand() *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Convert YouTube-style chapter text into a chapter file",
		Long: `Reads lines like "1:30 Chorus" from stdin (or --input) and writes the
chapters they describe to FILE in wavedeck's chapter format.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, input)
			if err != nil {
				return err
			}

			chapters := chapter.ParseYouTube(text)
			if len(chapters) == 0 {
				return errors.New("no chapters found in input")
			}
			if err := chapter.Save(args[0], chapters); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d chapters into %s\n", len(chapters), args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Read chapter text from a file instead of stdin")
	return cmd
}

func readInput(cmd *cobra.Command, path string) (string, error) {
	if path != "" && path != "-" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read input file: %w", err)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}
