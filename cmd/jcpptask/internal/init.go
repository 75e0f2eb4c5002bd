package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goplus/jcpptask/internal/taskfile"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init [class-or-package]...",
	Short: "Create a task file",
	Long:  `Init creates a new jcpptask.yaml in the current directory.`,
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

const taskTemplate = `# jcpptask task file, rendered as a Go template before parsing.
classPath:
  - target/classes
outputDirectory: target/native/{{ .Platform }}
classOrPackageNames:
%s
# includePath: [/usr/lib/jvm/default/include]
# propertyKeysAndValues:
#   platform.compiler: g++
`

func runInit(cmd *cobra.Command, args []string) error {
	return writeTaskFile(filepath.Join(".", taskfile.DefaultName), args)
}

func writeTaskFile(path string, classes []string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", filepath.Base(path))
	}
	if len(classes) == 0 {
		classes = []string{"com.example.*"}
	}
	lines := make([]string, len(classes))
	for i, c := range classes {
		lines[i] = fmt.Sprintf("  - %q", c)
	}
	content := fmt.Sprintf(taskTemplate, strings.Join(lines, "\n"))
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	fmt.Printf("Initialized %s\n", path)
	return nil
}
