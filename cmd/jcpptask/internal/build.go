package internal

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/goplus/jcpptask/builder"
	"github.com/goplus/jcpptask/internal/env"
	"github.com/goplus/jcpptask/internal/extprops"
	"github.com/goplus/jcpptask/internal/taskfile"
	"github.com/goplus/jcpptask/task"
	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"
)

var (
	buildSkip      bool
	buildOutputDir string
	buildDefines   []string
	buildProps     string
	buildPrefix    string
	buildJar       string
	buildJava      string
)

var buildCmd = &cobra.Command{
	Use:   "build [task.yaml]",
	Short: "Run the JavaCPP Builder for a task file",
	Long: `Build loads the task file (jcpptask.yaml by default), runs the JavaCPP Builder
or the task's build command, and publishes the resolved properties to the
project's extra properties file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func init() {
	flags := buildCmd.Flags()
	flags.BoolVar(&buildSkip, "skip", false, "Skip execution of the builder")
	flags.StringVarP(&buildOutputDir, "output-dir", "d", "", "Override the output directory")
	flags.StringArrayVarP(&buildDefines, "define", "D", nil, "Set a builder property, key=value")
	flags.StringVar(&buildProps, "props", "", "Extra properties file (default <task dir>/.jcpptask/extra.yaml)")
	flags.StringVar(&buildPrefix, "prefix", task.DefaultPrefix, "Prefix of published property keys")
	flags.StringVar(&buildJar, "javacpp-jar", "", "Class path of the JavaCPP Builder (default $"+env.JarEnv+")")
	flags.StringVar(&buildJava, "java", "", "Java launcher (default $JAVA_HOME/bin/java)")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	path := taskfile.DefaultName
	if len(args) > 0 {
		path = args[0]
	}
	t, err := taskfile.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load task: %w", err)
	}
	if err := applyOverrides(t, buildSkip, buildOutputDir, buildDefines); err != nil {
		return err
	}

	propsPath := buildProps
	if propsPath == "" {
		root, err := filepath.Abs(filepath.Dir(path))
		if err != nil {
			return err
		}
		propsPath = env.ExtraPropsFile(root)
	}
	ns, err := extprops.Open(propsPath)
	if err != nil {
		return fmt.Errorf("failed to open extra properties: %w", err)
	}

	java := buildJava
	if java == "" {
		java = env.Java()
	}
	runner := &task.Runner{
		NewBuilder: builder.JavaCPPFactory(java, env.ToolClassPath(buildJar)),
		Namespace:  ns,
		Prefix:     buildPrefix,
		Logger:     log.Std,
		Executor:   builder.NewExecExecutor(log.Std),
	}
	res, err := runner.Run(cmd.Context(), t)
	if err != nil {
		return err
	}
	if res.Skipped {
		return nil
	}
	if err := ns.Save(); err != nil {
		return fmt.Errorf("failed to save extra properties: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, f := range res.Files {
		fmt.Fprintln(out, f)
	}
	for _, d := range res.SourceDirs {
		fmt.Fprintf(out, "source dir: %s\n", d)
	}
	return nil
}

// applyOverrides folds command line flags into t.
func applyOverrides(t *task.BuildTask, skip bool, outputDir string, defines []string) error {
	if skip {
		t.Skip = true
	}
	if outputDir != "" {
		abs, err := filepath.Abs(outputDir)
		if err != nil {
			return err
		}
		t.OutputDirectory = abs
	}
	for _, d := range defines {
		k, v, err := parseDefine(d)
		if err != nil {
			return err
		}
		if t.PropertyKeysAndValues == nil {
			t.PropertyKeysAndValues = make(map[string]string)
		}
		t.PropertyKeysAndValues[k] = v
	}
	return nil
}

// parseDefine splits "key=value". A bare key means an empty value.
func parseDefine(s string) (key, value string, err error) {
	key, value, _ = strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", fmt.Errorf("invalid property %q: empty key", s)
	}
	return key, value, nil
}
