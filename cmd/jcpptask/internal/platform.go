package internal

import (
	"fmt"
	"io"
	"sort"

	"github.com/goplus/jcpptask/builder"
	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"
)

var (
	platformKey      string
	platformResource string
	platformList     bool
)

var platformCmd = &cobra.Command{
	Use:   "platform",
	Short: "Show platform properties",
	Long:  `Platform prints the built-in property table of the detected (or given) platform.`,
	Args:  cobra.NoArgs,
	RunE:  runPlatform,
}

func init() {
	platformCmd.Flags().StringVarP(&platformKey, "property", "p", "", "Print a single property")
	platformCmd.Flags().StringVar(&platformResource, "properties", "", "Platform resource (default: detected)")
	platformCmd.Flags().BoolVarP(&platformList, "list", "l", false, "List the known platforms")
	rootCmd.AddCommand(platformCmd)
}

func runPlatform(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if platformList {
		for _, name := range builder.Resources() {
			fmt.Fprintln(out, name)
		}
		return nil
	}
	return printPlatform(out, platformResource, platformKey)
}

func printPlatform(out io.Writer, resource, key string) error {
	props, err := builder.ResolveProperties(builder.Options{PropertyResource: resource}, log.Std)
	if err != nil {
		return err
	}
	if key != "" {
		v, ok := props.Get(key)
		if !ok {
			return fmt.Errorf("property %s is not set", key)
		}
		fmt.Fprintln(out, v)
		return nil
	}
	m := props.Map()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "%s=%s\n", k, m[k])
	}
	return nil
}
