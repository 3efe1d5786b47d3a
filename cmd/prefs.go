package cmd

import (
	"fmt"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/andresmejia3/facebridge/internal/bridge"
	"github.com/andresmejia3/facebridge/internal/utils"
	"github.com/spf13/cobra"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show the durable state left by the last capture session",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		all, err := Prefs.All(cmd.Context())
		if err != nil {
			utils.Die("Failed to read preferences", err, nil)
		}

		if len(all) == 0 {
			fmt.Println("No preferences recorded yet.")
			return
		}

		keys := make([]string, 0, len(all))
		for k := range all {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "KEY\tVALUE")
		fmt.Fprintln(w, "---\t-----")
		for _, k := range keys {
			v := all[k]
			if k == bridge.KeyLiveImage {
				v = fmt.Sprintf("%s (%d chars)", utils.Truncate(v, 24), len(v))
			}
			fmt.Fprintf(w, "%s\t%s\n", k, v)
		}
		w.Flush()
	},
}

var prefsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Overwrite a preference, e.g. to clear hasimage before the next session",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if err := Prefs.Set(cmd.Context(), args[0], args[1]); err != nil {
			utils.Die("Failed to write preference", err, nil)
		}
		fmt.Printf("✅ %s = %s\n", args[0], args[1])
	},
}

func init() {
	prefsCmd.AddCommand(prefsSetCmd)
	rootCmd.AddCommand(prefsCmd)
}
