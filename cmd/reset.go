package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/andresmejia3/facebridge/internal/utils"
	"github.com/spf13/cobra"
)

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the durable session state (hasvectorimage, hasimage, liveUserImg)",
	Run: func(cmd *cobra.Command, args []string) {
		reader := bufio.NewReader(os.Stdin)

		if !resetYes && !confirm(reader, fmt.Sprintf("⚠️  Are you sure you want to clear all preferences (%s backend)?", Cfg.Prefs.Backend)) {
			fmt.Println("Aborted.")
			return
		}

		fmt.Println("🗑️  Clearing Preferences...")
		if err := Prefs.Reset(cmd.Context()); err != nil {
			utils.Die("Failed to reset preferences", err, nil)
		}

		fmt.Println("✨ Reset Complete.")
	},
}

func init() {
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(resetCmd)
}

func confirm(r *bufio.Reader, prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	res, _ := r.ReadString('\n')
	res = strings.TrimSpace(strings.ToLower(res))
	return res == "y" || res == "yes"
}
