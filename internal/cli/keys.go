package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jdemeulenaere/compose-driver/internal/ui"
)

// KeyInfo is one entry of the key table.
type KeyInfo struct {
	Name string `json:"name"`
	Code int    `json:"code"`
}

// NewKeysCommand creates the keys command.
func NewKeysCommand(rootOpts *RootOptions) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "keys",
		Short: "List key names accepted by /keyEvent",
		Long: `List the key names accepted by the key and modifiers parameters of
/keyEvent, with their key codes.

Examples:
  compose-driver keys
  compose-driver keys --filter shift`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			keys := matchingKeys(filter)

			if formatter.IsJSON() {
				return formatter.Success(keys)
			}
			for _, k := range keys {
				fmt.Fprintf(formatter.Writer, "%-20s %d\n", k.Name, k.Code)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "show only names containing this text (case-insensitive)")

	return cmd
}

func matchingKeys(filter string) []KeyInfo {
	filter = strings.ToLower(filter)
	out := []KeyInfo{}
	for _, k := range ui.Keys() {
		if filter != "" && !strings.Contains(strings.ToLower(k.Name), filter) {
			continue
		}
		out = append(out, KeyInfo{Name: k.Name, Code: k.Code})
	}
	return out
}
