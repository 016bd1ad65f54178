package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// errRequestFailed marks a call whose envelope was printed but did not succeed.
var errRequestFailed = errors.New("request failed")

func main() {
	root, a := newRootCmd()
	err := root.Execute()
	if cerr := a.Close(context.Background()); cerr != nil {
		fmt.Fprintln(os.Stderr, "Error:", cerr)
	}
	if err != nil {
		if !errors.Is(err, errRequestFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. The caller closes the returned app
// once Execute returns.
func newRootCmd() (*cobra.Command, *app) {
	var configPath string
	a := &app{}

	root := &cobra.Command{
		Use:   "gatewayctl",
		Short: "Call the desk API through the request gateway",
		Long: `gatewayctl sends requests through the same gateway the desk client uses:
session headers, duplicate-request suppression, response classification
and the re-login guard all apply.

Configuration is read from gateway.yaml (or --config) and EAI_* environment
variables, e.g. EAI_API__BASE_URL=http://10.0.0.5:8899.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.Context(), configPath, cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default gateway.yaml)")

	root.AddCommand(
		newGetCmd(a),
		newPostCmd(a),
		newJSONCmd(a, "post-json", "POST a JSON body", (*app).postJSON),
		newJSONCmd(a, "patch-json", "PATCH a JSON body", (*app).patchJSON),
		newDeleteCmd(a),
		newUploadCmd(a),
		newDownloadCmd(a),
		newDictCmd(a),
		newBusinessConfigCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newRenderCmd(a),
		newOpenCmd(a),
		newAssetsCmd(a),
	)
	return root, a
}
