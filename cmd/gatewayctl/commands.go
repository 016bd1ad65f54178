package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/eaidesk/gateway/internal/assetserver"
	"github.com/eaidesk/gateway/internal/content"
	"github.com/eaidesk/gateway/internal/gateway"
)

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get URL [key=value...]",
		Short: "GET with query parameters",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseFields(args[1:])
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), a.client.Get(cmd.Context(), args[0], p, nil))
		},
	}
}

func newPostCmd(a *app) *cobra.Command {
	var repeatable bool
	cmd := &cobra.Command{
		Use:   "post URL [key=value...]",
		Short: "POST a form-encoded body",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseFields(args[1:])
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), a.client.Post(cmd.Context(), args[0], p, gateway.Extend{"repeatable": repeatable}))
		},
	}
	cmd.Flags().BoolVar(&repeatable, "repeatable", false, "skip duplicate-request suppression")
	return cmd
}

type jsonCall func(a *app, ctx context.Context, url string, body any) gateway.Result

func (a *app) postJSON(ctx context.Context, url string, body any) gateway.Result {
	return a.client.PostJSON(ctx, url, body, nil)
}

func (a *app) patchJSON(ctx context.Context, url string, body any) gateway.Result {
	return a.client.PatchJSON(ctx, url, body, nil)
}

func newJSONCmd(a *app, use, short string, call jsonCall) *cobra.Command {
	return &cobra.Command{
		Use:   use + " URL JSON",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var body any
			if err := json.Unmarshal([]byte(args[1]), &body); err != nil {
				return fmt.Errorf("invalid JSON body: %w", err)
			}
			return printResult(cmd.OutOrStdout(), call(a, cmd.Context(), args[0], body))
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete URL",
		Short: "DELETE a resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResult(cmd.OutOrStdout(), a.client.Delete(cmd.Context(), args[0], nil))
		},
	}
}

func newUploadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "upload URL FILE [key=value...]",
		Short: "Upload a file as multipart form data",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseFields(args[2:])
			if err != nil {
				return err
			}
			res, err := a.client.UploadFile(cmd.Context(), args[0], args[1], fields)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), res)
		},
	}
}

func newDownloadCmd(a *app) *cobra.Command {
	var method string
	cmd := &cobra.Command{
		Use:   "download API [key=value...]",
		Short: "Download a file into the configured download directory",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseFields(args[1:])
			if err != nil {
				return err
			}
			if err := a.client.Download(cmd.Context(), args[0], method, p, nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), gateway.DownloadName(args[0], a.cfg.Download.PrefixLength))
			return nil
		},
	}
	cmd.Flags().StringVarP(&method, "method", "X", "GET", "GET or POST")
	return cmd
}

func newDictCmd(a *app) *cobra.Command {
	var all bool
	var prefix string
	cmd := &cobra.Command{
		Use:   "dict CODE",
		Short: "Fetch a dictionary by code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResult(cmd.OutOrStdout(), a.client.GetDict(cmd.Context(), args[0], all, prefix))
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include disabled entries")
	cmd.Flags().StringVar(&prefix, "prefix", "", "service path prefix")
	return cmd
}

func newBusinessConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "business-config MODULE CODE",
		Short: "Fetch a business module configuration entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResult(cmd.OutOrStdout(), a.client.GetBusinessConfig(cmd.Context(), args[0], args[1]))
		},
	}
}

func newLoginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login TOKEN",
		Short: "Store the session token sent with every request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.SetToken(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to store token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "token stored")
			return nil
		},
	}
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.store.Reset(cmd.Context())
		},
	}
}

func newRenderCmd(a *app) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:       "render user|assistant PAYLOAD",
		Short:     "Normalize a stored chat message and render it in the terminal",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"user", "assistant"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var md string
			switch args[0] {
			case "user":
				u, err := content.UserFrom(args[1])
				if err != nil {
					return err
				}
				if u.IsEmpty() {
					return nil
				}
				md = u.ToMd(content.AssetOrigin{Origin: a.cfg.Content.AssetOrigin}, a.cfg.Content.PathSeparator)
			case "assistant":
				md = content.AssistantFrom(args[1], a.cfg.Content.AssetOrigin).ToMd()
			default:
				return fmt.Errorf("unknown role %q", args[0])
			}

			if raw {
				fmt.Fprintln(cmd.OutOrStdout(), md)
				return nil
			}
			r, err := glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(80),
			)
			if err != nil {
				return err
			}
			out, err := r.Render(md)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the normalized markdown without rendering")
	return cmd
}

func newOpenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "open PATH",
		Short: "Open an attached file the way a file-card click does",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.delegate.Click(cmd.Context(), content.ParseFileCard(args[0], a.cfg.Content.PathSeparator))
		},
	}
}

func newAssetsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "assets",
		Short: "Serve local files for rendered chat content",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return assetserver.New(a.cfg.Assets.Root, a.cfg.Assets.Port, a.logger).Start(ctx)
		},
	}
}
