package main

import (
	"fmt"

	"github.com/nulzo/care-assist/internal/ai"
	"github.com/nulzo/care-assist/internal/cli"
	"github.com/nulzo/care-assist/internal/features/alttext"
	"github.com/nulzo/care-assist/internal/features/seochat"
	"github.com/nulzo/care-assist/internal/platform/logger"
	"github.com/spf13/cobra"
)

func parsePreferred(value string) (ai.ProviderName, error) {
	if value == "" {
		return "", nil
	}
	name, ok := ai.ParseProviderName(value)
	if !ok {
		return "", fmt.Errorf("unknown provider %q (want one of %v)", value, ai.Providers())
	}
	return name, nil
}

func newAltTextCommand(ctx *commandContext) *cobra.Command {
	var req alttext.Request
	var provider string

	cmd := &cobra.Command{
		Use:   "alt-text <image-url>",
		Short: "Generate title, caption, alt text and description for one image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if req.Preferred, err = parsePreferred(provider); err != nil {
				return err
			}
			req.ImageURL = args[0]

			logger.Initialize(logger.DefaultConfig())
			a, err := newApp(cmd.Context(), cfg, logger.Get())
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.altText.Generate(cmd.Context(), req)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), cli.CrossMark(), err)
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.CheckMark(), "Generated by", res.Provider)
			cli.PrettyPrint(cmd.OutOrStdout(), res)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Filename, "filename", "", "Original file name")
	cmd.Flags().StringVar(&req.PageTitle, "page-title", "", "Title of the page the image appears on")
	cmd.Flags().StringVar(&req.Context, "context", "", "Surrounding page content")
	cmd.Flags().StringVar(&provider, "provider", "", "Preferred provider for this request")
	return cmd
}

func newChatCommand(ctx *commandContext) *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "chat <message>",
		Short: "Ask the SEO assistant a single question",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			preferred, err := parsePreferred(provider)
			if err != nil {
				return err
			}

			logger.Initialize(logger.DefaultConfig())
			a, err := newApp(cmd.Context(), cfg, logger.Get())
			if err != nil {
				return err
			}
			defer a.Close()

			reply, err := a.chat.Reply(cmd.Context(), seochat.Request{Message: args[0], Preferred: preferred})
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), cli.CrossMark(), err)
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.Arrow(), cli.Style(string(reply.Provider), cli.Bold))
			fmt.Fprintln(cmd.OutOrStdout(), reply.Reply)
			return nil
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Preferred provider for this request")
	return cmd
}
