package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/doc-assistant/internal/chart"
	"github.com/joseph-ayodele/doc-assistant/internal/common"
	"github.com/joseph-ayodele/doc-assistant/internal/export"
	"github.com/joseph-ayodele/doc-assistant/internal/interpret"
	"github.com/joseph-ayodele/doc-assistant/internal/ocr"
	"github.com/joseph-ayodele/doc-assistant/internal/pipeline"
	"github.com/joseph-ayodele/doc-assistant/internal/session"
)

// errCapability marks a provider failure already printed to stderr.
var errCapability = errors.New("capability call failed")

// load reads config, builds the dispatcher and opens a session for path.
// requireKeys is false for commands that never call a provider.
func load(ctx context.Context, opts *rootOptions, path string, requireKeys bool) (*pipeline.Dispatcher, session.Session, error) {
	cfg, err := common.LoadConfig()
	if err != nil {
		return nil, session.Session{}, err
	}
	if requireKeys {
		if err := cfg.Validate(); err != nil {
			return nil, session.Session{}, err
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, session.Session{}, fmt.Errorf("read %s: %w", path, err)
	}
	d := pipeline.FromConfig(cfg, opts.logger)
	sess, err := d.Load(ctx, ocr.Document{Name: filepath.Base(path), Data: data})
	if err != nil {
		return nil, session.Session{}, err
	}
	return d, sess, nil
}

func printReply(w, errw io.Writer, reply session.Reply) error {
	if reply.Failed() {
		fmt.Fprintln(errw, reply.Error)
		return errCapability
	}
	fmt.Fprintln(w, reply.Text)
	return nil
}

func extractCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <file>",
		Short: "Print the text extracted from a PDF or image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, sess, err := load(cmd.Context(), opts, args[0], false)
			if err != nil {
				return err
			}
			for _, w := range sess.Warnings {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
			}
			if !sess.HasText() {
				return common.ErrNoText
			}
			fmt.Fprintln(cmd.OutOrStdout(), sess.Text)
			return nil
		},
	}
}

func summarizeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summarize <file>",
		Short: "Summarize a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, sess, err := load(cmd.Context(), opts, args[0], true)
			if err != nil {
				return err
			}
			reply, err := d.Summarize(cmd.Context(), sess.ID, opts.model)
			if err != nil {
				return err
			}
			return printReply(cmd.OutOrStdout(), cmd.ErrOrStderr(), reply)
		},
	}
}

func askCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <file> <question>",
		Short: "Answer a question using only the document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, sess, err := load(cmd.Context(), opts, args[0], true)
			if err != nil {
				return err
			}
			reply, err := d.Answer(cmd.Context(), sess.ID, opts.model, args[1])
			if err != nil {
				return err
			}
			return printReply(cmd.OutOrStdout(), cmd.ErrOrStderr(), reply)
		},
	}
}

func chartCmd(opts *rootOptions) *cobra.Command {
	var out string
	var xlsx string
	cmd := &cobra.Command{
		Use:   "chart <file> <instruction>",
		Short: "Build a table or chart from the document",
		Long: "Instructions mentioning \"chart\" produce chart data rendered to a PNG;\n" +
			"anything else produces a Markdown table printed to stdout.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, sess, err := load(cmd.Context(), opts, args[0], true)
			if err != nil {
				return err
			}
			reply, err := d.Visualize(cmd.Context(), sess.ID, opts.model, args[1])
			if err != nil {
				return err
			}
			if reply.Failed() || !reply.Visual.IsChart() {
				if err := printReply(cmd.OutOrStdout(), cmd.ErrOrStderr(), reply); err != nil {
					return err
				}
			} else {
				if err := writePNG(out, *reply.Visual.Chart); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s written to %s\n", reply.Visual.Chart.Title(), out)
			}
			if xlsx == "" {
				return nil
			}
			data, err := export.NewService(opts.logger).ResultXLSX(*reply.Visual)
			if err != nil {
				return err
			}
			if err := os.WriteFile(xlsx, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "spreadsheet written to %s\n", xlsx)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "chart.png", "PNG output path for chart data")
	cmd.Flags().StringVar(&xlsx, "xlsx", "", "also export the chart or table to this XLSX path")
	return cmd
}

func writePNG(path string, spec interpret.ChartSpec) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := chart.RenderPNG(spec, f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func speakCmd(opts *rootOptions) *cobra.Command {
	var out string
	var text string
	cmd := &cobra.Command{
		Use:   "speak <file>",
		Short: "Synthesize speech for the document (first 500 characters by default)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, sess, err := load(cmd.Context(), opts, args[0], true)
			if err != nil {
				return err
			}
			reply, err := d.Speak(cmd.Context(), sess.ID, opts.voice, text)
			if err != nil {
				return err
			}
			if reply.Failed() {
				return printReply(cmd.OutOrStdout(), cmd.ErrOrStderr(), reply)
			}
			sess, err = d.Session(sess.ID)
			if err != nil {
				return err
			}
			if out == "" {
				out = "speech" + filepath.Ext(sess.AudioPath)
			}
			if err := moveFile(sess.AudioPath, out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "audio written to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "audio output path (default speech.<ext>)")
	cmd.Flags().StringVar(&text, "text", "", "text to speak instead of the document prefill")
	return cmd
}

func imagineCmd(opts *rootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "imagine <file> <prompt>",
		Short: "Generate an image from a prompt (requires HF_API_KEY)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, sess, err := load(cmd.Context(), opts, args[0], true)
			if err != nil {
				return err
			}
			reply, err := d.Imagine(cmd.Context(), sess.ID, args[1])
			if err != nil {
				return err
			}
			if reply.Failed() {
				return printReply(cmd.OutOrStdout(), cmd.ErrOrStderr(), reply)
			}
			sess, err = d.Session(sess.ID)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, sess.Image, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "image written to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "image.png", "image output path")
	return cmd
}

// moveFile copies src to dst and removes src; the temp dir may be on another device.
func moveFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return err
	}
	return os.Remove(src)
}
