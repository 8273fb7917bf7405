// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package app wires the qcore pipeline into a thin CLI: read a QMD
// document, resolve its metadata against an optional project
// configuration layer, post-process, and write the requested format.
// Argument parsing stays deliberately minimal; the CLI surface itself is
// out of scope and exists to exercise the library end to end.
package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	klog "k8s.io/klog/v2"

	"github.com/quarto-go/qcore/pkg/ast"
	"github.com/quarto-go/qcore/pkg/configvalue"
	"github.com/quarto-go/qcore/pkg/diagnostics"
	"github.com/quarto-go/qcore/pkg/mergedconfig"
	"github.com/quarto-go/qcore/pkg/metatransform"
	"github.com/quarto-go/qcore/pkg/postprocess"
	"github.com/quarto-go/qcore/pkg/qmdreader"
	"github.com/quarto-go/qcore/pkg/sourcemap"
	"github.com/quarto-go/qcore/pkg/writers"
	htmlw "github.com/quarto-go/qcore/pkg/writers/html"
	"github.com/quarto-go/qcore/pkg/writers/jsonw"
	"github.com/quarto-go/qcore/pkg/writers/native"
	"github.com/quarto-go/qcore/pkg/writers/plainw"
	"github.com/quarto-go/qcore/pkg/writers/qmdw"
	"github.com/quarto-go/qcore/pkg/yamlreader"
)

var vip *viper.Viper

// NewCommand assembles the qcore root command.
func NewCommand(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "qcore <input.qmd>",
		Short: "qcore parses QMD documents and writes them in other formats",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			options := gatherOptions()
			options.ToExplicit = cmd.Flags().Changed("to")
			return run(ctx, args[0], options, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	Configure(cmd)
	klog.InitFlags(nil)

	return cmd
}

// Options are the resolved render options.
type Options struct {
	To               string
	ToExplicit       bool
	Loose            bool
	PruneErrors      bool
	IncludeLocations bool
	ProjectConfig    string
}

// Configure binds flags, environment, and the optional config file.
func Configure(command *cobra.Command) {
	vip = viper.New()

	command.Flags().StringP("to", "t", "native",
		"Output format: native, json, qmd, plain, html.")
	_ = vip.BindPFlag("to", command.Flags().Lookup("to"))

	command.Flags().Bool("loose", false,
		"Recover from malformed frontmatter instead of failing.")
	_ = vip.BindPFlag("loose", command.Flags().Lookup("loose"))

	command.Flags().Bool("prune-errors", false,
		"Drop unrecognized-node diagnostics from the report.")
	_ = vip.BindPFlag("prune-errors", command.Flags().Lookup("prune-errors"))

	command.Flags().Bool("include-locations", false,
		"Emit source locations in JSON output.")
	_ = vip.BindPFlag("include-locations", command.Flags().Lookup("include-locations"))

	command.Flags().StringP("project-config", "c", "",
		"Project configuration YAML layered under document metadata.")
	_ = vip.BindPFlag("project-config", command.Flags().Lookup("project-config"))

	vip.SetEnvPrefix("QCORE")
	vip.AutomaticEnv()
}

func gatherOptions() *Options {
	return &Options{
		To:               vip.GetString("to"),
		Loose:            vip.GetBool("loose"),
		PruneErrors:      vip.GetBool("prune-errors"),
		IncludeLocations: vip.GetBool("include-locations"),
		ProjectConfig:    vip.GetString("project-config"),
	}
}

func run(_ context.Context, inputPath string, options *Options, stdout, stderr io.Writer) error {
	content, err := os.ReadFile(inputPath)
	if err != nil {
		return err
	}

	diags := diagnostics.NewCollector()
	actx := ast.NewContext(sourcemap.NewSourceContext())
	reader := qmdreader.NewReader(actx, diags)

	// Read's returned diagnostics are a snapshot of the same collector
	// threaded through the rest of the pipeline; render everything once
	// at the end instead.
	doc, _, err := reader.Read(content, options.Loose, inputPath, stderr, options.PruneErrors, nil)
	if err != nil {
		return err
	}
	if err := qmdreader.ResolveMetadata(doc, diags); err != nil {
		return err
	}
	if err := postprocess.Postprocess(doc, diags); err != nil {
		return err
	}
	postprocess.MergeStrs(doc)
	actx.Doc = doc

	config, err := buildConfig(doc, actx, options, diags)
	if err != nil {
		return err
	}
	// An explicit --to wins; otherwise the merged configuration's
	// "format" scalar (document frontmatter over project config) picks
	// the output format.
	if !options.ToExplicit {
		if scalar, ok := config.GetScalar([]string{"format"}); ok {
			if format, isString := scalarString(scalar.Value); isString {
				options.To = format
			}
		}
	}

	writer, err := writerFor(options)
	if err != nil {
		return err
	}

	featureErrors := writer.Write(doc, actx, stdout)
	for _, d := range diags.Messages() {
		_ = diagnostics.RenderText(stderr, d, actx.Source)
	}
	for _, d := range featureErrors {
		_ = diagnostics.RenderText(stderr, d, actx.Source)
	}
	if len(featureErrors) > 0 {
		return fmt.Errorf("%d feature errors writing %s output", len(featureErrors), options.To)
	}
	return nil
}

// buildConfig stacks the optional project configuration under the
// document's frontmatter: the document layer wins on Prefer merges, the
// project layer seeds defaults.
func buildConfig(doc *ast.Pandoc, actx *ast.Context, options *Options, diags *diagnostics.Collector) (*mergedconfig.Config, error) {
	var layers []configvalue.ConfigValue

	if options.ProjectConfig != "" {
		raw, err := os.ReadFile(options.ProjectConfig)
		if err != nil {
			return nil, err
		}
		fileID := actx.Source.AddFile(options.ProjectConfig, raw)
		node, err := yamlreader.Parse(raw, fileID, actx.Source)
		if err != nil {
			return nil, err
		}
		transform := metatransform.NewTransform(metatransform.ProjectConfig,
			qmdreader.ParseFragment(diags), diags)
		layers = append(layers, transform.ToConfigValue(node))
	}

	if docLayer, ok := metaToConfigLayer(doc.Meta); ok {
		layers = append(layers, docLayer)
	}

	return mergedconfig.New(layers), nil
}

// metaToConfigLayer projects resolved document metadata into a
// ConfigValue map so it can participate in layered merging.
func metaToConfigLayer(meta ast.MetaValue) (configvalue.ConfigValue, bool) {
	if meta.Kind() != ast.MetaMapKind || len(meta.Entries()) == 0 {
		return configvalue.ConfigValue{}, false
	}
	return metaValueToConfig(meta), true
}

func metaValueToConfig(v ast.MetaValue) configvalue.ConfigValue {
	switch v.Kind() {
	case ast.MetaStringKind:
		return configvalue.NewString(v.String(), v.Info())
	case ast.MetaBoolKind:
		return configvalue.NewBool(v.Bool(), v.Info())
	case ast.MetaInlinesKind:
		return configvalue.NewPandocInlines(v.Inlines(), v.Info())
	case ast.MetaBlocksKind:
		return configvalue.NewPandocBlocks(v.Blocks(), v.Info())
	case ast.MetaListKind:
		items := make([]configvalue.ConfigValue, 0, len(v.List()))
		for _, item := range v.List() {
			items = append(items, metaValueToConfig(item))
		}
		return configvalue.NewArray(items, v.Info())
	case ast.MetaMapKind:
		entries := make([]configvalue.MapEntry, 0, len(v.Entries()))
		for _, e := range v.Entries() {
			entries = append(entries, configvalue.MapEntry{
				Key:       e.Key,
				KeySource: e.KeySource,
				Value:     metaValueToConfig(e.Value),
			})
		}
		return configvalue.NewMap(entries, v.Info())
	default:
		return configvalue.Null(v.Info())
	}
}

// scalarString reads a configuration scalar as text. Document metadata
// arrives markdown-interpreted, so a plain word like "plain" is a
// single-Str PandocInlines rather than a string Scalar.
func scalarString(v configvalue.ConfigValue) (string, bool) {
	if s, ok := v.AsString(); ok {
		return s, true
	}
	if v.Kind() == configvalue.KindPandocInlines {
		inlines := v.Inlines()
		if len(inlines) == 1 {
			if str, ok := inlines[0].(*ast.Str); ok {
				return str.Text, true
			}
		}
	}
	return "", false
}

func writerFor(options *Options) (writers.Writer, error) {
	switch options.To {
	case "native":
		return native.Writer{}, nil
	case "json":
		return jsonw.Writer{IncludeInlineLocations: options.IncludeLocations}, nil
	case "qmd":
		return qmdw.Writer{}, nil
	case "plain":
		return plainw.Writer{}, nil
	case "html":
		return htmlw.Writer{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", options.To)
	}
}
