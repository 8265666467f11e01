package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/stdiopt/rollup/cmd/rollup/config"
	"github.com/stdiopt/rollup/dpath"
	"github.com/stdiopt/rollup/drow"
	"github.com/stdiopt/rollup/dtree"
	"github.com/stdiopt/rollup/etl"
	"github.com/stdiopt/rollup/etl/etlcsv"
	"github.com/stdiopt/rollup/etl/etldrow"
	"github.com/stdiopt/rollup/etl/etljson"
	"github.com/stdiopt/rollup/etl/etlmetrics"
	"github.com/stdiopt/rollup/etl/x/etlparquet"
	"github.com/stdiopt/rollup/util/dagg"
	"go.uber.org/zap"
)

// bindFlags adds the flags that override config values shared by every
// command.
func (a *app) bindFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("input", "i", "", "input file, directory or bucket url, - for stdin")
	f.StringP("output", "o", "", "output file, - for stdout")
	f.String("format", "", "input format: auto, json, zip, parquet, csv")
	f.String("output-format", "", "output format: tree, rows, parquet, csv, text")
	f.StringSlice("keys", nil, "group keys, outermost first")
	f.Int("workers", 0, "parallel reduce shards")
}

// applyFlags copies the flags set on cmd into the config and validates it.
func (a *app) applyFlags(cmd *cobra.Command) error {
	f := cmd.Flags()
	str := func(name string, dst *string) {
		if f.Changed(name) {
			*dst, _ = f.GetString(name)
		}
	}
	str("input", &a.cfg.Input)
	str("output", &a.cfg.Output)
	str("format", &a.cfg.Format)
	str("output-format", &a.cfg.OutputFormat)
	if f.Changed("keys") {
		a.cfg.GroupKeys, _ = f.GetStringSlice("keys")
	}
	if f.Changed("workers") {
		a.cfg.Workers, _ = f.GetInt("workers")
	}
	return a.cfg.Validate()
}

func (a *app) reducer() (dtree.Reducer, error) {
	if len(a.cfg.Reduce) > 0 {
		return dtree.ParseReducer(a.cfg.Reduce)
	}
	kind, err := dagg.ParseKind(a.cfg.Default)
	if err != nil {
		return dtree.Reducer{}, err
	}
	return dtree.All(kind), nil
}

func (a *app) reduceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reduce",
		Short: "Reduce records into an aggregate tree",
		Example: `  rollup reduce -c rollup.yaml -i exports/regions.zip
  rollup reduce --keys belt,type_group -i part-0.json -o tree.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.applyFlags(cmd); err != nil {
				return err
			}
			return a.runReduce(cmd.Context())
		},
	}
	a.bindFlags(cmd)
	return cmd
}

func (a *app) runReduce(ctx context.Context) error {
	cfg := a.cfg
	log := a.logger.With(zap.String("input", cfg.Input))

	r, err := a.reducer()
	if err != nil {
		return err
	}
	opts := []dtree.OptFunc{
		dtree.WithLogger(a.logger),
		dtree.WithWorkers(cfg.Workers),
	}
	if cfg.Carry {
		opts = append(opts, dtree.WithCarry())
	}
	if cfg.Merge != "" {
		t, err := a.loadTree(ctx, cfg.Merge)
		if err != nil {
			return fmt.Errorf("merge %s: %w", cfg.Merge, err)
		}
		opts = append(opts, dtree.WithTree(t))
	}

	src, err := a.records(ctx)
	if err != nil {
		return err
	}
	it, counts := etlmetrics.Progress(src, log, "records")
	defer it.Close()

	tree, err := dtree.ReduceGroups(ctx, it, r, cfg.GroupKeys, opts...)
	if err != nil {
		return err
	}
	log.Info("reduced", zap.Int("records", counts.Total), zap.Int("buckets", tree.Len()))
	return a.writeTree(ctx, tree)
}

func (a *app) flattenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flatten",
		Short: "Flatten records into path tagged leaves",
		Long: `flatten writes one row per leaf with the leaf path in the __path__
attribute, the rows can be reduced elsewhere and loaded back with rebuild.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.applyFlags(cmd); err != nil {
				return err
			}
			ctx := cmd.Context()
			it, err := a.records(ctx)
			if err != nil {
				return err
			}
			defer it.Close()

			leaves, n, err := dtree.FlattenIter(ctx, it, a.cfg.GroupKeys)
			if err != nil {
				return err
			}
			a.logger.Info("flattened", zap.Int("records", n), zap.Int("leaves", len(leaves)))

			rows := make([]drow.Row, len(leaves))
			for i, l := range leaves {
				rows[i] = dtree.ReducedRow(l).Encode()
			}
			return a.writeRows(ctx, rows)
		},
	}
	a.bindFlags(cmd)
	return cmd
}

func (a *app) rebuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild an aggregate tree from reduced rows",
		Long: `rebuild reads rows holding a __path__ attribute, as written by
reduce with the rows output format, and rebuilds the nested tree.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.applyFlags(cmd); err != nil {
				return err
			}
			ctx := cmd.Context()
			it, err := a.openRows(ctx, a.cfg.Input, a.cfg.Format, a.cfg.Pattern)
			if err != nil {
				return err
			}
			defer it.Close()

			rows, err := etl.CollectContext[drow.Row](ctx, it)
			if err != nil {
				return err
			}
			var tree *dtree.Tree
			if a.cfg.Merge != "" {
				if tree, err = a.loadTree(ctx, a.cfg.Merge); err != nil {
					return fmt.Errorf("merge %s: %w", a.cfg.Merge, err)
				}
			}
			tree, err = dtree.RebuildEncoded(rows, a.cfg.GroupKeys, tree)
			if err != nil {
				return err
			}
			return a.writeTree(ctx, tree)
		},
	}
	a.bindFlags(cmd)
	return cmd
}

// records opens the configured input with the select, rename and drop
// transforms applied. Reserved attributes always survive select.
func (a *app) records(ctx context.Context) (etl.Iter, error) {
	it, err := a.openRows(ctx, a.cfg.Input, a.cfg.Format, a.cfg.Pattern)
	if err != nil {
		return nil, err
	}
	if len(a.cfg.Select) > 0 {
		names := append([]string{}, a.cfg.Select...)
		names = append(names,
			drow.KeyGroups.String(),
			drow.KeyPath.String(),
			drow.KeyParentPath.String(),
		)
		it = etldrow.Select(it, names...)
	}
	for _, o := range a.cfg.RenameOrder() {
		it = etldrow.Rename(it, o, a.cfg.Rename[o])
	}
	return etldrow.Drop(it, a.cfg.Drop...), nil
}

func (a *app) initCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the defaults and the given flags",
		Example: `  rollup init --keys belt,type_group -i exports/ -o tree.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(a.configPath); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", a.configPath)
			}
			if err := a.applyFlags(cmd); err != nil {
				return err
			}
			if err := a.cfg.Save(a.configPath); err != nil {
				return err
			}
			a.logger.Info("config written", zap.String("path", a.configPath))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")
	a.bindFlags(cmd)
	return cmd
}

// loadTree reads a tree previously written with the tree output format.
func (a *app) loadTree(ctx context.Context, p string) (*dtree.Tree, error) {
	it, err := a.openBytes(ctx, p)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	rows, err := etl.CollectContext[drow.Row](ctx, etljson.DecodeRows(ctx, it))
	if err != nil {
		return nil, err
	}
	if len(rows) != 1 {
		return nil, fmt.Errorf("expected a single tree, got %d values", len(rows))
	}
	return dtree.FromRow(rows[0], a.cfg.GroupKeys)
}

func (a *app) writeTree(ctx context.Context, tree *dtree.Tree) error {
	switch a.cfg.OutputFormat {
	case config.OutputRows, config.OutputParquet, config.OutputCSV:
		leaves := tree.Leaves()
		rows := make([]drow.Row, len(leaves))
		for i, l := range leaves {
			rows[i] = l.Encode()
		}
		return a.writeRows(ctx, rows)
	case config.OutputText:
		return a.writeOutput(ctx, etl.Values([]byte(treeText(tree))))
	default:
		data, err := json.Marshal(tree)
		if err != nil {
			return err
		}
		return a.writeOutput(ctx, etl.Values(append(data, '\n')))
	}
}

func (a *app) writeRows(ctx context.Context, rows []drow.Row) error {
	it := etl.Values(rows...)
	switch a.cfg.OutputFormat {
	case config.OutputParquet:
		return a.writeOutput(ctx, etlparquet.EncodeRows(it))
	case config.OutputCSV:
		return a.writeOutput(ctx, etlcsv.Encode(it))
	default:
		return a.writeOutput(ctx, etljson.Encode(it))
	}
}

// treeText renders one indented line per node.
func treeText(tree *dtree.Tree) string {
	sb := &strings.Builder{}
	_ = tree.Walk(func(p dpath.Path, n dtree.Node) error {
		fmt.Fprintf(sb, "%s%s=%d", strings.Repeat("  ", p.Len()-1), n.Key(), n.Value())
		if b, ok := n.(*dtree.Bucket); ok {
			for _, f := range b.Attrs {
				fmt.Fprintf(sb, " %s=%v", f.Name, f.Value)
			}
		}
		sb.WriteByte('\n')
		return nil
	})
	return sb.String()
}
