package resolve

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	slogcontext "github.com/veqryn/slog-context"
	"golang.org/x/sync/errgroup"

	"ocm.software/open-component-model/presentation/catalog"
	"ocm.software/open-component-model/presentation/config"
	"ocm.software/open-component-model/presentation/internal/flags/enum"
	"ocm.software/open-component-model/presentation/presentation"
	"ocm.software/open-component-model/presentation/ref"
	"ocm.software/open-component-model/presentation/resolution"
)

const (
	FlagCatalog          = "catalog"
	FlagConfig           = "config"
	FlagDefaultKind      = "default-kind"
	FlagDefaultNamespace = "default-namespace"
	FlagVariant          = "variant"
	FlagOutput           = "output"
	FlagWait             = "wait"

	DefaultWait = 5 * time.Second
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "resolve {reference}...",
		Aliases: []string{"res", "r"},
		Short:   "Resolve entity references against a catalog file",
		Args:    cobra.MinimumNArgs(1),
		Long: fmt.Sprintf(`Resolve entity references into display snapshots.

The format of an entity reference is:
	[kind:][namespace/]name

If no namespace is given, %[1]q or the value of --%[2]s is used. References
without a kind require --%[3]s.

Every reference is rendered immediately from the reference itself. All references are
then fetched from the catalog in as few bulk requests as possible and rendered again
once their data arrived, unless --%[4]s elapses first.
`, ref.DefaultNamespace, FlagDefaultNamespace, FlagDefaultKind, FlagWait),
		Example: strings.TrimSpace(`
Resolving references against a catalog file:

resolve --catalog catalog.yaml user:default/jdoe group:team-alpha
resolve --catalog catalog.yaml --default-kind component checkout payments/ledger -ojson

Only printing what is known without waiting for the catalog:

resolve --catalog catalog.yaml --wait 0 user:jdoe
`),
		RunE:              ResolveReferences,
		DisableAutoGenTag: true,
	}

	cmd.Flags().String(FlagCatalog, "", "path to a YAML or JSON file with the catalog entities")
	_ = cmd.MarkFlagRequired(FlagCatalog)
	cmd.Flags().String(FlagConfig, "", "path to a YAML or JSON resolver configuration")
	cmd.Flags().String(FlagDefaultKind, "", "kind applied to references without a kind")
	cmd.Flags().String(FlagDefaultNamespace, "", "namespace applied to references without a namespace")
	enum.Var(cmd.Flags(), FlagVariant, []string{string(presentation.VariantText), string(presentation.VariantIcon)}, "presentation variant")
	enum.VarP(cmd.Flags(), FlagOutput, "o", Encodings[string](), "output format of the snapshots")
	cmd.Flags().Duration(FlagWait, DefaultWait, "maximum time to wait for catalog data, 0 prints immediate snapshots only")

	return cmd
}

func ResolveReferences(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := slogcontext.FromCtx(ctx)

	output, err := enum.Get(cmd.Flags(), FlagOutput)
	if err != nil {
		return fmt.Errorf("getting output flag failed: %w", err)
	}
	wait, err := cmd.Flags().GetDuration(FlagWait)
	if err != nil {
		return fmt.Errorf("getting wait flag failed: %w", err)
	}
	catalogPath, err := cmd.Flags().GetString(FlagCatalog)
	if err != nil {
		return fmt.Errorf("getting catalog flag failed: %w", err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	entities, err := catalog.LoadFile(catalogPath)
	if err != nil {
		return fmt.Errorf("could not load catalog: %w", err)
	}
	logger.DebugContext(ctx, "loaded catalog", "path", catalogPath, "entities", entities.Len())

	opts := cfg.Options()
	if wait <= 0 {
		// nothing would wait for the refresh phase
		opts.Async = false
	}
	opts.Logger = logr.FromSlogHandler(logger.Handler()).WithName("resolver")
	resolver := resolution.NewResolver(entities, opts)

	results, err := resolveAll(ctx, resolver, cfg.Context(), wait, args)
	if err != nil {
		return err
	}

	data, err := encodeResults(EncodingType(output), results)
	if err != nil {
		return err
	}
	if _, err := cmd.OutOrStdout().Write(data); err != nil {
		return fmt.Errorf("writing output failed: %w", err)
	}
	return nil
}

// loadConfig merges the configuration file with the flags set on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	fileCfg := &config.Config{}
	if path, _ := cmd.Flags().GetString(FlagConfig); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		fileCfg = loaded
	}

	flagCfg := &config.Config{}
	if cmd.Flags().Changed(FlagVariant) {
		variant, err := enum.Get(cmd.Flags(), FlagVariant)
		if err != nil {
			return nil, fmt.Errorf("getting variant flag failed: %w", err)
		}
		flagCfg.Variant = presentation.Variant(variant)
	}
	flagCfg.DefaultKind, _ = cmd.Flags().GetString(FlagDefaultKind)
	flagCfg.DefaultNamespace, _ = cmd.Flags().GetString(FlagDefaultNamespace)

	cfg := config.Merge(fileCfg, flagCfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveAll resolves every reference concurrently while the resolver runs.
func resolveAll(ctx context.Context, resolver *resolution.Resolver, rctx presentation.Context, wait time.Duration, refs []string) ([]Resolved, error) {
	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	var runner errgroup.Group
	runner.Go(func() error {
		return resolver.Start(runCtx)
	})

	results := make([]Resolved, len(refs))
	eg, egctx := errgroup.WithContext(ctx)
	for i, input := range refs {
		eg.Go(func() error {
			snapshot, update := resolver.Resolve(egctx, input, rctx)
			results[i] = Resolved{Input: input, Snapshot: snapshot}
			if wait <= 0 {
				return nil
			}

			waitCtx, cancel := context.WithTimeout(egctx, wait)
			defer cancel()
			if updated, ok := update.Wait(waitCtx); ok {
				results[i] = Resolved{Input: input, Snapshot: updated, Updated: true}
			}
			return nil
		})
	}
	err := eg.Wait()

	stop()
	if runErr := runner.Wait(); runErr != nil && err == nil {
		err = fmt.Errorf("resolver failed: %w", runErr)
	}
	if err != nil {
		return nil, err
	}
	return results, nil
}
