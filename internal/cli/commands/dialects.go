package commands

import (
	"encoding/json"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlgen/internal/config"
	"github.com/leapstack-labs/sqlgen/pkg/dialect"
)

// DialectInfo summarizes a registered dialect.
type DialectInfo struct {
	Name             string `json:"name"`
	Paging           string `json:"paging"`
	Upsert           string `json:"upsert"`
	Identity         string `json:"identity"`
	Skip             bool   `json:"skip"`
	SubQueryColumn   bool   `json:"subquery_column"`
	MultiTableUpdate bool   `json:"multi_table_update"`
	MultiTableDelete bool   `json:"multi_table_delete"`
	ApplyJoin        bool   `json:"apply_join"`
	MaxInListValues  int    `json:"max_in_list_values"`
}

// NewDialectsCommand creates the dialects command.
func NewDialectsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dialects",
		Short: "List the registered dialects and their capabilities",
		Long: `List every registered dialect with the capabilities the rewriter consults.

Capability overrides from the configuration file, SQLGEN_FLAGS_* variables
or --max-in-list are applied to the configured dialect only.`,
		Args: cobra.NoArgs,
		RunE: runDialects,
	}
}

func runDialects(cmd *cobra.Command, _ []string) error {
	cfg := config.FromContext(cmd.Context())

	infos := make([]DialectInfo, 0, len(dialect.List()))
	for _, name := range dialect.List() {
		d, _ := dialect.Get(name)
		if name == cfg.DialectName {
			configured, err := cfg.Dialect()
			if err != nil {
				return err
			}
			d = configured
		}
		infos = append(infos, describeDialect(d))
	}

	if cfg.Output == config.OutputJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{
		"Name", "Paging", "Upsert", "Identity", "Skip",
		"Subquery Column", "Multi-Table Update", "Multi-Table Delete", "Apply Join", "Max In List",
	})
	for _, info := range infos {
		maxIn := "-"
		if info.MaxInListValues > 0 {
			maxIn = strconv.Itoa(info.MaxInListValues)
		}
		t.AppendRow(table.Row{
			info.Name, info.Paging, info.Upsert, info.Identity, yesNo(info.Skip),
			yesNo(info.SubQueryColumn), yesNo(info.MultiTableUpdate), yesNo(info.MultiTableDelete),
			yesNo(info.ApplyJoin), maxIn,
		})
	}
	t.Render()
	return nil
}

func describeDialect(d *dialect.Dialect) DialectInfo {
	return DialectInfo{
		Name:             d.Name,
		Paging:           d.Paging.Emulation.String(),
		Upsert:           d.Upsert.String(),
		Identity:         identityName(d.Identity),
		Skip:             d.Flags.IsSkipSupported,
		SubQueryColumn:   d.Flags.IsSubQueryColumnSupported,
		MultiTableUpdate: d.Flags.IsMultiTableUpdateSupported,
		MultiTableDelete: d.Flags.IsMultiTableDeleteSupported,
		ApplyJoin:        d.Flags.IsApplyJoinSupported,
		MaxInListValues:  d.Flags.MaxInListValuesCount,
	}
}

func identityName(p dialect.IdentityPlacement) string {
	switch p {
	case dialect.IdentityInline:
		return "inline"
	case dialect.IdentitySecondCommand:
		return "second command"
	case dialect.IdentityReturning:
		return "returning"
	default:
		return "none"
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
