package cli

import (
	"github.com/spf13/cobra"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
)

// filterFlags binds the --type, --from and --to flags.
type filterFlags struct {
	types []string
	from  string
	to    string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.types, "type", "t", nil,
		"restrict to source types (general, exam, holiday, academic_calendar, course)")
	cmd.Flags().StringVar(&f.from, "from", "", "earliest publication date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "latest publication date (YYYY-MM-DD)")
}

func (f *filterFlags) filters() (domain.Filters, error) {
	return domain.ParseFilters(f.types, f.from, f.to)
}

func (f *filterFlags) reset() {
	f.types, f.from, f.to = nil, "", ""
}
