package sweep

import (
	"fmt"
	"strings"

	"paramit/internal/config"
	"paramit/internal/logging"
)

// ConfirmThreshold is the experiment count above which the CLI asks for
// confirmation before running the sweep.
const ConfirmThreshold = 100

// ParameterError reports an override that cannot be applied: the name is
// absent from the base configuration, or the value cannot be coerced to
// the existing leaf's kind. ValidKeys carries the full set of overridable
// names for the diagnostic.
type ParameterError struct {
	Name      string
	Reason    string
	ValidKeys []string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("argument %s: %s (valid arguments: %s)",
		e.Name, e.Reason, strings.Join(e.ValidKeys, ", "))
}

// Expand applies single-value overrides to base in place and expands
// multi-value overrides into the Cartesian product of independent
// configuration copies. Dimensions nest in declaration order with the
// first-declared dimension varying slowest, so identical input always
// produces the same experiment order.
func Expand(base *config.Configuration, params []Parameter) ([]*config.Configuration, error) {
	var singles, ranges []Parameter
	for _, p := range params {
		if len(p.Values) > 1 {
			ranges = append(ranges, p)
		} else {
			singles = append(singles, p)
		}
	}

	for _, p := range singles {
		if err := apply(base, p.Name, p.Values[0]); err != nil {
			return nil, err
		}
	}

	if len(ranges) == 0 {
		return []*config.Configuration{base}, nil
	}

	combos := cartesian(ranges)
	logging.SweepDebug("expanding %d dimension(s) into %d experiment(s)", len(ranges), len(combos))

	configs := make([]*config.Configuration, 0, len(combos))
	for _, combo := range combos {
		cfg := base.DeepCopy()
		for i, p := range ranges {
			if err := apply(cfg, p.Name, combo[i]); err != nil {
				return nil, err
			}
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

// apply coerces value to the kind of the existing leaf and writes it.
func apply(cfg *config.Configuration, name string, value config.TaggedValue) error {
	current, ok := cfg.TopLevelScalar(name)
	if !ok {
		return &ParameterError{
			Name:      name,
			Reason:    "not found in the code or config",
			ValidKeys: cfg.ScalarKeys(),
		}
	}
	coerced, err := value.Coerce(current.Kind())
	if err != nil {
		return &ParameterError{
			Name:      name,
			Reason:    fmt.Sprintf("must be of type %s", current.Kind()),
			ValidKeys: cfg.ScalarKeys(),
		}
	}
	return cfg.SetTopLevelScalar(name, coerced)
}

// cartesian enumerates every combination of the range dimensions.
// combos[i][d] is the value of dimension d in the i-th combination.
func cartesian(ranges []Parameter) [][]config.TaggedValue {
	combos := [][]config.TaggedValue{{}}
	for _, dim := range ranges {
		next := make([][]config.TaggedValue, 0, len(combos)*len(dim.Values))
		for _, combo := range combos {
			for _, v := range dim.Values {
				extended := make([]config.TaggedValue, len(combo), len(combo)+1)
				copy(extended, combo)
				next = append(next, append(extended, v))
			}
		}
		combos = next
	}
	return combos
}
