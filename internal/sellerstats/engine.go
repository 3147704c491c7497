package sellerstats

// Options carries the pluggable policies of an analysis.
type Options struct {
	Revenue RevenuePolicy
	Bonus   BonusPolicy
}

// DefaultOptions returns the reference revenue and bonus policies.
func DefaultOptions() Options {
	return Options{Revenue: SimpleRevenue, Bonus: BonusByProfit}
}

func (o Options) validate() error {
	if o.Revenue == nil || o.Bonus == nil {
		return invalidInput("revenue and bonus policies are required")
	}
	if f, ok := o.Revenue.(RevenueFunc); ok && f == nil {
		return invalidInput("revenue policy is not callable")
	}
	if f, ok := o.Bonus.(BonusFunc); ok && f == nil {
		return invalidInput("bonus policy is not callable")
	}
	return nil
}

// Analyze computes per-seller revenue, profit, bonus and top products and
// returns the sellers ordered by profit, highest first. Either a complete
// report or an error is returned; input data is never modified.
func Analyze(data *Dataset, opts Options) ([]SellerReport, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	idx := buildIndex(data.Sellers, data.Products)
	if err := aggregate(data.PurchaseRecords, idx, opts.Revenue); err != nil {
		return nil, err
	}
	ranked := rank(idx.stats, opts.Bonus)
	return buildReport(ranked), nil
}
