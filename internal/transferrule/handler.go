package transferrule

// FindingFactory produces the finding emitted when a transaction matches.
// It receives no transaction data.
type FindingFactory[F any] func() F

// HandleTransaction evaluates a single transaction and returns the findings
// it produced: either none or exactly one.
type HandleTransaction[F any] func(tx Transaction) []F

// Provide builds a Rule from opts and returns a handler that emits one
// finding from factory for every matching transaction.
//
// The returned handler is stateless and may be called repeatedly and
// concurrently. It never returns nil: a non-matching transaction yields an
// empty slice.
//
// Errors are returned only for invalid configuration (ErrNilFindingFactory,
// ErrNegativeThreshold).
func Provide[F any](factory FindingFactory[F], opts ...Option) (HandleTransaction[F], error) {
	if factory == nil {
		return nil, ErrNilFindingFactory
	}

	rule, err := New(opts...)
	if err != nil {
		return nil, err
	}

	return ProvideWithRule(rule, factory)
}

// ProvideWithRule returns a handler for an already built rule.
// It returns ErrNilFindingFactory when factory is nil.
func ProvideWithRule[F any](rule Rule, factory FindingFactory[F]) (HandleTransaction[F], error) {
	if factory == nil {
		return nil, ErrNilFindingFactory
	}

	return func(tx Transaction) []F {
		if !rule.Matches(tx) {
			return []F{}
		}
		return []F{factory()}
	}, nil
}
