package scene

// GraphBuilderOption is a functional option for configuring a Graph.
type GraphBuilderOption func(g *graph)

// WithSearchBudget caps the number of nodes one FindColliding call visits.
// Defaults to DefaultSearchBudget.
//
// Parameters:
//   - n: the node budget (minimum 1)
//
// Returns:
//   - GraphBuilderOption: option function to apply
func WithSearchBudget(n int) GraphBuilderOption {
	return func(g *graph) {
		g.budget = max(n, 1)
	}
}
