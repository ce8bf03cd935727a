package resource

import "fmt"

// deletionDeps is the fixed dependency table: each kind maps to the kinds
// that must reach Deleted/Absent before its own deletion begins. The stack
// subsumes the cluster, registry and networking resources it provisioned,
// so everything cluster-composed waits on it. Node groups must be gone
// before the cluster delete call is accepted by the provider. Elastic
// addresses wait on NAT gateways because releasing an address that is
// still associated with a gateway fails.
var deletionDeps = map[Kind][]Kind{
	KindNodeGroup:      {KindStack},
	KindCluster:        {KindStack, KindNodeGroup},
	KindRegistry:       {KindStack},
	KindElasticAddress: {KindNatGateway},
}

// TeardownPlan is an ordered sequence of tiers. Every kind in a tier has
// all of its dependencies in earlier tiers; kinds within a tier are
// mutually independent.
type TeardownPlan struct {
	Tiers [][]Kind
}

// Kinds returns the planned kinds flattened in execution order.
func (p TeardownPlan) Kinds() []Kind {
	var out []Kind
	for _, tier := range p.Tiers {
		out = append(out, tier...)
	}
	return out
}

// Plan orders scope into dependency tiers. It is pure: no provider calls,
// no side effects. Unknown kinds are rejected; dependencies outside the
// scope are ignored (deleting a subset is always allowed).
func Plan(scope []Kind) (TeardownPlan, error) {
	return planWith(scope, deletionDeps)
}

// planWith runs Kahn's algorithm over the given dependency table,
// restricted to scope. Split out so tests can exercise cycle detection
// with a malformed table.
func planWith(scope []Kind, deps map[Kind][]Kind) (TeardownPlan, error) {
	inScope := make(map[Kind]bool, len(scope))
	for _, k := range scope {
		if !k.Valid() {
			return TeardownPlan{}, fmt.Errorf("unknown resource kind %q", k)
		}
		inScope[k] = true
	}

	// In-degree counts only edges whose target is also in scope.
	inDegree := make(map[Kind]int, len(scope))
	dependents := make(map[Kind][]Kind)
	for k := range inScope {
		for _, dep := range deps[k] {
			if !inScope[dep] {
				continue
			}
			inDegree[k]++
			dependents[dep] = append(dependents[dep], k)
		}
	}

	var plan TeardownPlan
	placed := 0
	ready := make(map[Kind]bool)
	for k := range inScope {
		if inDegree[k] == 0 {
			ready[k] = true
		}
	}

	for len(ready) > 0 {
		// Emit ready kinds in canonical order so plans are deterministic.
		var tier []Kind
		for _, k := range Kinds {
			if ready[k] {
				tier = append(tier, k)
			}
		}
		plan.Tiers = append(plan.Tiers, tier)
		placed += len(tier)

		next := make(map[Kind]bool)
		for _, k := range tier {
			delete(ready, k)
			for _, dependent := range dependents[k] {
				inDegree[dependent]--
				if inDegree[dependent] == 0 {
					next[dependent] = true
				}
			}
		}
		for k := range next {
			ready[k] = true
		}
	}

	if placed != len(inScope) {
		return TeardownPlan{}, fmt.Errorf("dependency cycle detected in resource graph")
	}

	return plan, nil
}

// ValidateGraph checks the built-in dependency table is acyclic and only
// references known kinds. Called once at startup.
func ValidateGraph() error {
	for k, deps := range deletionDeps {
		if !k.Valid() {
			return fmt.Errorf("dependency table references unknown kind %q", k)
		}
		for _, dep := range deps {
			if !dep.Valid() {
				return fmt.Errorf("kind %q depends on unknown kind %q", k, dep)
			}
		}
	}
	_, err := Plan(Kinds)
	return err
}
