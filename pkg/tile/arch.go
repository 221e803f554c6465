package tile

import (
	"slices"

	"github.com/pkg/errors"
)

// Policy plans the forward-kernel tile configuration for one architecture
// class. Implementations are pure: the same Problem always yields the same
// Config, and any head dimension falls into a catch-all bucket, so planning
// never fails. Whether a (head dim, dtype) combination is actually built is
// decided by the kernel-generation layer before planning.
type Policy interface {
	// Name is the architecture name the policy registers under, e.g. "sm90".
	Name() string

	// PlanFwd returns the tile configuration for the given problem.
	PlanFwd(p Problem) Config
}

var registeredPolicies = make(map[string]Policy)

// Register makes a policy available to PlanFwd under its architecture name.
// Registering the same name again replaces the previous policy, which is how
// budget-override configurations install adjusted variants.
//
// To be safe, call Register during initialization of a package.
func Register(policy Policy) {
	registeredPolicies[policy.Name()] = policy
}

// Lookup returns the policy registered for the given architecture name.
func Lookup(arch string) (Policy, error) {
	policy, found := registeredPolicies[arch]
	if !found {
		return nil, errors.Errorf("no tile policy registered for architecture %q (registered: %v)",
			arch, Architectures())
	}
	return policy, nil
}

// Architectures returns the sorted names of all registered architectures.
func Architectures() []string {
	names := make([]string, 0, len(registeredPolicies))
	for name := range registeredPolicies {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// PlanFwd plans the forward-kernel tile configuration for the named
// architecture. It fails only for an unknown architecture name.
func PlanFwd(arch string, p Problem) (Config, error) {
	policy, err := Lookup(arch)
	if err != nil {
		return Config{}, err
	}
	return policy.PlanFwd(p), nil
}
