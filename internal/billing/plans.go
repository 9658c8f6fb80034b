// Package billing holds the plan catalog, the free-tier application limit
// and plan upgrades through a checkout provider.
package billing

import "strings"

const (
	PlanFree       = "Free"
	PlanPro        = "Pro"
	PlanEnterprise = "Enterprise"

	// FreeApplicationLimit is the number of applications a Free user may record.
	FreeApplicationLimit = 25
)

// Plan is one entry of the catalog.
type Plan struct {
	Name         string `json:"name"`
	PriceCents   int    `json:"priceCents"`
	Price        string `json:"price"`
	Applications string `json:"applications"`
	// Limit is zero for unlimited plans.
	Limit int  `json:"limit"`
	Paid  bool `json:"paid"`
}

var catalog = []Plan{
	{Name: PlanFree, PriceCents: 0, Price: "$0", Applications: "25", Limit: FreeApplicationLimit},
	{Name: PlanPro, PriceCents: 999, Price: "$9.99/month", Applications: "Unlimited", Paid: true},
	{Name: PlanEnterprise, PriceCents: 1999, Price: "$19.99/month", Applications: "Unlimited + Priority Support", Paid: true},
}

// Plans returns the catalog in display order.
func Plans() []Plan {
	out := make([]Plan, len(catalog))
	copy(out, catalog)
	return out
}

// LookupPlan finds a plan by name, ignoring case and surrounding space.
func LookupPlan(name string) (Plan, bool) {
	name = strings.TrimSpace(name)
	for _, p := range catalog {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Plan{}, false
}
