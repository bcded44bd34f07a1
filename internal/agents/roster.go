package agents

import "time"

// DefaultRoster returns the built-in agent pool, used when the config file
// does not define one.
func DefaultRoster() []Agent {
	return []Agent{
		{ID: "AG001", Name: "Sarah Mitchell", Specialty: "Account Services", Category: "account_issues"},
		{ID: "AG002", Name: "David Chen", Specialty: "Payment Issues", Category: "account_issues"},
		{ID: "AG003", Name: "Emma Johnson", Specialty: "Customer Relations", Category: "complaints"},
		{ID: "AG004", Name: "Michael Brown", Specialty: "Complaint Resolution", Category: "complaints"},
		{ID: "AG005", Name: "Alex Kumar", Specialty: "Technical Support", Category: "technical"},
		{ID: "AG006", Name: "Lisa Wang", Specialty: "System Issues", Category: "technical"},
		{ID: "AG007", Name: "Robert Taylor", Specialty: "Pension Advisor", Category: "pension_planning"},
		{ID: "AG008", Name: "Jennifer Davis", Specialty: "Retirement Planning", Category: "pension_planning"},
		{ID: "AG009", Name: "Mark Wilson", Specialty: "Contributions Specialist", Category: "contributions"},
		{ID: "AG010", Name: "Anna Garcia", Specialty: "Payment Processing", Category: "contributions"},
		{ID: "AG011", Name: "Tom Anderson", Specialty: "General Support", Category: "general"},
	}
}

// DefaultBaseWaits returns the built-in per-category wait estimate applied
// per queued ticket.
func DefaultBaseWaits() map[string]time.Duration {
	return map[string]time.Duration{
		"account_issues":   5 * time.Minute,
		"complaints":       2 * time.Minute,
		"technical":        10 * time.Minute,
		"pension_planning": 15 * time.Minute,
		"contributions":    5 * time.Minute,
		"general":          3 * time.Minute,
	}
}
