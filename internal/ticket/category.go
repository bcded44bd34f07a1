package ticket

// CategoryGeneral is the fallback category for unclassified requests.
const CategoryGeneral = "general"

// categoryProfile holds the attributes a category implies for a ticket.
type categoryProfile struct {
	Priority   Priority
	Department string
}

// categoryProfiles maps each support category to its default priority and
// human-readable department label. Adding a category means adding a row here;
// call sites never branch on category names.
var categoryProfiles = map[string]categoryProfile{
	"account_issues":   {PriorityHigh, "Account Services Team"},
	"complaints":       {PriorityHigh, "Customer Relations Team"},
	"technical":        {PriorityNormal, "Technical Support Team"},
	"pension_planning": {PriorityNormal, "Pension Advisory Team"},
	"contributions":    {PriorityNormal, "Contributions Team"},
	CategoryGeneral:    {PriorityNormal, "General Support Team"},
}

// CategoryProfile returns the priority and department for a category.
// Unknown categories fall back to the general profile.
func CategoryProfile(category string) (Priority, string) {
	p, ok := categoryProfiles[category]
	if !ok {
		p = categoryProfiles[CategoryGeneral]
	}
	return p.Priority, p.Department
}

// Categories returns all known category names.
func Categories() []string {
	out := make([]string, 0, len(categoryProfiles))
	for name := range categoryProfiles {
		out = append(out, name)
	}
	return out
}
