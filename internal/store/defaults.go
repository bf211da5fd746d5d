package store

import "fjacquet/case-categorizer/internal/models"

// DefaultCategories returns the product categories a new store starts with.
func DefaultCategories() []models.TaxonomyEntry {
	return []models.TaxonomyEntry{
		{Name: "Technical Support", Description: "Issues requiring technical assistance, troubleshooting, or bug reports."},
		{Name: "Billing/Accounts", Description: "Questions or problems related to invoices, payments, subscriptions, or account management."},
		{Name: "Feature Request", Description: "Suggestions for new features or enhancements to existing ones."},
		{Name: "General Inquiry", Description: "Questions or feedback not fitting into other categories."},
	}
}

// DefaultResolutions returns the resolution types a new store starts with.
func DefaultResolutions() []models.TaxonomyEntry {
	return []models.TaxonomyEntry{
		{Name: "Resolved - Provided Solution", Description: "The customer's issue was resolved by providing a specific solution or workaround."},
		{Name: "Resolved - Bug Fix", Description: "The issue was a confirmed bug that has been fixed in a new release or patch."},
		{Name: "Resolved - Information Provided", Description: "The customer's question was answered by providing relevant information or documentation."},
		{Name: "Unresolved - Escalated", Description: "The issue could not be resolved by the first line of support and was escalated to a specialized team."},
		{Name: "Unresolved - Requires More Info", Description: "The customer did not provide enough information to resolve the issue."},
		{Name: "Duplicate", Description: "The case is a duplicate of an existing case."},
	}
}

func defaultsFor(kind models.TaxonomyKind) []models.TaxonomyEntry {
	if kind == models.KindResolutions {
		return DefaultResolutions()
	}
	return DefaultCategories()
}
