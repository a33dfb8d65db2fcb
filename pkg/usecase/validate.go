package usecase

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/m-mizutani/goerr/v2"
	"github.com/makola-community/makola/pkg/domain/types"
)

// ValidationIssue is one stored value that the configuration no longer
// accepts. Issues lists up to maxValidationSamples issue IDs carrying it.
type ValidationIssue struct {
	Field   string
	Value   string
	Count   int
	Issues  []types.IssueID
	Message string
}

// ValidationResult holds the results of DB validation
type ValidationResult struct {
	Checked int
	Issues  []ValidationIssue
}

// HasIssues returns true if there are any validation issues
func (r *ValidationResult) HasIssues() bool {
	return len(r.Issues) > 0
}

const maxValidationSamples = 3

type unknownValue struct {
	field, value string
}

// ValidateDB reports stored issues whose category or assigned department is
// missing from the municipality configuration, grouped by value. A config
// that declares no categories or no departments accepts any value there.
// It does NOT modify any data.
func (uc *UseCases) ValidateDB(ctx context.Context) (*ValidationResult, error) {
	issues, err := uc.repo.Issue().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list issues")
	}

	found := make(map[unknownValue]*ValidationIssue)
	record := func(field, value string, id types.IssueID) {
		key := unknownValue{field: field, value: value}
		v, ok := found[key]
		if !ok {
			v = &ValidationIssue{
				Field:   field,
				Value:   value,
				Message: fmt.Sprintf("%s %q is not configured", field, value),
			}
			found[key] = v
		}
		v.Count++
		if len(v.Issues) < maxValidationSamples {
			v.Issues = append(v.Issues, id)
		}
	}

	for _, issue := range issues {
		if !uc.appConfig.HasCategory(issue.Category) {
			record("category", issue.Category.String(), issue.ID)
		}
		if issue.AssignedDepartment != "" && !uc.appConfig.HasDepartment(issue.AssignedDepartment) {
			record("assigned_department", issue.AssignedDepartment.String(), issue.ID)
		}
	}

	result := &ValidationResult{Checked: len(issues)}
	for _, v := range found {
		result.Issues = append(result.Issues, *v)
	}
	slices.SortFunc(result.Issues, func(a, b ValidationIssue) int {
		return cmp.Or(cmp.Compare(a.Field, b.Field), cmp.Compare(a.Value, b.Value))
	})
	return result, nil
}
