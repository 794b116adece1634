package model

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Validate checks the required fields of a specification
func (s *Specification) Validate() error {
	var result *multierror.Error
	if strings.TrimSpace(s.Title) == "" {
		result = multierror.Append(result, NewFieldError("title", "is required"))
	}
	if strings.TrimSpace(s.Version) == "" {
		result = multierror.Append(result, NewFieldError("version", "is required"))
	}
	return result.ErrorOrNil()
}

// Validate checks the required fields of a path
func (p *Path) Validate() error {
	var result *multierror.Error
	if p.SpecificationID == 0 {
		result = multierror.Append(result, NewFieldError("specification_id", "is required"))
	}
	if strings.TrimSpace(p.URI) == "" {
		result = multierror.Append(result, NewFieldError("uri", "is required"))
	}
	return result.ErrorOrNil()
}

// Validate checks the required fields of a verb
func (v *Verb) Validate() error {
	var result *multierror.Error
	if v.PathID == 0 {
		result = multierror.Append(result, NewFieldError("path_id", "is required"))
	}
	if strings.TrimSpace(v.Method) == "" {
		result = multierror.Append(result, NewFieldError("method", "is required"))
	}
	if strings.TrimSpace(v.Name) == "" {
		result = multierror.Append(result, NewFieldError("name", "is required"))
	}
	if strings.TrimSpace(v.Visibility) == "" {
		result = multierror.Append(result, NewFieldError("visibility", "is required"))
	}
	return result.ErrorOrNil()
}

// Validate checks the required fields of a common model
func (m *CommonModel) Validate() error {
	var result *multierror.Error
	if m.SpecificationID == 0 {
		result = multierror.Append(result, NewFieldError("specification_id", "is required"))
	}
	if strings.TrimSpace(m.Name) == "" {
		result = multierror.Append(result, NewFieldError("name", "is required"))
	}
	return result.ErrorOrNil()
}

// ValidateProperties checks a batch of records destined for one parent list.
// Every record needs a name and a type, and names must be unique within the
// batch.
func ValidateProperties(props []*Property) error {
	var result *multierror.Error
	seen := make(map[string]int, len(props))

	for i, p := range props {
		field := fmt.Sprintf("rows[%d]", i)
		if p.Name == "" {
			result = multierror.Append(result, NewFieldError(field+".name", "is required"))
			continue
		}
		if p.Type == "" {
			result = multierror.Append(result, NewFieldError(field+".type", "is required for %q", p.Name))
		}
		if first, ok := seen[p.Name]; ok {
			result = multierror.Append(result,
				NewFieldError(field+".name", "%q duplicates rows[%d]", p.Name, first))
			continue
		}
		seen[p.Name] = i
	}

	return result.ErrorOrNil()
}
