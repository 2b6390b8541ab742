package employees

import (
	"net/url"
	"strconv"

	"github.com/vigil-health/vigil/pkg/query"
	"github.com/vigil-health/vigil/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "employees", "e").
	Project("employee_id", "EmployeeID").
	Project("org_id", "OrgID").
	Project("name", "Name").
	Project("gender", "Gender").
	Project("dob", "DOB").
	Project("department", "Department").
	Project("job_level", "JobLevel").
	Project("location_city", "LocationCity").
	Project("marital_status", "MaritalStatus").
	Project("health", "Health").
	Project("summary", "Summary").
	ProjectExpression("date_part('year', age(e.dob))", "Age").
	ProjectExpression("(e.health->>'weight_kg')::float", "Weight")

var defaultSort = query.SortField{Field: "EmployeeID"}

// Filters contains optional filtering criteria for employee queries.
// Nil fields are ignored. Age bounds are computed from date of birth; weight
// bounds read the weight_kg field of the health JSONB document.
type Filters struct {
	Gender     *string  `json:"gender,omitempty"`
	Department *string  `json:"department,omitempty"`
	Age        *int     `json:"age,omitempty"`
	MinAge     *int     `json:"min_age,omitempty"`
	MaxAge     *int     `json:"max_age,omitempty"`
	Weight     *float64 `json:"weight,omitempty"`
	MinWeight  *float64 `json:"min_weight,omitempty"`
	MaxWeight  *float64 `json:"max_weight,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Gender", f.Gender).
		WhereEquals("Department", f.Department).
		WhereCompare("Age", "=", f.Age).
		WhereCompare("Age", ">=", f.MinAge).
		WhereCompare("Age", "<=", f.MaxAge).
		WhereCompare("Weight", "=", f.Weight).
		WhereCompare("Weight", ">=", f.MinWeight).
		WhereCompare("Weight", "<=", f.MaxWeight)
}

// FiltersFromQuery extracts filter values from URL query parameters.
// Unparseable numeric values are ignored rather than rejected.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if g := values.Get("gender"); g != "" {
		f.Gender = &g
	}

	if d := values.Get("department"); d != "" {
		f.Department = &d
	}

	intParam := func(name string) *int {
		if s := values.Get(name); s != "" {
			if v, err := strconv.Atoi(s); err == nil {
				return &v
			}
		}
		return nil
	}

	floatParam := func(name string) *float64 {
		if s := values.Get(name); s != "" {
			if v, err := strconv.ParseFloat(s, 64); err == nil {
				return &v
			}
		}
		return nil
	}

	f.Age = intParam("age")
	f.MinAge = intParam("min_age")
	f.MaxAge = intParam("max_age")
	f.Weight = floatParam("weight")
	f.MinWeight = floatParam("min_weight")
	f.MaxWeight = floatParam("max_weight")

	return f
}

func scanEmployee(s repository.Scanner) (Employee, error) {
	var e Employee
	err := s.Scan(
		&e.EmployeeID,
		&e.OrgID,
		&e.Name,
		&e.Gender,
		&e.DOB,
		&e.Department,
		&e.JobLevel,
		&e.LocationCity,
		&e.MaritalStatus,
		&e.Health,
		&e.Summary,
	)
	return e, err
}
