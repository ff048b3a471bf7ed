package server

import (
	"fmt"
	"math"
	"time"

	"github.com/aep/videolib/api"
	"github.com/aep/videolib/query"
	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
)

func bindListParams(c echo.Context) (api.ListParams, []api.FieldError) {
	var p api.ListParams
	var details []api.FieldError

	bind := func(name string, dest interface{}) {
		err := runtime.BindQueryParameter("form", true, false, name, c.QueryParams(), dest)
		if err != nil {
			details = append(details, api.FieldError{Field: name, Message: err.Error()})
		}
	}

	bind("sort", &p.Sort)
	bind("order", &p.Order)
	bind("search", &p.Search)
	bind("tags", &p.Tags)
	bind("dateFrom", &p.DateFrom)
	bind("dateTo", &p.DateTo)
	p.Limit = bindInt(c, "limit", &details)
	p.Offset = bindInt(c, "offset", &details)

	return p, details
}

// bindInt accepts any numeric spelling of an integer, so 5, 5.0 and 5e0 are all 5.
func bindInt(c echo.Context, name string, details *[]api.FieldError) *int {
	var f *float64
	err := runtime.BindQueryParameter("form", true, false, name, c.QueryParams(), &f)
	if err != nil {
		*details = append(*details, api.FieldError{Field: name, Message: err.Error()})
		return nil
	}
	if f == nil {
		return nil
	}
	if *f != math.Trunc(*f) || math.IsInf(*f, 0) || math.Abs(*f) > math.MaxInt32 {
		*details = append(*details, api.FieldError{Field: name, Message: fmt.Sprintf("must be an integer, got %v", *f)})
		return nil
	}
	i := int(*f)
	return &i
}

// toSpec checks every parameter and reports all violations at once.
// dateFrom and dateTo are accepted as free text and ignored unless dateFilter is set.
func toSpec(p api.ListParams, dateFilter bool) (query.Spec, []api.FieldError) {
	spec := query.DefaultSpec()
	var details []api.FieldError

	fail := func(field, format string, args ...interface{}) {
		details = append(details, api.FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if p.Sort != nil {
		switch *p.Sort {
		case "created_at", "createdAt":
			spec.Sort = query.FieldCreatedAt
		case "title":
			spec.Sort = query.FieldTitle
		case "views":
			spec.Sort = query.FieldViews
		default:
			fail("sort", "must be one of created_at, title, views, got %q", *p.Sort)
		}
	}

	if p.Order != nil {
		switch query.Order(*p.Order) {
		case query.Asc, query.Desc:
			spec.Order = query.Order(*p.Order)
		default:
			fail("order", "must be asc or desc, got %q", *p.Order)
		}
	}

	if p.Search != nil {
		spec.Search = *p.Search
	}
	if p.Tags != nil {
		spec.Tags = *p.Tags
	}

	if p.Limit != nil {
		if *p.Limit < 1 || *p.Limit > query.MaxLimit {
			fail("limit", "must be between 1 and %d", query.MaxLimit)
		} else {
			spec.Limit = *p.Limit
		}
	}

	if p.Offset != nil {
		if *p.Offset < 0 {
			fail("offset", "must not be negative")
		} else {
			spec.Offset = *p.Offset
		}
	}

	if !dateFilter {
		return spec, details
	}

	if p.DateFrom != nil && *p.DateFrom != "" {
		t, err := parseDateBound(*p.DateFrom, false)
		if err != nil {
			fail("dateFrom", "%v", err)
		}
		spec.DateFrom = t
	}
	if p.DateTo != nil && *p.DateTo != "" {
		t, err := parseDateBound(*p.DateTo, true)
		if err != nil {
			fail("dateTo", "%v", err)
		}
		spec.DateTo = t
	}
	if !spec.DateFrom.IsZero() && !spec.DateTo.IsZero() && spec.DateFrom.After(spec.DateTo) {
		fail("dateFrom", "must not be after dateTo")
	}

	return spec, details
}

// parseDateBound accepts YYYY-MM-DD or RFC 3339. A bare date as upper bound covers the whole day.
func parseDateBound(s string, upper bool) (time.Time, error) {
	if d, err := time.Parse(time.DateOnly, s); err == nil {
		if upper {
			return d.Add(24*time.Hour - time.Nanosecond), nil
		}
		return d, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("expected YYYY-MM-DD or an RFC 3339 timestamp, got %q", s)
}
