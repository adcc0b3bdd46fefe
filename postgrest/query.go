// Package postgrest encodes and parses the subset of the PostgREST URL
// grammar used by the storefront: horizontal filters (eq, neq, in, ilike),
// ordering, limit and offset.
package postgrest

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

type Operator string

const (
	OpEq    Operator = "eq"
	OpNeq   Operator = "neq"
	OpIn    Operator = "in"
	OpILike Operator = "ilike"
)

// reserved query keys that are not column filters
var reserved = map[string]bool{
	"select": true,
	"order":  true,
	"limit":  true,
	"offset": true,
}

type Filter struct {
	Column string
	Op     Operator
	Values []string
}

func Eq(column string, value interface{}) Filter {
	return Filter{Column: column, Op: OpEq, Values: []string{fmt.Sprint(value)}}
}

func In(column string, values ...string) Filter {
	return Filter{Column: column, Op: OpIn, Values: values}
}

// ILike matches case-insensitively; '*' in pattern is the wildcard.
func ILike(column, pattern string) Filter {
	return Filter{Column: column, Op: OpILike, Values: []string{pattern}}
}

// Encode renders the right-hand side of the filter, e.g. "in.(a,b)".
func (f Filter) Encode() string {
	if f.Op == OpIn {
		quoted := make([]string, len(f.Values))
		for i, v := range f.Values {
			quoted[i] = quote(v)
		}
		return string(f.Op) + ".(" + strings.Join(quoted, ",") + ")"
	}
	v := ""
	if len(f.Values) > 0 {
		v = f.Values[0]
	}
	return string(f.Op) + "." + v
}

// Value is the single operand of a non-"in" filter.
func (f Filter) Value() string {
	if len(f.Values) == 0 {
		return ""
	}
	return f.Values[0]
}

type OrderBy struct {
	Column string
	Desc   bool
}

func Asc(column string) OrderBy  { return OrderBy{Column: column} }
func Desc(column string) OrderBy { return OrderBy{Column: column, Desc: true} }

type Query struct {
	Select  string
	Filters []Filter
	Order   []OrderBy
	Limit   int
	Offset  int
}

// Where returns a copy of q with filters appended.
func (q Query) Where(filters ...Filter) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), filters...)
	return q
}

func (q Query) OrderBy(order ...OrderBy) Query {
	q.Order = append(append([]OrderBy(nil), q.Order...), order...)
	return q
}

func Select(columns string) Query {
	return Query{Select: columns}
}

func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Select != "" {
		v.Set("select", q.Select)
	}
	for _, f := range q.Filters {
		v.Add(f.Column, f.Encode())
	}
	if len(q.Order) > 0 {
		parts := make([]string, len(q.Order))
		for i, o := range q.Order {
			dir := "asc"
			if o.Desc {
				dir = "desc"
			}
			parts[i] = o.Column + "." + dir
		}
		v.Set("order", strings.Join(parts, ","))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	return v
}

// ParseQuery is the inverse of Query.Values. Filters come back sorted by
// column so results are deterministic.
func ParseQuery(values url.Values) (Query, error) {
	q := Query{Select: values.Get("select")}

	columns := make([]string, 0, len(values))
	for k := range values {
		if !reserved[k] {
			columns = append(columns, k)
		}
	}
	sort.Strings(columns)

	for _, col := range columns {
		for _, raw := range values[col] {
			f, err := ParseFilter(col, raw)
			if err != nil {
				return Query{}, err
			}
			q.Filters = append(q.Filters, f)
		}
	}

	if raw := values.Get("order"); raw != "" {
		order, err := ParseOrder(raw)
		if err != nil {
			return Query{}, err
		}
		q.Order = order
	}

	var err error
	if q.Limit, err = parseCount(values.Get("limit"), "limit"); err != nil {
		return Query{}, err
	}
	if q.Offset, err = parseCount(values.Get("offset"), "offset"); err != nil {
		return Query{}, err
	}
	return q, nil
}

func ParseFilter(column, raw string) (Filter, error) {
	op, operand, ok := strings.Cut(raw, ".")
	if !ok {
		return Filter{}, fmt.Errorf("filter %s: missing operator in %q", column, raw)
	}

	switch Operator(op) {
	case OpEq, OpNeq, OpILike:
		return Filter{Column: column, Op: Operator(op), Values: []string{operand}}, nil
	case OpIn:
		if !strings.HasPrefix(operand, "(") || !strings.HasSuffix(operand, ")") {
			return Filter{}, fmt.Errorf("filter %s: in list must be parenthesized, got %q", column, operand)
		}
		values, err := splitList(operand[1 : len(operand)-1])
		if err != nil {
			return Filter{}, fmt.Errorf("filter %s: %w", column, err)
		}
		return Filter{Column: column, Op: OpIn, Values: values}, nil
	default:
		return Filter{}, fmt.Errorf("filter %s: unsupported operator %q", column, op)
	}
}

func ParseOrder(raw string) ([]OrderBy, error) {
	var out []OrderBy
	for _, part := range strings.Split(raw, ",") {
		col, dir, _ := strings.Cut(strings.TrimSpace(part), ".")
		if col == "" {
			return nil, fmt.Errorf("order: empty column in %q", raw)
		}
		switch dir {
		case "", "asc":
			out = append(out, Asc(col))
		case "desc":
			out = append(out, Desc(col))
		default:
			return nil, fmt.Errorf("order: unknown direction %q", dir)
		}
	}
	return out, nil
}

func parseCount(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s: invalid value %q", name, raw)
	}
	return n, nil
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func quote(v string) string {
	if !strings.ContainsAny(v, `,()"\`) {
		return v
	}
	return `"` + quoteEscaper.Replace(v) + `"`
}

// splitList splits an in-list body on commas outside double quotes.
func splitList(body string) ([]string, error) {
	if body == "" {
		return []string{}, nil
	}

	var (
		out     []string
		cur     strings.Builder
		inQuote bool
	)
	for i := 0; i < len(body); i++ {
		ch := body[i]
		switch {
		case ch == '\\' && inQuote && i+1 < len(body):
			i++
			cur.WriteByte(body[i])
		case ch == '"':
			inQuote = !inQuote
		case ch == ',' && !inQuote:
			out = append(out, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(ch)
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote in %q", body)
	}
	return append(out, cur.String()), nil
}
