// Package queryir is the query representation shared by every storage
// backend.
//
// A Query is a conjunction of Conditions plus ordering and pagination:
//
//	Query{
//	  Conditions: []Condition{
//	    {Field: "author_id", Op: OpEq, Value: 1},
//	    {Field: "likes", Op: OpGte, Value: 10},
//	  },
//	  OrderBy: "-likes",
//	  Limit:   2,
//	}
//
// EVALUATION ORDER:
//
// Apply evaluates a query over rows that are already in base (id) order:
//  1. Conditions are ANDed; an empty list keeps every row
//  2. OrderBy sorts stably; a "-" prefix means descending and a missing
//     field sorts as 0
//  3. Offset drops leading rows, then Limit caps the rest
//
// Zero Limit and zero Offset mean "not set". Negative values are rejected
// by Validate.
//
// OPERATORS:
//
//	eq, ne         equality (numbers compare by value across int/float)
//	gt, gte, lt, lte  ordering on numbers, strings, booleans and bytes
//	in             membership in a slice value
//
// A condition on a field the row does not have compares against nil: eq
// matches only a nil value, ne matches anything else, ordering operators
// never match.
//
// The equality mapping accepted by the engine ("filter") is converted with
// FromFilter and is exactly a list of eq conditions.
package queryir
