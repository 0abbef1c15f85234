// Package expr evaluates the boolean predicates carried by Condition
// nodes against session variables.
//
// The grammar is deliberately small: comparison operators (==, !=,
// <, >, <=, >=), "contains", boolean combinators (and, or, not, !)
// and bare truthiness checks. Operands are quoted string literals,
// numbers, booleans, null, or variable names resolved from the
// session's variable map.
//
//	plan == 'pro' and visits > 3
//	not vip
//	tags contains 'billing'
package expr
