// Package rules evaluates per-field validation rules.
//
// A rule is an expression in the closed language of package expr in which the
// token $VALUE stands for the raw field value. The value is spliced in as text
// without escaping before the rule is compiled, so rules should quote it:
//
//	Status:  '"$VALUE" == "open" || "$VALUE" == "closed"'
//	User:    'isuserid("$VALUE")'
//	Fixes:   'islistof("$VALUE", "ischangelist")'
//
// Rules are configuration supplied by whoever operates the validator, never
// by the people filling in forms.
package rules
