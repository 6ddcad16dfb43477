// Package form parses Perforce-style job forms.
//
// A form is a sequence of lines. Lines starting with '#' are comments. A line
// starting in column zero opens a field ("Name: value"); lines starting with
// a tab or space continue the open field. Fields whose value is blank are
// dropped. Three reserved fields are lifted out of the field map:
//
//	EJPUserID  privileged user performing the update
//	EJPChain   jobs that must not be touched by this update
//	EJPRevNum  spec depot revision to diff against
package form
