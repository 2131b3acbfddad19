package symbols

import "peregrine/internal/meta"

// InternalsJudge is the external strong-name / InternalsVisibleTo matching
// policy. The symbol layer only exposes the yes/no outcome; how grants are
// parsed and keys compared is the judge's business.
type InternalsJudge interface {
	// InternalsVisibleTo decides whether grantor's declared grants admit
	// requester.
	InternalsVisibleTo(grantor meta.Identity, grants []string, requester meta.Identity) bool
}
