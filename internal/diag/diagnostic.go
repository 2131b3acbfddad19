package diag

// Origin points a diagnostic at the metadata that produced it. Assembly is the
// display name of the assembly; Module optionally narrows the finding to one
// physical module inside it.
type Origin struct {
	Assembly string
	Module   string
}

func (o Origin) String() string {
	if o.Module == "" {
		return o.Assembly
	}
	return o.Assembly + "!" + o.Module
}

type Note struct {
	Origin Origin
	Msg    string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Origin   Origin
	Notes    []Note
}
