package diag

func New(sev Severity, code Code, origin Origin, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Origin:   origin,
		Message:  msg,
		Notes:    nil,
	}
}

func NewError(code Code, origin Origin, msg string) Diagnostic {
	return New(SevError, code, origin, msg)
}

func NewWarning(code Code, origin Origin, msg string) Diagnostic {
	return New(SevWarning, code, origin, msg)
}

func (d Diagnostic) WithNote(origin Origin, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Origin: origin, Msg: msg})
	return d
}
