package cvtemplate

import "strings"

// Direction is the text direction written to <html dir>.
type Direction string

const (
	LTR Direction = "ltr"
	RTL Direction = "rtl"
)

// Options are per-render settings. The zero value renders left-to-right English.
type Options struct {
	Direction Direction
	Lang      string
	// LocalImages lets file:// profile images through. Only trusted
	// callers working on their own files set it.
	LocalImages bool
}

func (o Options) normalized() Options {
	out := o
	switch Direction(strings.ToLower(string(o.Direction))) {
	case RTL:
		out.Direction = RTL
	default:
		out.Direction = LTR
	}
	out.Lang = strings.TrimSpace(o.Lang)
	if out.Lang == "" {
		if out.Direction == RTL {
			out.Lang = "ar"
		} else {
			out.Lang = "en"
		}
	}
	return out
}
