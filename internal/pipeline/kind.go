// SPDX-License-Identifier: MPL-2.0

package pipeline

// Pipeline kind constants, named as they appear in PGXN release metadata.
const (
	KindPGXS Kind = "pgxs"
	KindPgrx Kind = "pgrx"
)

// Kind identifies a build pipeline.
type Kind string

// Kinds returns every known kind in detection priority order. When two kinds
// report the same confidence the earlier one wins.
func Kinds() []Kind {
	return []Kind{KindPGXS, KindPgrx}
}

// String returns the kind's name.
func (k Kind) String() string { return string(k) }

// IsValid returns whether k names a known pipeline, and a list of validation
// errors if it does not.
func (k Kind) IsValid() (bool, []error) {
	switch k {
	case KindPGXS, KindPgrx:
		return true, nil
	default:
		return false, []error{&UnknownPipelineError{Name: string(k)}}
	}
}

// ParseKind returns the Kind named by name. Names are matched exactly.
func ParseKind(name string) (Kind, error) {
	k := Kind(name)
	if ok, errs := k.IsValid(); !ok {
		return "", errs[0]
	}
	return k, nil
}
