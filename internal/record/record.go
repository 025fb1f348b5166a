// Package record defines the flat records every extractor emits and the per-section
// result type used to report partial success.
package record

import (
	"fmt"
	"strings"
)

// Record is one extracted row: field name to string value.
type Record map[string]string

// Result is the outcome of one parse section. Exactly one of Records and Err is
// meaningful: a failed section carries no records.
type Result struct {
	Section string
	Records []Record
	Err     error
}

// OK reports whether the section parsed successfully.
func (r Result) OK() bool {
	return r.Err == nil
}

// Run executes parse and wraps its outcome as a Result for section.
func Run(section string, parse func() ([]Record, error)) Result {
	records, err := parse()
	if err != nil {
		return Result{Section: section, Err: err}
	}
	return Result{Section: section, Records: records}
}

// Results is an ordered list of section outcomes.
type Results []Result

// Succeeded returns the successful sections in their original order.
func (rs Results) Succeeded() Results {
	out := make(Results, 0, len(rs))
	for _, r := range rs {
		if r.OK() {
			out = append(out, r)
		}
	}
	return out
}

// Failed returns the failed sections in their original order.
func (rs Results) Failed() Results {
	out := make(Results, 0)
	for _, r := range rs {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}

// Sections lists the section names in order.
func (rs Results) Sections() []string {
	names := make([]string, len(rs))
	for i, r := range rs {
		names[i] = r.Section
	}
	return names
}

// Zip pairs two positionally aligned lists. Both lists must come from the same
// page region in matching order; a length mismatch means the markup drifted and
// is reported instead of being silently truncated.
func Zip[A, B any](what string, as []A, bs []B) ([]Pair[A, B], error) {
	if len(as) != len(bs) {
		return nil, &MisalignedError{What: what, Left: len(as), Right: len(bs)}
	}
	out := make([]Pair[A, B], len(as))
	for i := range as {
		out[i] = Pair[A, B]{First: as[i], Second: bs[i]}
	}
	return out, nil
}

// Pair is one element of a zipped list.
type Pair[A, B any] struct {
	First  A
	Second B
}

// MisalignedError reports parallel lists of different lengths.
type MisalignedError struct {
	What        string
	Left, Right int
}

func (e *MisalignedError) Error() string {
	return fmt.Sprintf("%s: misaligned lists (%d vs %d)", e.What, e.Left, e.Right)
}

// Slug lowercases s, trims it and joins words with hyphens.
func Slug(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(strings.ToLower(s)), " ", "-")
}
