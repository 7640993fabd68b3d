package record

import "strings"

// Request asks for a relationship to be loaded eagerly. Args are passed
// to the relationship's declaration; With is loaded on the fetched
// related entities afterwards.
type Request struct {
	Name string
	Args []any
	With []Request
}

// Rel builds a Request for name with declaration arguments.
func Rel(name string, args ...any) Request {
	return Request{Name: name, Args: args}
}

// Nest returns a copy of r that also loads reqs on the related entities.
func (r Request) Nest(reqs ...Request) Request {
	r.With = append(append([]Request(nil), r.With...), reqs...)
	return r
}

// parseWith turns relationship names into requests. A dotted name such as
// "car.manufactor" nests under the latest request for its head ("car"),
// creating one when missing. Plain names always add a request, so a
// repeated name is loaded twice.
func parseWith(names ...string) []Request {
	var reqs []Request
	for _, name := range names {
		reqs = mergeWith(reqs, name)
	}
	return reqs
}

func mergeWith(reqs []Request, name string) []Request {
	head, rest, dotted := strings.Cut(name, ".")
	if !dotted {
		return append(reqs, Request{Name: name})
	}
	i := lastIndex(reqs, head)
	if i < 0 {
		reqs = append(reqs, Request{Name: head})
		i = len(reqs) - 1
	}
	reqs[i].With = mergeWith(reqs[i].With, rest)
	return reqs
}

func lastIndex(reqs []Request, name string) int {
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Name == name {
			return i
		}
	}
	return -1
}
