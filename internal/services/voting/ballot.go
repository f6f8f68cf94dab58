// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package voting

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// FormPrefix prefixes every ballot field of the voting form.
const FormPrefix = "vote$"

// Selector names where votes go: either Abstain or a poll option id.
type Selector string

// Abstain collects the votes a voter deliberately does not give to any option.
const Abstain Selector = "abstain"

// OptionSelector returns the selector for a poll option.
func OptionSelector(id int64) Selector {
	return Selector(strconv.FormatInt(id, 10))
}

// OptionID returns the option id the selector refers to. It reports false for
// Abstain and for anything that is not an id in the form OptionSelector
// writes, so "07" or "+7" never alias option 7.
func (s Selector) OptionID() (int64, bool) {
	if s == Abstain {
		return 0, false
	}
	id, err := strconv.ParseInt(string(s), 10, 64)
	if err != nil || OptionSelector(id) != s {
		return 0, false
	}
	return id, true
}

// FieldName returns the form field name for the selector.
func (s Selector) FieldName() string {
	return FormPrefix + string(s)
}

// Ballot is the allocation of a voter's votes within one poll. PollID may be
// zero, in which case the poll is taken from the referenced options.
type Ballot struct {
	PollID int64
	Votes  map[Selector]int
}

// Total returns the number of votes allocated by the ballot. Positive and
// negative counts are summed apart, so the outcome does not depend on map
// order. A positive sum beyond math.MaxInt yields ErrTooManyVotes, a negative
// sum below math.MinInt ErrTooFewVotes; the positive overflow wins.
func (b Ballot) Total() (int, error) {
	given, withdrawn := 0, 0
	overGiven, overWithdrawn := false, false
	for _, n := range b.Votes {
		switch {
		case n > 0 && given > math.MaxInt-n:
			overGiven = true
		case n > 0:
			given += n
		case n < 0 && withdrawn < math.MinInt-n:
			overWithdrawn = true
		default:
			withdrawn += n
		}
	}
	switch {
	case overGiven:
		return 0, ErrTooManyVotes
	case overWithdrawn:
		return 0, ErrTooFewVotes
	}
	return given + withdrawn, nil
}

// ParseForm reads the vote$<selector> fields of a submitted voting form.
// Fields without the prefix are ignored.
func ParseForm(form url.Values) (map[Selector]int, error) {
	votes := make(map[Selector]int)
	for key, values := range form {
		name, ok := strings.CutPrefix(key, FormPrefix)
		if !ok {
			continue
		}
		if len(values) == 0 {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(values[0]))
		if err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", ErrMalformedBallot, key, err)
		}
		votes[Selector(name)] = n
	}
	return votes, nil
}
