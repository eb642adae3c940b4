package country

import "fmt"

// TooManyThreshold is the largest result set that is still displayed.
const TooManyThreshold = 10

// Kind identifies which presentation path a lookup took.
type Kind int

const (
	KindInvalid Kind = iota
	KindTooMany
	KindSingle
	KindMultiple
	KindFailed
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindTooMany:
		return "too_many"
	case KindSingle:
		return "single"
	case KindMultiple:
		return "multiple"
	case KindFailed:
		return "failed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind is the inverse of Kind.String. Unknown names map to KindFailed.
func ParseKind(s string) Kind {
	switch s {
	case "invalid":
		return KindInvalid
	case "too_many":
		return KindTooMany
	case "single":
		return KindSingle
	case "multiple":
		return KindMultiple
	default:
		return KindFailed
	}
}

// Outcome is the classification of one result set. It is one of
// TooMany, Single or Multiple.
type Outcome interface {
	Kind() Kind
	Len() int
	outcome()
}

type TooMany struct {
	Count int
}

type Single struct {
	Country Country
}

type Multiple struct {
	Countries []Country
}

func (TooMany) Kind() Kind  { return KindTooMany }
func (Single) Kind() Kind   { return KindSingle }
func (Multiple) Kind() Kind { return KindMultiple }

func (o TooMany) Len() int  { return o.Count }
func (Single) Len() int     { return 1 }
func (o Multiple) Len() int { return len(o.Countries) }

func (TooMany) outcome()  {}
func (Single) outcome()   {}
func (Multiple) outcome() {}

// Classify decides the presentation path using TooManyThreshold.
func Classify(results []Country) Outcome {
	return ClassifyWithLimit(results, TooManyThreshold)
}

// ClassifyWithLimit is Classify with a custom threshold. A non-positive
// limit falls back to TooManyThreshold. An empty result set is Multiple.
func ClassifyWithLimit(results []Country, limit int) Outcome {
	if limit <= 0 {
		limit = TooManyThreshold
	}
	switch {
	case len(results) > limit:
		return TooMany{Count: len(results)}
	case len(results) == 1:
		return Single{Country: results[0]}
	default:
		return Multiple{Countries: results}
	}
}
