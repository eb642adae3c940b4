package lookup

import (
	"fmt"
	"time"
)

// Level tells the notifier how to style a notice.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Notice is a transient message. Delay is how long it stays visible and
// Width is the preferred width in terminal columns.
type Notice struct {
	Text  string
	Delay time.Duration
	Width int
	Level Level
}

const (
	wrongRequestText = "You made a wrong request."
	problemsFormat   = "Sorry, there were some problems - %s."
	tooManyFormat    = "There are too many countries in the list (%d). Please, make a more specific request"
	noMatchesFormat  = "No countries matched \"%s\"."
)

func (c *Controller) wrongRequest() Notice {
	return Notice{Text: wrongRequestText, Delay: c.errorDelay, Width: c.noticeWidth, Level: LevelError}
}

func (c *Controller) problems(err error) Notice {
	return Notice{Text: fmt.Sprintf(problemsFormat, err.Error()), Delay: c.errorDelay, Width: c.noticeWidth, Level: LevelError}
}

func (c *Controller) tooMany(count int) Notice {
	return Notice{Text: fmt.Sprintf(tooManyFormat, count), Delay: c.tooManyDelay, Width: c.noticeWidth, Level: LevelWarning}
}

func (c *Controller) noMatches(term string) Notice {
	return Notice{Text: fmt.Sprintf(noMatchesFormat, term), Delay: c.errorDelay, Width: c.noticeWidth, Level: LevelWarning}
}
