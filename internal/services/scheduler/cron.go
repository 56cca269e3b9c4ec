package scheduler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultSpec — ежедневный запуск в 09:00.
const DefaultSpec = "0 9 * * *"

// ErrInvalidSpec возвращается для строк расписания, которые не удалось разобрать.
var ErrInvalidSpec = errors.New("invalid schedule spec")

// Spec — разобранное cron-выражение из пяти полей:
// минута, час, день месяца, месяц, день недели.
type Spec struct {
	raw     string
	minute  uint64
	hour    uint64
	dom     uint64
	month   uint64
	dow     uint64
	domStar bool
	dowStar bool
}

type bounds struct {
	name     string
	min, max int
}

var (
	minuteBounds = bounds{"minute", 0, 59}
	hourBounds   = bounds{"hour", 0, 23}
	domBounds    = bounds{"day of month", 1, 31}
	monthBounds  = bounds{"month", 1, 12}
	dowBounds    = bounds{"day of week", 0, 7}
)

// ParseSpec разбирает cron-выражение. Каждое поле допускает *, N, A-B, */S, A-B/S, N/S
// и списки через запятую. День недели 0-7, где 0 и 7 — воскресенье.
func ParseSpec(spec string) (Spec, error) {
	fields := strings.Fields(spec)
	if len(fields) != 5 {
		return Spec{}, fmt.Errorf("%w %q: expected 5 fields, got %d", ErrInvalidSpec, spec, len(fields))
	}

	s := Spec{raw: strings.Join(fields, " ")}
	var err error
	if s.minute, err = parseField(fields[0], minuteBounds); err != nil {
		return Spec{}, fmt.Errorf("%w %q: %s", ErrInvalidSpec, spec, err)
	}
	if s.hour, err = parseField(fields[1], hourBounds); err != nil {
		return Spec{}, fmt.Errorf("%w %q: %s", ErrInvalidSpec, spec, err)
	}
	if s.dom, err = parseField(fields[2], domBounds); err != nil {
		return Spec{}, fmt.Errorf("%w %q: %s", ErrInvalidSpec, spec, err)
	}
	if s.month, err = parseField(fields[3], monthBounds); err != nil {
		return Spec{}, fmt.Errorf("%w %q: %s", ErrInvalidSpec, spec, err)
	}
	if s.dow, err = parseField(fields[4], dowBounds); err != nil {
		return Spec{}, fmt.Errorf("%w %q: %s", ErrInvalidSpec, spec, err)
	}
	// 7 и 0 — один и тот же день
	if s.dow&(1<<7) != 0 {
		s.dow |= 1
		s.dow &^= 1 << 7
	}
	s.domStar = strings.HasPrefix(fields[2], "*")
	s.dowStar = strings.HasPrefix(fields[4], "*")
	return s, nil
}

func parseField(expr string, b bounds) (uint64, error) {
	var bits uint64
	for _, part := range strings.Split(expr, ",") {
		if part == "" {
			return 0, fmt.Errorf("%s: empty list element", b.name)
		}
		rangePart, stepPart, hasStep := strings.Cut(part, "/")

		step := 1
		if hasStep {
			n, err := strconv.Atoi(stepPart)
			if err != nil || n <= 0 {
				return 0, fmt.Errorf("%s: invalid step %q", b.name, stepPart)
			}
			step = n
		}

		var lo, hi int
		switch {
		case rangePart == "*":
			lo, hi = b.min, b.max
		case strings.Contains(rangePart, "-"):
			from, to, _ := strings.Cut(rangePart, "-")
			var err error
			if lo, err = b.value(from); err != nil {
				return 0, err
			}
			if hi, err = b.value(to); err != nil {
				return 0, err
			}
			if lo > hi {
				return 0, fmt.Errorf("%s: range %q is reversed", b.name, rangePart)
			}
		default:
			n, err := b.value(rangePart)
			if err != nil {
				return 0, err
			}
			lo, hi = n, n
			if hasStep {
				hi = b.max
			}
		}

		for v := lo; v <= hi; v += step {
			bits |= 1 << uint(v)
		}
	}
	return bits, nil
}

func (b bounds) value(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", b.name, s)
	}
	if n < b.min || n > b.max {
		return 0, fmt.Errorf("%s: %d out of range %d-%d", b.name, n, b.min, b.max)
	}
	return n, nil
}

// String возвращает нормализованное выражение.
func (s Spec) String() string {
	return s.raw
}

// searchHorizon ограничивает поиск для выражений, которые никогда не срабатывают (например, 30 февраля).
const searchHorizon = 5 * 366 * 24 * time.Hour

// Next возвращает первую подходящую минуту строго после after в часовом поясе after.
// Нулевое время означает, что выражение не срабатывает в обозримом будущем.
func (s Spec) Next(after time.Time) time.Time {
	loc := after.Location()
	t := after.Truncate(time.Minute).Add(time.Minute)
	limit := t.Add(searchHorizon)

	for t.Before(limit) {
		if s.month&(1<<uint(t.Month())) == 0 {
			t = advance(t, time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, loc))
			continue
		}
		if !s.dayMatches(t) {
			t = advance(t, time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, loc))
			continue
		}
		if s.hour&(1<<uint(t.Hour())) == 0 {
			t = advance(t, time.Date(t.Year(), t.Month(), t.Day(), t.Hour()+1, 0, 0, 0, loc))
			continue
		}
		if s.minute&(1<<uint(t.Minute())) == 0 {
			t = t.Add(time.Minute)
			continue
		}
		return t
	}
	return time.Time{}
}

// dayMatches: если оба поля дня ограничены, достаточно совпадения любого из них.
func (s Spec) dayMatches(t time.Time) bool {
	domMatch := s.dom&(1<<uint(t.Day())) != 0
	dowMatch := s.dow&(1<<uint(t.Weekday())) != 0
	if s.domStar || s.dowStar {
		return domMatch && dowMatch
	}
	return domMatch || dowMatch
}

// advance защищает от шагов назад при переходе на летнее время.
func advance(cur, next time.Time) time.Time {
	if !next.After(cur) {
		return cur.Add(time.Minute)
	}
	return next
}
