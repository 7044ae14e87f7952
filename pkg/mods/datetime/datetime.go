// Package datetime implements the datetime module visible to sandboxed code:
// naive dates, naive date-times and time deltas.
//
// There are no time zones. Times read from the clock or converted from
// timestamps are in the local time zone of the process, and naive values are
// taken to be local times when converted back to timestamps.
package datetime

import (
	"math/big"
	"time"

	"github.com/sandcalc/sandcalc/pkg/eval/errs"
	"github.com/sandcalc/sandcalc/pkg/eval/vals"
)

// Limits of dates.
const (
	MinYear = 1
	MaxYear = 9999
)

const (
	maxOrdinal       = 3652059 // date(9999, 12, 31)
	unixEpochOrdinal = 719163  // date(1970, 1, 1)
	secondsPerDay    = 86400
	usPerSecond      = 1000000
	usPerDay         = secondsPerDay * usPerSecond
	maxDeltaDays     = 999999999
)

// Types of the values of this module.
var (
	DateType      = &vals.Type{Name: "date", Module: "datetime", Base: vals.ObjectType}
	DateTimeType  = &vals.Type{Name: "datetime", Module: "datetime", Base: DateType}
	TimeDeltaType = &vals.Type{Name: "timedelta", Module: "datetime", Base: vals.ObjectType}
)

// Now returns the current time. It is a variable so that tests can fix the
// clock.
var Now = time.Now

// Module is the datetime module.
var Module = vals.BuildModule("datetime").
	AddValues(map[string]any{
		"date":      DateType,
		"datetime":  DateTimeType,
		"timedelta": TimeDeltaType,
		"MINYEAR":   MinYear,
		"MAXYEAR":   MaxYear,
	}).
	Module()

func init() {
	DateType.New = newDate
	DateType.Attrs = map[string]any{
		"today":         vals.Method(DateType, "today", classMethod("today", 0, 0, dateToday)),
		"fromisoformat": vals.Method(DateType, "fromisoformat", classMethod("fromisoformat", 1, 1, dateFromISO)),
		"fromtimestamp": vals.Method(DateType, "fromtimestamp", classMethod("fromtimestamp", 1, 1, dateFromTimestamp)),
		"min":           Date{1},
		"max":           Date{maxOrdinal},
	}
	DateTimeType.New = newDateTime
	DateTimeType.Attrs = map[string]any{
		"now":           vals.Method(DateTimeType, "now", classMethod("now", 0, 0, dateTimeNow)),
		"today":         vals.Method(DateTimeType, "today", classMethod("today", 0, 0, dateTimeNow)),
		"fromisoformat": vals.Method(DateTimeType, "fromisoformat", classMethod("fromisoformat", 1, 1, dateTimeFromISO)),
		"fromtimestamp": vals.Method(DateTimeType, "fromtimestamp", classMethod("fromtimestamp", 1, 1, dateTimeFromTimestamp)),
		"min":           DateTime{1, 0},
		"max":           DateTime{maxOrdinal, usPerDay - 1},
	}
	TimeDeltaType.New = newTimeDelta
	TimeDeltaType.Attrs = map[string]any{
		"min": TimeDelta{days: -maxDeltaDays},
		"max": TimeDelta{maxDeltaDays, secondsPerDay - 1, usPerSecond - 1},
	}
}

func classMethod(name string, low, high int, f func(args []any) (any, error)) func([]any, vals.Kwargs) (any, error) {
	return func(args []any, kw vals.Kwargs) (any, error) {
		if err := vals.CheckArity(name, args, kw, low, high); err != nil {
			return nil, err
		}
		return f(args)
	}
}

// Creates a method of a value taking a range of positional arguments.
func method(recv any, name string, low, high int, f func(args []any) (any, error)) *vals.BoundMethod {
	return vals.Method(recv, name, classMethod(name, low, high, f))
}

func constMethod(recv any, name string, v any) *vals.BoundMethod {
	return method(recv, name, 0, 0, func([]any) (any, error) { return v, nil })
}

// Returns the integer argument at index i of args bound by vals.Bind, or def
// if it is absent.
func intArg(a []any, i, def int) (int, error) {
	if a[i] == nil {
		return def, nil
	}
	return vals.ToIndex(a[i])
}

func checkRange(what string, v, lo, hi int) error {
	if v < lo || v > hi {
		return errs.Newf(errs.ValueError, "%s must be in %d..%d", what, lo, hi)
	}
	return nil
}

func daysInMonth(y, m int) int {
	return time.Date(y, time.Month(m)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func checkDate(y, m, d int) error {
	if y < MinYear || y > MaxYear {
		return errs.Newf(errs.ValueError, "year %d is out of range", y)
	}
	if err := checkRange("month", m, 1, 12); err != nil {
		return err
	}
	if d < 1 || d > daysInMonth(y, m) {
		return errs.New(errs.ValueError, "day is out of range for month")
	}
	return nil
}

func errDateRange() error { return errs.New(errs.OverflowError, "date value out of range") }

// Returns the proleptic Gregorian ordinal of a date, where January 1 of year
// 1 is day 1.
func ordinalOf(y, m, d int) int {
	return int(time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC).Unix()/secondsPerDay) + unixEpochOrdinal
}

func timeOfOrdinal(ord int) time.Time {
	return time.Unix(int64(ord-unixEpochOrdinal)*secondsPerDay, 0).UTC()
}

// Converts a timestamp to a local time, rounded to microseconds.
func localTime(v any) (time.Time, error) {
	ts, err := vals.ToFloat(v)
	if err != nil {
		return time.Time{}, err
	}
	r := new(big.Rat)
	if r.SetFloat64(ts) == nil {
		return time.Time{}, errs.New(errs.ValueError, "Invalid value NaN (not a number)")
	}
	us := roundHalfEven(r.Mul(r, big.NewRat(usPerSecond, 1)))
	if !us.IsInt64() {
		return time.Time{}, errs.New(errs.OverflowError, "timestamp out of range for platform time_t")
	}
	t := time.UnixMicro(us.Int64()).In(time.Local)
	if t.Year() < MinYear || t.Year() > MaxYear {
		return time.Time{}, errs.Newf(errs.ValueError, "year %d is out of range", t.Year())
	}
	return t, nil
}

func roundHalfEven(r *big.Rat) *big.Int {
	q, m := new(big.Int).DivMod(r.Num(), r.Denom(), new(big.Int))
	c := new(big.Int).Lsh(m, 1).Cmp(r.Denom())
	if c > 0 || (c == 0 && q.Bit(0) == 1) {
		q.Add(q, big.NewInt(1))
	}
	return q
}

func isoFormatArg(fn string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", errs.Newf(errs.TypeError, "%s: argument must be str", fn)
	}
	return s, nil
}

func invalidISO(s string) error {
	return errs.Newf(errs.ValueError, "Invalid isoformat string: %s", vals.Quote(s))
}
