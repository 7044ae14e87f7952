package datetime

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sandcalc/sandcalc/pkg/eval/errs"
	"github.com/sandcalc/sandcalc/pkg/eval/vals"
	"github.com/sandcalc/sandcalc/pkg/hash"
)

// DateTime is a naive date and time of day with microsecond resolution, a
// datetime.datetime.
type DateTime struct {
	ord int
	us  int64 // since midnight
}

// NewDateTime creates a DateTime, checking that the fields are valid.
func NewDateTime(y, mo, d, h, mi, s, us int) (DateTime, error) {
	if err := checkDate(y, mo, d); err != nil {
		return DateTime{}, err
	}
	for _, c := range []struct {
		what   string
		v, max int
	}{{"hour", h, 23}, {"minute", mi, 59}, {"second", s, 59}, {"microsecond", us, 999999}} {
		if err := checkRange(c.what, c.v, 0, c.max); err != nil {
			return DateTime{}, err
		}
	}
	return DateTime{ordinalOf(y, mo, d), ((int64(h)*60+int64(mi))*60+int64(s))*usPerSecond + int64(us)}, nil
}

var dateTimeParams = []string{"year", "month", "day", "hour", "minute", "second", "microsecond"}

func newDateTime(args []any, kw vals.Kwargs) (any, error) {
	a, err := vals.Bind("datetime", args, kw, dateTimeParams, 3)
	if err != nil {
		return nil, err
	}
	var f [7]int
	for i := range f {
		if f[i], err = intArg(a, i, 0); err != nil {
			return nil, err
		}
	}
	return NewDateTime(f[0], f[1], f[2], f[3], f[4], f[5], f[6])
}

func fromTime(t time.Time) DateTime {
	dt, _ := NewDateTime(t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond()/1000)
	return dt
}

func dateTimeNow([]any) (any, error) { return fromTime(Now()), nil }

func dateTimeFromTimestamp(args []any) (any, error) {
	t, err := localTime(args[0])
	if err != nil {
		return nil, err
	}
	return fromTime(t), nil
}

func dateTimeFromISO(args []any) (any, error) {
	s, err := isoFormatArg("fromisoformat", args[0])
	if err != nil {
		return nil, err
	}
	return ParseISODateTime(s)
}

// ParseISODateTime parses a date-time in the format
// YYYY-MM-DD[*HH[:MM[:SS[.ffffff]]]], where * is any single character.
func ParseISODateTime(s string) (DateTime, error) {
	if len(s) < 10 {
		return DateTime{}, invalidISO(s)
	}
	d, ok := parseISODate(s[:10])
	if !ok {
		return DateTime{}, invalidISO(s)
	}
	if len(s) == 10 {
		return DateTime{d.ord, 0}, nil
	}
	us, ok := parseISOTime(s[11:])
	if !ok {
		return DateTime{}, invalidISO(s)
	}
	return DateTime{d.ord, us}, nil
}

func parseISOTime(s string) (int64, bool) {
	frac := ""
	if i := strings.IndexAny(s, ".,"); i >= 0 {
		s, frac = s[:i], s[i+1:]
		if len(frac) != 3 && len(frac) != 6 {
			return 0, false
		}
	}
	parts := strings.Split(s, ":")
	if len(parts) > 3 || (frac != "" && len(parts) != 3) {
		return 0, false
	}
	limits := []int{23, 59, 59}
	var us int64
	for i := 0; i < 3; i++ {
		n := 0
		if i < len(parts) {
			if len(parts[i]) != 2 {
				return 0, false
			}
			var err error
			if n, err = strconv.Atoi(parts[i]); err != nil || n < 0 || n > limits[i] {
				return 0, false
			}
		}
		us = us*60 + int64(n)
	}
	us *= usPerSecond
	if frac != "" {
		f, err := strconv.Atoi(frac + strings.Repeat("0", 6-len(frac)))
		if err != nil || f < 0 {
			return 0, false
		}
		us += int64(f)
	}
	return us, true
}

// Fields returns the fields of the date-time.
func (dt DateTime) Fields() (y, mo, d, h, mi, s, us int) {
	y, mo, d = Date{dt.ord}.Fields()
	h, mi, s, us = clock(dt.us)
	return
}

func clock(us int64) (h, m, s, frac int) {
	secs := us / usPerSecond
	return int(secs / 3600), int(secs / 60 % 60), int(secs % 60), int(us % usPerSecond)
}

func (dt DateTime) Type() *vals.Type { return DateTimeType }

// ISOFormat returns the date-time in the format YYYY-MM-DDTHH:MM:SS, followed
// by .ffffff if there are microseconds.
func (dt DateTime) ISOFormat(sep string) string {
	h, m, s, us := clock(dt.us)
	t := fmt.Sprintf("%s%s%02d:%02d:%02d", Date{dt.ord}.ISOFormat(), sep, h, m, s)
	if us != 0 {
		t += fmt.Sprintf(".%06d", us)
	}
	return t
}

func (dt DateTime) String() string { return dt.ISOFormat(" ") }

func (dt DateTime) Repr() string {
	y, mo, d, h, mi, s, us := dt.Fields()
	r := fmt.Sprintf("datetime.datetime(%d, %d, %d, %d, %d", y, mo, d, h, mi)
	if s != 0 || us != 0 {
		r += fmt.Sprintf(", %d", s)
	}
	if us != 0 {
		r += fmt.Sprintf(", %d", us)
	}
	return r + ")"
}

func (dt DateTime) Equal(other any) bool {
	o, ok := other.(DateTime)
	return ok && o == dt
}

func (dt DateTime) Compare(other any) (int, bool) {
	o, ok := other.(DateTime)
	if !ok {
		return 0, false
	}
	if c := cmpInts(dt.ord, o.ord); c != 0 {
		return c, true
	}
	return cmpInts(int(dt.us), int(o.us)), true
}

func (dt DateTime) Hash() uint32 {
	return hash.DJB(hash.String("datetime"), hash.Uint64(uint64(dt.ord)), hash.Uint64(uint64(dt.us)))
}

func (dt DateTime) Format(spec string) (string, error) {
	if spec == "" {
		return dt.String(), nil
	}
	return strftime(spec, Date{dt.ord}, dt.us), nil
}

func (dt DateTime) add(td TimeDelta) (DateTime, error) {
	us := dt.us + int64(td.secs)*usPerSecond + int64(td.us)
	ord := dt.ord + td.days + int(us/usPerDay)
	us %= usPerDay
	if us < 0 {
		us += usPerDay
		ord--
	}
	if ord < 1 || ord > maxOrdinal {
		return DateTime{}, errDateRange()
	}
	return DateTime{ord, us}, nil
}

func (dt DateTime) BinaryOp(op string, other any, reflected bool) (any, bool, error) {
	switch op {
	case "+":
		if td, ok := other.(TimeDelta); ok {
			v, err := dt.add(td)
			return v, true, err
		}
	case "-":
		if reflected {
			return nil, false, nil
		}
		switch o := other.(type) {
		case TimeDelta:
			neg, err := o.neg()
			if err != nil {
				return nil, true, err
			}
			v, err := dt.add(neg)
			return v, true, err
		case DateTime:
			us := int64(dt.ord-o.ord)*usPerDay + dt.us - o.us
			v, err := deltaFromMicros(bigInt(us))
			return v, true, err
		}
	}
	return nil, false, nil
}

// Timestamp returns the POSIX timestamp of the date-time, taken as a local
// time.
func (dt DateTime) Timestamp() float64 {
	y, mo, d, h, mi, s, us := dt.Fields()
	t := time.Date(y, time.Month(mo), d, h, mi, s, 0, time.Local)
	return float64(t.Unix()) + float64(us)/usPerSecond
}

func (dt DateTime) Attr(name string) (any, bool) {
	y, mo, d, h, mi, s, us := dt.Fields()
	date := Date{dt.ord}
	switch name {
	case "year":
		return y, true
	case "month":
		return mo, true
	case "day":
		return d, true
	case "hour":
		return h, true
	case "minute":
		return mi, true
	case "second":
		return s, true
	case "microsecond":
		return us, true
	case "date":
		return constMethod(dt, name, date), true
	case "weekday":
		return constMethod(dt, name, date.Weekday()), true
	case "isoweekday":
		return constMethod(dt, name, date.Weekday()+1), true
	case "toordinal":
		return constMethod(dt, name, dt.ord), true
	case "isocalendar":
		return constMethod(dt, name, date.isoCalendar()), true
	case "ctime":
		return constMethod(dt, name, ctime(date, dt.us)), true
	case "timetuple":
		return constMethod(dt, name, vals.Tuple{y, mo, d, h, mi, s, date.Weekday(), date.yearDay(), -1}), true
	case "timestamp":
		return constMethod(dt, name, dt.Timestamp()), true
	case "isoformat":
		return vals.Method(dt, name, func(args []any, kw vals.Kwargs) (any, error) {
			a, err := vals.Bind("isoformat", args, kw, []string{"sep"}, 0)
			if err != nil {
				return nil, err
			}
			sep := "T"
			if a[0] != nil {
				s, ok := a[0].(string)
				if !ok || len([]rune(s)) != 1 {
					return nil, errs.New(errs.TypeError, "isoformat() argument 1 must be a unicode character")
				}
				sep = s
			}
			return dt.ISOFormat(sep), nil
		}), true
	case "strftime":
		return method(dt, name, 1, 1, func(args []any) (any, error) {
			format, ok := args[0].(string)
			if !ok {
				return nil, errs.Newf(errs.TypeError, "strftime() argument 1 must be str, not %s", vals.TypeName(args[0]))
			}
			return dt.Format(format)
		}), true
	case "replace":
		return vals.Method(dt, name, func(args []any, kw vals.Kwargs) (any, error) {
			a, err := vals.Bind("replace", args, kw, dateTimeParams, 0)
			if err != nil {
				return nil, err
			}
			f := []int{y, mo, d, h, mi, s, us}
			for i := range f {
				if f[i], err = intArg(a, i, f[i]); err != nil {
					return nil, err
				}
			}
			return NewDateTime(f[0], f[1], f[2], f[3], f[4], f[5], f[6])
		}), true
	}
	return nil, false
}
