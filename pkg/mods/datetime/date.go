package datetime

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sandcalc/sandcalc/pkg/eval/errs"
	"github.com/sandcalc/sandcalc/pkg/eval/vals"
	"github.com/sandcalc/sandcalc/pkg/hash"
)

// Date is a naive date, a datetime.date.
type Date struct{ ord int }

// NewDate creates a Date, checking that the fields are valid.
func NewDate(y, m, d int) (Date, error) {
	if err := checkDate(y, m, d); err != nil {
		return Date{}, err
	}
	return Date{ordinalOf(y, m, d)}, nil
}

func newDate(args []any, kw vals.Kwargs) (any, error) {
	a, err := vals.Bind("date", args, kw, []string{"year", "month", "day"}, 3)
	if err != nil {
		return nil, err
	}
	var f [3]int
	for i := range f {
		if f[i], err = vals.ToIndex(a[i]); err != nil {
			return nil, err
		}
	}
	return NewDate(f[0], f[1], f[2])
}

func dateToday([]any) (any, error) {
	t := Now()
	return Date{ordinalOf(t.Year(), int(t.Month()), t.Day())}, nil
}

func dateFromTimestamp(args []any) (any, error) {
	t, err := localTime(args[0])
	if err != nil {
		return nil, err
	}
	return Date{ordinalOf(t.Year(), int(t.Month()), t.Day())}, nil
}

func dateFromISO(args []any) (any, error) {
	s, err := isoFormatArg("fromisoformat", args[0])
	if err != nil {
		return nil, err
	}
	d, ok := parseISODate(s)
	if !ok {
		return nil, invalidISO(s)
	}
	return d, nil
}

// ParseISODate parses a date in the format YYYY-MM-DD or YYYYMMDD.
func ParseISODate(s string) (Date, error) {
	d, ok := parseISODate(s)
	if !ok {
		return Date{}, invalidISO(s)
	}
	return d, nil
}

func parseISODate(s string) (Date, bool) {
	var fields []string
	switch {
	case len(s) == 10 && s[4] == '-' && s[7] == '-':
		fields = []string{s[:4], s[5:7], s[8:]}
	case len(s) == 8:
		fields = []string{s[:4], s[4:6], s[6:]}
	default:
		return Date{}, false
	}
	var ymd [3]int
	for i, f := range fields {
		if strings.ContainsAny(f, "+-_ ") {
			return Date{}, false
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return Date{}, false
		}
		ymd[i] = n
	}
	d, err := NewDate(ymd[0], ymd[1], ymd[2])
	return d, err == nil
}

// Fields returns the year, month and day of the date.
func (d Date) Fields() (y, m, day int) {
	t := timeOfOrdinal(d.ord)
	return t.Year(), int(t.Month()), t.Day()
}

func (d Date) Type() *vals.Type { return DateType }

// Weekday returns the day of the week, where Monday is 0.
func (d Date) Weekday() int { return (d.ord + 6) % 7 }

func (d Date) yearDay() int { return timeOfOrdinal(d.ord).YearDay() }

func (d Date) isoCalendar() vals.Tuple {
	y, w := timeOfOrdinal(d.ord).ISOWeek()
	return vals.Tuple{y, w, d.Weekday() + 1}
}

// ISOFormat returns the date in the format YYYY-MM-DD.
func (d Date) ISOFormat() string {
	y, m, day := d.Fields()
	return fmt.Sprintf("%04d-%02d-%02d", y, m, day)
}

func (d Date) String() string { return d.ISOFormat() }

func (d Date) Repr() string {
	y, m, day := d.Fields()
	return fmt.Sprintf("datetime.date(%d, %d, %d)", y, m, day)
}

func (d Date) Equal(other any) bool {
	o, ok := other.(Date)
	return ok && o == d
}

func (d Date) Compare(other any) (int, bool) {
	o, ok := other.(Date)
	if !ok {
		return 0, false
	}
	return cmpInts(d.ord, o.ord), true
}

func (d Date) Hash() uint32 { return hash.DJB(hash.String("date"), hash.Uint64(uint64(d.ord))) }

func (d Date) Format(spec string) (string, error) {
	if spec == "" {
		return d.String(), nil
	}
	return strftime(spec, d, 0), nil
}

func (d Date) addDays(n int) (Date, error) {
	ord := d.ord + n
	if ord < 1 || ord > maxOrdinal {
		return Date{}, errDateRange()
	}
	return Date{ord}, nil
}

func (d Date) BinaryOp(op string, other any, reflected bool) (any, bool, error) {
	switch op {
	case "+":
		if td, ok := other.(TimeDelta); ok {
			v, err := d.addDays(td.days)
			return v, true, err
		}
	case "-":
		if reflected {
			return nil, false, nil
		}
		switch o := other.(type) {
		case TimeDelta:
			v, err := d.addDays(-o.days)
			return v, true, err
		case Date:
			return TimeDelta{days: d.ord - o.ord}, true, nil
		}
	}
	return nil, false, nil
}

func (d Date) Attr(name string) (any, bool) {
	y, m, day := d.Fields()
	switch name {
	case "year":
		return y, true
	case "month":
		return m, true
	case "day":
		return day, true
	case "weekday":
		return constMethod(d, name, d.Weekday()), true
	case "isoweekday":
		return constMethod(d, name, d.Weekday()+1), true
	case "isoformat":
		return constMethod(d, name, d.ISOFormat()), true
	case "toordinal":
		return constMethod(d, name, d.ord), true
	case "isocalendar":
		return constMethod(d, name, d.isoCalendar()), true
	case "ctime":
		return constMethod(d, name, ctime(d, 0)), true
	case "timetuple":
		return constMethod(d, name, vals.Tuple{y, m, day, 0, 0, 0, d.Weekday(), d.yearDay(), -1}), true
	case "strftime":
		return method(d, name, 1, 1, func(args []any) (any, error) {
			format, ok := args[0].(string)
			if !ok {
				return nil, errs.Newf(errs.TypeError, "strftime() argument 1 must be str, not %s", vals.TypeName(args[0]))
			}
			return d.Format(format)
		}), true
	case "replace":
		return vals.Method(d, name, func(args []any, kw vals.Kwargs) (any, error) {
			a, err := vals.Bind("replace", args, kw, []string{"year", "month", "day"}, 0)
			if err != nil {
				return nil, err
			}
			if y, err = intArg(a, 0, y); err != nil {
				return nil, err
			}
			if m, err = intArg(a, 1, m); err != nil {
				return nil, err
			}
			if day, err = intArg(a, 2, day); err != nil {
				return nil, err
			}
			return NewDate(y, m, day)
		}), true
	}
	return nil, false
}

func cmpInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
