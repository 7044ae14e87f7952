package datetime_test

import (
	"testing"
	"time"

	"github.com/sandcalc/sandcalc/pkg/eval/errs"
	. "github.com/sandcalc/sandcalc/pkg/eval/evaltest"
	"github.com/sandcalc/sandcalc/pkg/mods/datetime"
	"github.com/sandcalc/sandcalc/pkg/testutil"
)

func TestDate(t *testing.T) {
	Test(t,
		That("datetime.date(2024, 1, 2)").Gives(ReprIs("datetime.date(2024, 1, 2)")),
		That("str(datetime.date(2024, 1, 2))").Gives("2024-01-02"),
		That("datetime.date(2024, 2, 30)").Throws(ErrorWithKind(errs.ValueError)),
		That("datetime.date(0, 1, 1)").Throws(Exc(errs.ValueError, "year 0 is out of range")),
		That("d = datetime.date(2024, 1, 31)\nd.year, d.month, d.day").Gives(T(2024, 1, 31)),
		That("datetime.date(2024, 1, 1).weekday(), datetime.date(2024, 1, 1).isoweekday()").
			Gives(T(0, 1)),
		That("datetime.date(2024, 1, 31) + datetime.timedelta(days=1)").
			Gives(ReprIs("datetime.date(2024, 2, 1)")),
		That("datetime.date(2024, 3, 1) - datetime.date(2024, 2, 1)").
			Gives(ReprIs("datetime.timedelta(days=29)")),
		That("datetime.date(2024, 1, 2) < datetime.date(2024, 1, 3)").Gives(true),
		That("datetime.date.fromisoformat('2024-05-06')").Gives(ReprIs("datetime.date(2024, 5, 6)")),
		That("datetime.date(2024, 1, 2).strftime('%Y/%m/%d')").Gives("2024/01/02"),
		That("datetime.date(2024, 1, 2).replace(day=9)").Gives(ReprIs("datetime.date(2024, 1, 9)")),
		That("f'{datetime.date(2024, 1, 2):%d.%m.%Y}'").Gives("02.01.2024"),
		That("datetime.date.max + datetime.timedelta(days=1)").Throws(ErrorWithKind(errs.OverflowError)),
	)
}

func TestDateTime(t *testing.T) {
	Test(t,
		That("datetime.datetime(2024, 1, 2, 3, 4, 5)").
			Gives(ReprIs("datetime.datetime(2024, 1, 2, 3, 4, 5)")),
		That("datetime.datetime(2024, 1, 2)").Gives(ReprIs("datetime.datetime(2024, 1, 2, 0, 0)")),
		That("str(datetime.datetime(2024, 1, 2, 3, 4, 5))").Gives("2024-01-02 03:04:05"),
		That("datetime.datetime(2024, 1, 2, 3, 4, 5).isoformat()").Gives("2024-01-02T03:04:05"),
		That("datetime.datetime(2024, 1, 2, 23) + datetime.timedelta(hours=2)").
			Gives(ReprIs("datetime.datetime(2024, 1, 3, 1, 0)")),
		That("datetime.datetime(2024, 1, 2, 12).date()").Gives(ReprIs("datetime.date(2024, 1, 2)")),
		That("datetime.datetime(2024, 1, 2, 25)").Throws(ErrorWithKind(errs.ValueError)),
	)
}

func TestTimeDelta(t *testing.T) {
	Test(t,
		That("datetime.timedelta(hours=1, minutes=30)").Gives(ReprIs("datetime.timedelta(seconds=5400)")),
		That("datetime.timedelta(hours=1, minutes=30).total_seconds()").Gives(5400.0),
		That("str(datetime.timedelta(days=1))").Gives("1 day, 0:00:00"),
		That("str(datetime.timedelta(seconds=90))").Gives("0:01:30"),
		That("datetime.timedelta(days=-1, seconds=1).days").Gives(-1),
		That("datetime.timedelta(0)").Gives(ReprIs("datetime.timedelta(0)")),
		That("datetime.timedelta(weeks=1) // datetime.timedelta(days=1)").Gives(7),
		That("datetime.timedelta(days=1) * 2").Gives(ReprIs("datetime.timedelta(days=2)")),
		That("datetime.timedelta(days='x')").Throws(ErrorWithKind(errs.TypeError)),
	)
	TestDecimal(t,
		That("datetime.timedelta(days=0.5)").Gives(ReprIs("datetime.timedelta(seconds=43200)")),
	)
}

func TestToday(t *testing.T) {
	testutil.Set(t, &datetime.Now, func() time.Time {
		return time.Date(2024, 6, 7, 8, 9, 10, 0, time.Local)
	})
	Test(t,
		That("datetime.date.today()").Gives(ReprIs("datetime.date(2024, 6, 7)")),
		That("datetime.datetime.now()").Gives(ReprIs("datetime.datetime(2024, 6, 7, 8, 9, 10)")),
	)
}
