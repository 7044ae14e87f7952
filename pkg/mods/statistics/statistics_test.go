package statistics_test

import (
	"testing"

	"github.com/sandcalc/sandcalc/pkg/eval/errs"
	. "github.com/sandcalc/sandcalc/pkg/eval/evaltest"
)

func TestStatistics(t *testing.T) {
	Test(t,
		That("statistics.mean([1, 2, 3])").Gives(2),
		That("statistics.mean([1, 2])").Gives(1.5),
		That("statistics.mean([0.5, 1.5])").Gives(1.0),
		That("statistics.mean([])").
			Throws(Exc(errs.StatisticsError, "mean requires at least one data point")),
		That("statistics.mean(['a'])").Throws(ErrorWithKind(errs.TypeError)),
		That("statistics.fmean([1, 2])").Gives(1.5),
		That("statistics.geometric_mean([1, 4])").Gives(Approximately(2)),
		That("statistics.geometric_mean([0])").Throws(ErrorWithKind(errs.StatisticsError)),
		That("statistics.harmonic_mean([1, 4, 4])").Gives(2),
		That("statistics.harmonic_mean([1, 0])").Gives(0),
		That("statistics.median([3, 1, 2]), statistics.median([4, 1, 3, 2])").Gives(T(2, 2.5)),
		That("statistics.median_low([1, 2, 3, 4]), statistics.median_high([1, 2, 3, 4])").Gives(T(2, 3)),
		That("statistics.median([])").Throws(Exc(errs.StatisticsError, "no median for empty data")),
		That("statistics.mode([1, 2, 2, 3, 3])").Gives(2),
		That("statistics.multimode('aabbc')").Gives(L("a", "b")),
		That("statistics.mode([])").Throws(ErrorWithKind(errs.StatisticsError)),
		That("statistics.pvariance([1, 2, 3, 4])").Gives(1.25),
		That("statistics.variance([1, 2, 3, 4, 5])").Gives(2.5),
		That("statistics.pstdev([2, 4, 4, 4, 5, 5, 7, 9])").Gives(2.0),
		That("statistics.variance([1])").Throws(ErrorWithKind(errs.StatisticsError)),
	)
	TestDecimal(t,
		That("statistics.mean([1, 2])").Gives(D("1.5")),
		That("statistics.median([1, 2])").Gives(D("1.5")),
		That("statistics.pvariance([1, 2, 3, 4])").Gives(D("1.25")),
	)
}
