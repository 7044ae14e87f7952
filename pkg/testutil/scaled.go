package testutil

import (
	"os"
	"strconv"
	"time"

	"github.com/sandcalc/sandcalc/pkg/env"
)

// Scaled multiplies d by $SANDCALC_TEST_TIME_SCALE, for running timing
// sensitive tests on slow machines. A missing or invalid scale counts as 1.
func Scaled(d time.Duration) time.Duration {
	scale, err := strconv.ParseFloat(os.Getenv(env.SANDCALC_TEST_TIME_SCALE), 64)
	if err != nil || scale <= 0 {
		return d
	}
	return time.Duration(float64(d) * scale)
}
