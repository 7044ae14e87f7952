// Package env keeps names of environment variables with special significance
// to sandcalc.
package env

// Environment variables with special significance to sandcalc.
//
// Note that some of these env vars may be significant only in special
// circumstances, such as when running unit tests.
const (
	// Path of the configuration file used when -config is not given.
	SANDCALC_CONFIG          = "SANDCALC_CONFIG"
	SANDCALC_TEST_TIME_SCALE = "SANDCALC_TEST_TIME_SCALE"
	XDG_CONFIG_HOME          = "XDG_CONFIG_HOME"
	XDG_STATE_HOME           = "XDG_STATE_HOME"
)
