package buildinfo

import (
	"fmt"
	"runtime/debug"
	"testing"

	. "github.com/sandcalc/sandcalc/pkg/prog/progtest"
	"github.com/sandcalc/sandcalc/pkg/tt"
)

func TestProgram(t *testing.T) {
	Test(t, &Program{},
		ThatSandcalc("-version").WritesStdout(Value.Version+"\n"),
		ThatSandcalc("-version", "-json").WritesStdout(mustToJSON(Value.Version)+"\n"),

		ThatSandcalc("-buildinfo").WritesStdout(
			fmt.Sprintf("Version: %v\nGo version: %v\n", Value.Version, Value.GoVersion)),
		ThatSandcalc("-buildinfo", "-json").WritesStdout(mustToJSON(Value)+"\n"),

		ThatSandcalc().ExitsWith(2).WritesStderr("internal error: no suitable subprogram\n"),
	)
}

func vcs(revision, time, modified string) *debug.BuildInfo {
	return &debug.BuildInfo{Settings: []debug.BuildSetting{
		{Key: "vcs.revision", Value: revision},
		{Key: "vcs.time", Value: time},
		{Key: "vcs.modified", Value: modified},
	}}
}

func TestDevVersion(t *testing.T) {
	devVersionWith := func(override string, bi *debug.BuildInfo) string {
		return devVersion("0.42.0", override, func() (*debug.BuildInfo, bool) {
			return bi, bi != nil
		})
	}
	tt.Test(t, tt.Fn(devVersionWith).Named("devVersion"),
		tt.Args("", (*debug.BuildInfo)(nil)).Rets("0.42.0-dev.unknown"),
		tt.Args("", &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}).
			Rets("0.42.0-dev.unknown"),
		tt.Args("", &debug.BuildInfo{Main: debug.Module{Version: "v0.42.0-dev.foobar"}}).
			Rets("0.42.0-dev.foobar"),
		tt.Args("", vcs("1234567890123456", "2022-04-01T23:59:58Z", "false")).
			Rets("0.42.0-dev.0.20220401235958-123456789012"),
		tt.Args("", vcs("1234567890123456", "2022-04-01T23:59:58Z", "true")).
			Rets("0.42.0-dev.0.20220401235958-123456789012-dirty"),
		tt.Args("", vcs("1234567890123456", "April First", "false")).
			Rets("0.42.0-dev.unknown"),
		tt.Args("", vcs("", "2022-04-01T23:59:58Z", "false")).
			Rets("0.42.0-dev.unknown"),
		tt.Args("20220401235958-123456789012", (*debug.BuildInfo)(nil)).
			Rets("0.42.0-dev.0.20220401235958-123456789012"),
	)
}
