package diag

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

type testErrorTag struct{}

func (testErrorTag) ErrorTag() string { return "some error" }

func TestError(t *testing.T) {
	setCulpritMarkers(t, "<", ">")
	setMessageMarkers(t, "{", "}")

	err := &Error[testErrorTag]{
		Message: "bad list",
		Context: *contextInParen("[test]", "x = (y)"),
	}

	wantErrorString := "some error: [test]:1:5: bad list"
	if gotErrorString := err.Error(); gotErrorString != wantErrorString {
		t.Errorf("Error() -> %q, want %q", gotErrorString, wantErrorString)
	}

	wantRanging := Ranging{From: 4, To: 7}
	if gotRanging := err.Range(); gotRanging != wantRanging {
		t.Errorf("Range() -> %v, want %v", gotRanging, wantRanging)
	}

	wantShow := "Some error: {bad list}\n  [test]:1:5: x = <(y)>"
	if gotShow := err.Show(""); gotShow != wantShow {
		t.Errorf("Show() -> %q, want %q", gotShow, wantShow)
	}
}

func TestUnpackError(t *testing.T) {
	err := &Error[testErrorTag]{Message: "x"}
	if got := UnpackError[testErrorTag](fmt.Errorf("wrapped: %w", err)); got != err {
		t.Errorf("UnpackError -> %v, want %v", got, err)
	}
	if got := UnpackError[testErrorTag](errors.New("plain")); got != nil {
		t.Errorf("UnpackError -> %v, want nil", got)
	}
}

func TestShowError(t *testing.T) {
	setCulpritMarkers(t, "<", ">")
	setMessageMarkers(t, "{", "}")

	var buf bytes.Buffer
	ShowError(&buf, errors.New("plain"))
	if got, want := buf.String(), "{plain}\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	buf.Reset()
	ShowError(&buf, &Error[testErrorTag]{
		Message: "bad", Context: *contextInParen("[test]", "(a)")})
	if got, want := buf.String(), "Some error: {bad}\n  [test]:1:1: <(a)>\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
