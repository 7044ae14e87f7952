package datetime

import (
	"fmt"
	"strings"
)

var (
	weekdayNames = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	monthNames   = []string{"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December"}
)

// Formats a date and a time of day with the directives of the C library's
// strftime in the C locale. Unknown directives are copied unchanged.
func strftime(format string, d Date, us int64) string {
	y, m, day := d.Fields()
	h, mi, s, frac := clock(us)
	wd := d.Weekday()
	yday := d.yearDay()
	var sb strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i+1 == len(format) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch format[i] {
		case 'a':
			sb.WriteString(weekdayNames[wd][:3])
		case 'A':
			sb.WriteString(weekdayNames[wd])
		case 'w':
			fmt.Fprintf(&sb, "%d", (wd+1)%7)
		case 'u':
			fmt.Fprintf(&sb, "%d", wd+1)
		case 'd':
			fmt.Fprintf(&sb, "%02d", day)
		case 'b', 'h':
			sb.WriteString(monthNames[m-1][:3])
		case 'B':
			sb.WriteString(monthNames[m-1])
		case 'm':
			fmt.Fprintf(&sb, "%02d", m)
		case 'y':
			fmt.Fprintf(&sb, "%02d", y%100)
		case 'Y':
			fmt.Fprintf(&sb, "%d", y)
		case 'C':
			fmt.Fprintf(&sb, "%02d", y/100)
		case 'H':
			fmt.Fprintf(&sb, "%02d", h)
		case 'I':
			fmt.Fprintf(&sb, "%02d", (h+11)%12+1)
		case 'p':
			if h < 12 {
				sb.WriteString("AM")
			} else {
				sb.WriteString("PM")
			}
		case 'M':
			fmt.Fprintf(&sb, "%02d", mi)
		case 'S':
			fmt.Fprintf(&sb, "%02d", s)
		case 'f':
			fmt.Fprintf(&sb, "%06d", frac)
		case 'j':
			fmt.Fprintf(&sb, "%03d", yday)
		case 'U':
			fmt.Fprintf(&sb, "%02d", (yday-1+7-(wd+1)%7)/7)
		case 'W':
			fmt.Fprintf(&sb, "%02d", (yday-1+7-wd)/7)
		case 'G':
			fmt.Fprintf(&sb, "%d", d.isoCalendar()[0])
		case 'V':
			fmt.Fprintf(&sb, "%02d", d.isoCalendar()[1])
		case 'c':
			sb.WriteString(ctime(d, us))
		case 'x':
			fmt.Fprintf(&sb, "%02d/%02d/%02d", m, day, y%100)
		case 'X':
			fmt.Fprintf(&sb, "%02d:%02d:%02d", h, mi, s)
		case 'D':
			fmt.Fprintf(&sb, "%02d/%02d/%02d", m, day, y%100)
		case 'F':
			fmt.Fprintf(&sb, "%d-%02d-%02d", y, m, day)
		case 'T':
			fmt.Fprintf(&sb, "%02d:%02d:%02d", h, mi, s)
		case 'R':
			fmt.Fprintf(&sb, "%02d:%02d", h, mi)
		case 'e':
			fmt.Fprintf(&sb, "%2d", day)
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'z', 'Z':
			// Naive values have no offset or zone name.
		case '%':
			sb.WriteByte('%')
		default:
			sb.WriteByte('%')
			sb.WriteByte(format[i])
		}
	}
	return sb.String()
}

// Formats like "Tue Jan  2 03:04:05 2024".
func ctime(d Date, us int64) string {
	y, m, day := d.Fields()
	h, mi, s, _ := clock(us)
	return fmt.Sprintf("%s %s %2d %02d:%02d:%02d %d",
		weekdayNames[d.Weekday()][:3], monthNames[m-1][:3], day, h, mi, s, y)
}
