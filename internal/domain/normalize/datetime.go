package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	dmyPattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})(?:\s+(\d{1,2}):(\d{2})(?::(\d{2}))?)?$`)
	isoPattern = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
)

// LocalDateTime parses the wall-clock timestamps the operational sheets and
// wallet exports use: "dd/MM/yyyy HH:mm[:ss]" (time part optional) or a bare
// ISO date "yyyy-MM-dd". The result carries the local timezone; exports do
// not encode offsets and the whole system runs on one wall clock.
func LocalDateTime(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	if m := dmyPattern.FindStringSubmatch(s); m != nil {
		day := atoi(m[1])
		month := atoi(m[2])
		year := atoi(m[3])
		hour := atoi(m[4])
		minute := atoi(m[5])
		sec := atoi(m[6])
		if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 || sec > 59 {
			return time.Time{}, false
		}
		return time.Date(year, time.Month(month), day, hour, minute, sec, 0, time.Local), true
	}

	if m := isoPattern.FindStringSubmatch(s); m != nil {
		year := atoi(m[1])
		month := atoi(m[2])
		day := atoi(m[3])
		if month < 1 || month > 12 || day < 1 || day > 31 {
			return time.Time{}, false
		}
		return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local), true
	}

	return time.Time{}, false
}

func atoi(s string) int {
	if s == "" {
		return 0
	}
	n, _ := strconv.Atoi(s)
	return n
}
