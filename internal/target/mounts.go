package target

import (
	"bufio"
	"io"
	"strings"
)

// mountedIn reports whether any mount source listed in r (in /proc/mounts
// format) is dev itself or one of its partitions, e.g. /dev/sdb1 or
// /dev/mmcblk0p2 for /dev/sdb and /dev/mmcblk0. Devices whose name ends in a
// digit only take the "p" form, so /dev/loop10 is not a partition of
// /dev/loop1.
func mountedIn(r io.Reader, dev string) bool {
	if !strings.HasPrefix(dev, "/dev/") {
		return false
	}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		src := fields[0]
		if src == dev {
			return true
		}
		rest, ok := strings.CutPrefix(src, dev)
		if !ok || rest == "" {
			continue
		}
		if isPartitionSuffix(rest, endsInDigit(dev)) {
			return true
		}
	}
	return false
}

func isPartitionSuffix(rest string, digitDev bool) bool {
	if digitDev {
		var ok bool
		if rest, ok = strings.CutPrefix(rest, "p"); !ok {
			return false
		}
	} else {
		rest = strings.TrimPrefix(rest, "p")
	}
	return rest != "" && strings.Trim(rest, "0123456789") == ""
}

func endsInDigit(s string) bool {
	return s != "" && s[len(s)-1] >= '0' && s[len(s)-1] <= '9'
}
