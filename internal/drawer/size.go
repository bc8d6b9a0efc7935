package drawer

import "fmt"

// sizeUnits is ordered from smallest to largest; an int64 never exceeds 8 EB.
var sizeUnits = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}

// FormatSize renders a byte count in the largest unit that keeps the value
// at or above 1. Byte counts print as integers, every other unit with two
// decimals: 0 -> "0 B", 1536 -> "1.50 KB", 1073741824 -> "1.00 GB".
func FormatSize(size int64) string {
	if size < 1024 {
		return fmt.Sprintf("%d %s", size, sizeUnits[0])
	}

	value := float64(size)
	unit := 0
	for value >= 1024 && unit < len(sizeUnits)-1 {
		value /= 1024
		unit++
	}
	return fmt.Sprintf("%.2f %s", value, sizeUnits[unit])
}
