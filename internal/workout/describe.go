package workout

import (
	"fmt"
	"strings"
	"time"
)

var months = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// Describe returns "{Type} on {Month} {day}", e.g. "Running on April 14".
// Month names are fixed English regardless of locale.
func Describe(kind Kind, t time.Time) string {
	name := string(kind)
	if name != "" {
		name = strings.ToUpper(name[:1]) + name[1:]
	}
	return fmt.Sprintf("%s on %s %d", name, months[t.Month()-1], t.Day())
}
