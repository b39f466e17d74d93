package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// StallID is a stall number as sent by clients: either a JSON number or a
// string holding one (QR payloads often carry "12"). Absent, null and ""
// decode to 0, which handlers treat as missing.
type StallID int

func (s *StallID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = 0
		return nil
	}

	raw := string(b)
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		raw = strings.TrimSpace(str)
		if raw == "" {
			*s = 0
			return nil
		}
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		// 12.0 is still stall 12
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || f != float64(int(f)) {
			return fmt.Errorf("invalid stall %q", raw)
		}
		n = int(f)
	}
	*s = StallID(n)
	return nil
}
