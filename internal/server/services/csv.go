package services

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/stallpass/internal/server/models"
)

const visitsCSVHeader = "Name,Email,Visited_Count,Visited_Stalls"

// renderVisitsCSV writes one row per user. The stall list is space
// separated and always quoted, even when empty.
func renderVisitsCSV(users []*models.User) []byte {
	var b bytes.Buffer
	b.WriteString(visitsCSVHeader)
	b.WriteString("\n")

	for _, u := range users {
		stalls := u.VisitedStalls()
		ids := make([]string, len(stalls))
		for i, id := range stalls {
			ids[i] = strconv.Itoa(id)
		}

		b.WriteString(csvField(u.Name))
		b.WriteByte(',')
		b.WriteString(csvField(u.Email))
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(len(stalls)))
		b.WriteByte(',')
		b.WriteString(quote(strings.Join(ids, " ")))
		b.WriteString("\n")
	}

	return b.Bytes()
}

// csvField quotes s only when RFC 4180 requires it.
func csvField(s string) string {
	if s == "" || (!strings.ContainsAny(s, ",\"\r\n") && s[0] != ' ') {
		return s
	}
	return quote(s)
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
