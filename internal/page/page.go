// Package page derives page bounds and navigation links for list
// endpoints.
package page

import "strconv"

type Page struct {
	Number   int
	Skip     int
	LastPage int
}

// Paginate clamps the requested page into [1, lastPage] and computes the
// skip offset. lastPage has a floor of 1, so an empty collection reports
// a single empty page rather than page 0 of 0.
func Paginate(requested, pageSize, totalItems int) Page {
	lastPage := (totalItems + pageSize - 1) / pageSize
	if lastPage < 1 {
		lastPage = 1
	}

	number := requested
	if number < 1 {
		number = 1
	}
	if number > lastPage {
		number = lastPage
	}

	return Page{
		Number:   number,
		Skip:     (number - 1) * pageSize,
		LastPage: lastPage,
	}
}

// ParseRequested reads a page query parameter, defaulting to 1 when
// absent or unparsable.
func ParseRequested(raw string) int {
	if parsed, err := strconv.Atoi(raw); err == nil {
		return parsed
	}
	return 1
}

// Links emits next/last navigation when pages remain ahead and
// prev/first when pages lie behind; a single-page result gets neither.
// base is the list URL including any filter query, e.g. "/courses" or
// "/assignments/123/submissions?studentId=456".
func Links(base string, pageNumber, lastPage int) map[string]string {
	links := map[string]string{}
	if pageNumber < lastPage {
		links["nextPage"] = withPage(base, pageNumber+1)
		links["lastPage"] = withPage(base, lastPage)
	}
	if pageNumber > 1 {
		links["prevPage"] = withPage(base, pageNumber-1)
		links["firstPage"] = withPage(base, 1)
	}
	return links
}

func withPage(base string, number int) string {
	sep := "?"
	for _, c := range base {
		if c == '?' {
			sep = "&"
			break
		}
	}
	return base + sep + "page=" + strconv.Itoa(number)
}
