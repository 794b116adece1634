// Package importer loads vendor endpoint listings into a specification.
//
// A listing is tab separated with one endpoint per row and sixteen
// positional columns. URIs are normalized before rows are parsed: the
// "{version}" segment becomes "v1.0" and "~", "{id}" and "{key}"
// placeholders are renamed after the segment they follow, so
// "/account/~/call-log/{id}" reads "/account/{accountId}/call-log/{callLogId}".
package importer

import (
	"regexp"
	"strings"
	"unicode"
)

// Columns is the number of positional columns in a listing row
const Columns = 16

// Endpoint is one parsed listing row
type Endpoint struct {
	Method         string
	URI            string
	Name           string
	Batch          bool
	UserPlanGroup  string
	AppPermission  string
	UserPermission string
	Since          string
	Style          string
	Visibility     string
	Status         string
	APIGroup       string
	APISubgroup    string
	NameForReports string
	ServiceName    string
	Priority       string
}

var (
	idPlaceholder  = regexp.MustCompile(`/([^/]+)/(?:~|\{id\})`)
	keyPlaceholder = regexp.MustCompile(`/([^/]+)/\{key\}`)
	rowSeparator   = regexp.MustCompile(`[\r\n]+`)
)

// RewriteURIs normalizes the placeholders of every URI in data
func RewriteURIs(data string) string {
	data = strings.ReplaceAll(data, "/{version}", "/v1.0")
	data = renameAfterSegment(idPlaceholder, data, "Id")
	return renameAfterSegment(keyPlaceholder, data, "Key")
}

func renameAfterSegment(re *regexp.Regexp, data, suffix string) string {
	return re.ReplaceAllStringFunc(data, func(m string) string {
		segment := re.FindStringSubmatch(m)[1]
		return "/" + segment + "/{" + lowerCamel(segment) + suffix + "}"
	})
}

// lowerCamel joins the words of s, split on '-' and '_'. The first word only
// has its first letter lowered; every later word is capitalized.
func lowerCamel(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '_' })
	var b strings.Builder
	for i, w := range words {
		r := []rune(w)
		if i == 0 {
			r[0] = unicode.ToLower(r[0])
			b.WriteString(string(r))
			continue
		}
		b.WriteRune(unicode.ToUpper(r[0]))
		b.WriteString(strings.ToLower(string(r[1:])))
	}
	return b.String()
}

// ParseEndpoints rewrites URIs, splits data into rows and parses each
// distinct, non-blank row. Missing trailing columns are left empty.
func ParseEndpoints(data string) []*Endpoint {
	seen := make(map[string]bool)
	var endpoints []*Endpoint

	for _, row := range rowSeparator.Split(RewriteURIs(data), -1) {
		row = strings.TrimSpace(row)
		if row == "" || seen[row] {
			continue
		}
		seen[row] = true
		endpoints = append(endpoints, parseRow(row))
	}
	return endpoints
}

func parseRow(row string) *Endpoint {
	cols := make([]string, Columns)
	for i, c := range strings.Split(row, "\t") {
		if i >= Columns {
			break
		}
		cols[i] = strings.TrimSpace(c)
	}

	return &Endpoint{
		Method:         cols[0],
		URI:            cols[1],
		Name:           cols[2],
		Batch:          cols[3] == "Yes",
		UserPlanGroup:  cols[4],
		AppPermission:  cols[5],
		UserPermission: cols[6],
		Since:          cols[7],
		Style:          cols[8],
		Visibility:     cols[9],
		Status:         cols[10],
		APIGroup:       cols[11],
		APISubgroup:    cols[12],
		NameForReports: cols[13],
		ServiceName:    cols[14],
		Priority:       cols[15],
	}
}
