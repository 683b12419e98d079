package crud

import (
	"fmt"
	"strings"
)

// Page is one window of the filtered list.
type Page struct {
	Items      []Record `json:"items"`
	Page       int      `json:"page"`
	TotalPages int      `json:"totalPages"`
	Total      int      `json:"total"`
	PageSize   int      `json:"pageSize"`
}

// Search returns the rows whose searchable fields contain q, ignoring case.
// rows is never modified and an empty q returns rows as-is. q is matched
// verbatim, surrounding spaces included.
func Search(rows []Record, q string, fields []string) []Record {
	q = strings.ToLower(q)
	if q == "" {
		return rows
	}
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		if strings.Contains(haystack(row, fields), q) {
			out = append(out, row)
		}
	}
	return out
}

func haystack(row Record, fields []string) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, ToString(row[f]))
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// TotalPages is max(1, ceil(n/size)).
func TotalPages(n, size int) int {
	if size <= 0 || n <= 0 {
		return 1
	}
	return (n + size - 1) / size
}

// Paginate returns the page-th window of rows, page being clamped into range.
func Paginate(rows []Record, page, size int) Page {
	if size <= 0 {
		size = len(rows)
		if size == 0 {
			size = 1
		}
	}
	total := TotalPages(len(rows), size)
	page = clamp(page, 1, total)
	start := (page - 1) * size
	end := start + size
	if end > len(rows) {
		end = len(rows)
	}
	items := make([]Record, 0, end-start)
	items = append(items, rows[start:end]...)
	return Page{Items: items, Page: page, TotalPages: total, Total: len(rows), PageSize: size}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ListStore caches the last loaded rows together with the search text and
// current page.
type ListStore struct {
	rows     []Record
	search   string
	page     int
	pageSize int
	fields   []string
	idField  string
	// trim drops surrounding spaces from the search text before matching
	trim bool
}

func NewListStore(idField string, searchFields []string, pageSize int) *ListStore {
	return &ListStore{idField: idField, fields: searchFields, pageSize: pageSize, page: 1, rows: []Record{}}
}

// Replace swaps in a freshly loaded list.
func (s *ListStore) Replace(rows []Record) {
	if rows == nil {
		rows = []Record{}
	}
	s.rows = rows
	s.revalidate()
}

// SetSearch changes the filter text.
func (s *ListStore) SetSearch(q string) {
	s.search = q
	s.revalidate()
}

// SetPageSize changes the rows per page and returns to page 1.
func (s *ListStore) SetPageSize(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: %d", ErrPageSize, n)
	}
	s.pageSize = n
	s.page = 1
	return nil
}

func (s *ListStore) PageSize() int {
	return s.pageSize
}

// SetPage moves to page, clamped into range.
func (s *ListStore) SetPage(page int) {
	s.page = clamp(page, 1, TotalPages(len(s.Filtered()), s.pageSize))
}

// revalidate resets to page 1 when the current page fell out of range.
func (s *ListStore) revalidate() {
	if s.page < 1 || s.page > TotalPages(len(s.Filtered()), s.pageSize) {
		s.page = 1
	}
}

func (s *ListStore) Rows() []Record {
	return s.rows
}

func (s *ListStore) Search() string {
	return s.search
}

func (s *ListStore) Filtered() []Record {
	q := s.search
	if s.trim {
		q = strings.TrimSpace(q)
	}
	return Search(s.rows, q, s.fields)
}

func (s *ListStore) View() Page {
	return Paginate(s.Filtered(), s.page, s.pageSize)
}

// Find returns the listed row with id.
func (s *ListStore) Find(id ID) (Record, bool) {
	if id == "" {
		return nil, false
	}
	for _, row := range s.rows {
		if IDOf(row[s.idField]) == id {
			return row, true
		}
	}
	return nil, false
}
