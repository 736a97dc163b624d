// Package leadcsv loads leads from CSV exports.
package leadcsv

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadmail/internal/model"
)

// Header aliases, matched case-insensitively.
var (
	nameHeaders    = []string{"name", "full_name", "full name", "contact name"}
	companyHeaders = []string{"company", "company_name", "company name", "account", "organization"}
	titleHeaders   = []string{"title", "job_title", "job title"}
	emailHeaders   = []string{"email", "email_address", "email address", "work email"}
)

// Inserter persists parsed leads.
type Inserter interface {
	InsertLeads(ctx context.Context, leads []model.Lead) (int64, error)
}

// Stats describes what a parse kept and dropped.
type Stats struct {
	Rows       int `json:"rows"`
	Leads      int `json:"leads"`
	Incomplete int `json:"incomplete"`
	Duplicates int `json:"duplicates"`
}

// MapRow pairs each lower-cased header with the value in row. Missing
// trailing values become empty strings.
func MapRow(headers, row []string) map[string]string {
	out := make(map[string]string, len(headers))
	for i, h := range headers {
		key := strings.ToLower(strings.TrimSpace(h))
		if i < len(row) {
			out[key] = strings.TrimSpace(row[i])
		} else {
			out[key] = ""
		}
	}
	return out
}

func first(m map[string]string, keys []string) string {
	for _, k := range keys {
		if v := m[k]; v != "" {
			return v
		}
	}
	return ""
}

// Parse reads leads from r. Rows missing a name or company are dropped, as
// are repeats of the same name, company and email. An empty email becomes
// the sentinel.
func Parse(r io.Reader) ([]model.Lead, Stats, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, Stats{}, nil
	}
	if err != nil {
		return nil, Stats{}, eris.Wrap(err, "leadcsv: read header")
	}
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	}

	var (
		stats Stats
		leads []model.Lead
		seen  = make(map[string]struct{})
	)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stats, eris.Wrapf(err, "leadcsv: read row %d", stats.Rows+2)
		}
		stats.Rows++

		m := MapRow(headers, row)
		l := model.Lead{
			Name:    first(m, nameHeaders),
			Company: first(m, companyHeaders),
			Title:   first(m, titleHeaders),
			Email:   strings.ToLower(first(m, emailHeaders)),
		}
		if l.Name == "" || l.Company == "" {
			stats.Incomplete++
			continue
		}
		if l.Email == "" {
			l.Email = model.SentinelEmail
		}

		key := strings.ToLower(l.Name) + "\x00" + strings.ToLower(l.Company) + "\x00" + l.Email
		if _, dup := seen[key]; dup {
			stats.Duplicates++
			continue
		}
		seen[key] = struct{}{}
		leads = append(leads, l)
	}
	stats.Leads = len(leads)
	return leads, stats, nil
}

// ImportFile parses the CSV at path and inserts the leads.
func ImportFile(ctx context.Context, st Inserter, path string) (int64, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, Stats{}, eris.Wrapf(err, "leadcsv: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	leads, stats, err := Parse(f)
	if err != nil {
		return 0, stats, err
	}
	zap.L().Info("parsed lead csv",
		zap.String("csv", path),
		zap.Int("rows", stats.Rows),
		zap.Int("incomplete", stats.Incomplete),
		zap.Int("duplicates", stats.Duplicates),
	)

	n, err := st.InsertLeads(ctx, leads)
	if err != nil {
		return n, stats, eris.Wrap(err, "leadcsv: insert leads")
	}
	return n, stats, nil
}
