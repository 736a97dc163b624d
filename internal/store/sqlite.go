package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/leadmail/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id                      TEXT PRIMARY KEY,
	name                    TEXT NOT NULL,
	company                 TEXT NOT NULL DEFAULT '',
	title                   TEXT NOT NULL DEFAULT '',
	email                   TEXT,
	email_source            TEXT NOT NULL DEFAULT '',
	email_confidence        REAL,
	email_pattern           TEXT NOT NULL DEFAULT '',
	email_verified          INTEGER,
	verification_method     TEXT NOT NULL DEFAULT '',
	verification_reason     TEXT NOT NULL DEFAULT '',
	verification_confidence REAL,
	verified_at             DATETIME,
	created_at              DATETIME NOT NULL,
	updated_at              DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS company_patterns (
	company            TEXT PRIMARY KEY,
	normalized_company TEXT NOT NULL,
	template_id        TEXT NOT NULL,
	domain             TEXT NOT NULL,
	confidence         REAL NOT NULL,
	frequency          INTEGER NOT NULL,
	source             TEXT NOT NULL,
	created_at         DATETIME NOT NULL,
	updated_at         DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS email_audits (
	id              TEXT PRIMARY KEY,
	lead_id         TEXT NOT NULL,
	company         TEXT NOT NULL,
	target_name     TEXT NOT NULL,
	candidate_email TEXT NOT NULL,
	template_id     TEXT NOT NULL,
	domain          TEXT NOT NULL,
	confidence      REAL NOT NULL,
	source          TEXT NOT NULL DEFAULT '',
	peer_evidence   TEXT,
	status          TEXT NOT NULL,
	reason          TEXT NOT NULL DEFAULT '',
	error_message   TEXT NOT NULL DEFAULT '',
	error_type      TEXT NOT NULL DEFAULT '',
	created_at      DATETIME NOT NULL,
	processed_at    DATETIME
);

CREATE TABLE IF NOT EXISTS verification_logs (
	id          TEXT PRIMARY KEY,
	lead_id     TEXT NOT NULL,
	email       TEXT NOT NULL,
	company     TEXT NOT NULL DEFAULT '',
	outcome     TEXT NOT NULL,
	reason      TEXT NOT NULL DEFAULT '',
	method      TEXT NOT NULL,
	confidence  REAL NOT NULL,
	verified_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_leads_company ON leads(company COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS idx_leads_email ON leads(email);
CREATE INDEX IF NOT EXISTS idx_company_patterns_normalized ON company_patterns(normalized_company);
CREATE INDEX IF NOT EXISTS idx_email_audits_status ON email_audits(status);
CREATE INDEX IF NOT EXISTS idx_email_audits_lead_id ON email_audits(lead_id);
CREATE INDEX IF NOT EXISTS idx_email_audits_company ON email_audits(company COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS idx_verification_logs_email ON verification_logs(email);
`

const leadColumns = `id, name, company, title, email, email_source, email_confidence, email_pattern,
	email_verified, verification_method, verification_reason, verification_confidence,
	verified_at, created_at, updated_at`

const patternColumns = `company, normalized_company, template_id, domain, confidence, frequency,
	source, created_at, updated_at`

const auditColumns = `id, lead_id, company, target_name, candidate_email, template_id, domain,
	confidence, source, peer_evidence, status, reason, error_message, error_type,
	created_at, processed_at`

// unknownEmailSQL matches rows whose email is empty or the sentinel.
const unknownEmailSQL = `(email IS NULL OR TRIM(email) = '' OR LOWER(TRIM(email)) = '` + model.SentinelEmail + `')`

// sentinelEmailSQL matches enrichment candidates: rows holding the sentinel.
const sentinelEmailSQL = `LOWER(TRIM(email)) = '` + model.SentinelEmail + `'`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Leads ---

func (s *SQLiteStore) InsertLeads(ctx context.Context, leads []model.Lead) (int64, error) {
	if len(leads) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin insert leads")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO leads (id, name, company, title, email, email_source, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert leads")
	}
	defer stmt.Close() //nolint:errcheck

	now := time.Now().UTC()
	var n int64
	for i := range leads {
		l := &leads[i]
		prepareLead(l, now)
		if _, err := stmt.ExecContext(ctx, l.ID, l.Name, l.Company, l.Title, l.Email, l.EmailSource, l.CreatedAt, l.UpdatedAt); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert lead %s", l.ID)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit insert leads")
	}
	return n, nil
}

func (s *SQLiteStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = ?`, id)
	l, err := scanLeadSQL(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return l, eris.Wrapf(err, "sqlite: get lead %s", id)
}

func (s *SQLiteStore) GetLeadByEmail(ctx context.Context, email string) (*model.Lead, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE LOWER(email) = LOWER(?) ORDER BY updated_at DESC LIMIT 1`,
		strings.TrimSpace(email),
	)
	l, err := scanLeadSQL(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return l, eris.Wrap(err, "sqlite: get lead by email")
}

func (s *SQLiteStore) FindLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	name := strings.TrimSpace(filter.Name)
	company := strings.TrimSpace(filter.Company)

	query := `SELECT ` + leadColumns + ` FROM leads WHERE `
	var args []any
	switch filter.Match {
	case MatchExact:
		query += `TRIM(name) = ? AND TRIM(company) = ?`
		args = append(args, name, company)
	case MatchFold:
		query += `LOWER(TRIM(name)) = LOWER(?) AND LOWER(TRIM(company)) = LOWER(?)`
		args = append(args, name, company)
	case MatchContains:
		query += `LOWER(name) LIKE ? ESCAPE '\' AND LOWER(TRIM(company)) = LOWER(?)`
		args = append(args, "%"+escapeLike(strings.ToLower(name))+"%", company)
	default:
		return nil, eris.Errorf("sqlite: unknown match mode %d", filter.Match)
	}
	query += ` ORDER BY created_at LIMIT ?`
	args = append(args, limitOr(filter.Limit, 10))

	return s.queryLeads(ctx, "find leads", query, args...)
}

func (s *SQLiteStore) ListLeadsNeedingEmail(ctx context.Context, limit int) ([]model.Lead, error) {
	return s.queryLeads(ctx, "list leads needing email",
		`SELECT `+leadColumns+` FROM leads
		 WHERE `+sentinelEmailSQL+`
		   AND NOT EXISTS (
		       SELECT 1 FROM email_audits a
		       WHERE a.lead_id = leads.id AND a.status IN ('pending_review', 'approved')
		   )
		 ORDER BY created_at LIMIT ?`,
		limitOr(limit, 100),
	)
}

func (s *SQLiteStore) ListPeerLeads(ctx context.Context, company string, limit int) ([]model.Lead, error) {
	return s.queryLeads(ctx, "list peer leads",
		`SELECT `+leadColumns+` FROM leads
		 WHERE LOWER(TRIM(company)) = LOWER(?)
		   AND NOT `+unknownEmailSQL+`
		   AND email_source != ?
		 ORDER BY updated_at DESC LIMIT ?`,
		strings.TrimSpace(company), model.EmailSourcePatternInference, limitOr(limit, 10),
	)
}

func (s *SQLiteStore) ListPeerCompanies(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT TRIM(company) FROM leads
		 WHERE TRIM(company) != ''
		   AND NOT `+unknownEmailSQL+`
		   AND email_source != ?
		 ORDER BY 1`,
		model.EmailSourcePatternInference,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list peer companies")
	}
	defer rows.Close() //nolint:errcheck

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan peer company")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list peer companies iterate")
}

func (s *SQLiteStore) SetLeadEmail(ctx context.Context, leadID string, u EmailUpdate) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET email = ?, email_source = ?, email_confidence = ?, email_pattern = ?,
			email_verified = NULL, verification_method = '', verification_reason = '',
			verification_confidence = NULL, verified_at = NULL, updated_at = ?
		 WHERE id = ? AND `+unknownEmailSQL,
		u.Email, u.Source, u.Confidence, u.Pattern, time.Now().UTC(), leadID,
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: set lead email %s", leadID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: rows affected")
	}
	return n > 0, nil
}

func (s *SQLiteStore) ListLeadsForVerification(ctx context.Context, invalidBefore time.Time, limit int) ([]model.Lead, error) {
	return s.queryLeads(ctx, "list leads for verification",
		`SELECT `+leadColumns+` FROM leads
		 WHERE NOT `+unknownEmailSQL+`
		   AND (email_verified IS NULL OR (email_verified = 0 AND verified_at < ?))
		 ORDER BY verified_at IS NOT NULL, verified_at, created_at
		 LIMIT ?`,
		invalidBefore.UTC(), limitOr(limit, 100),
	)
}

func (s *SQLiteStore) SetLeadVerification(ctx context.Context, leadID string, r model.VerificationResult) error {
	var verified any
	if v := r.Outcome.Verified(); v != nil {
		verified = *v
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET email_verified = ?, verification_method = ?, verification_reason = ?,
			verification_confidence = ?, verified_at = ?, updated_at = ?
		 WHERE id = ?`,
		verified, r.Method, r.Reason, r.Confidence, r.VerifiedAt.UTC(), time.Now().UTC(), leadID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set lead verification %s", leadID)
	}
	return checkRowsAffected(res, "lead", leadID)
}

func (s *SQLiteStore) queryLeads(ctx context.Context, op, query string, args ...any) ([]model.Lead, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: %s", op)
	}
	defer rows.Close() //nolint:errcheck

	var leads []model.Lead
	for rows.Next() {
		l, err := scanLeadSQL(rows)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: %s scan", op)
		}
		leads = append(leads, *l)
	}
	return leads, eris.Wrapf(rows.Err(), "sqlite: %s iterate", op)
}

// --- Company patterns ---

func (s *SQLiteStore) GetPattern(ctx context.Context, company string) (*model.CompanyPattern, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+patternColumns+` FROM company_patterns WHERE company = ?`, company)
	p, err := scanPattern(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, eris.Wrap(err, "sqlite: get pattern")
}

func (s *SQLiteStore) GetPatternByNormalized(ctx context.Context, normalized string) (*model.CompanyPattern, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+patternColumns+` FROM company_patterns WHERE normalized_company = ?
		 ORDER BY frequency DESC, confidence DESC, updated_at DESC LIMIT 1`, normalized)
	p, err := scanPattern(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, eris.Wrap(err, "sqlite: get pattern by normalized")
}

func (s *SQLiteStore) UpsertPattern(ctx context.Context, p *model.CompanyPattern) (bool, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO company_patterns (`+patternColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(company) DO UPDATE SET
			normalized_company = excluded.normalized_company,
			template_id = excluded.template_id,
			domain = excluded.domain,
			confidence = excluded.confidence,
			frequency = excluded.frequency,
			source = excluded.source,
			updated_at = excluded.updated_at
		 WHERE company_patterns.frequency <= excluded.frequency`,
		p.Company, p.NormalizedCompany, p.TemplateID, p.Domain, p.Confidence, p.Frequency, p.Source, now, now,
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: upsert pattern %s", p.Company)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: rows affected")
	}
	return n > 0, nil
}

func (s *SQLiteStore) ReplacePattern(ctx context.Context, p *model.CompanyPattern) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO company_patterns (`+patternColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(company) DO UPDATE SET
			normalized_company = excluded.normalized_company,
			template_id = excluded.template_id,
			domain = excluded.domain,
			confidence = excluded.confidence,
			frequency = excluded.frequency,
			source = excluded.source,
			updated_at = excluded.updated_at`,
		p.Company, p.NormalizedCompany, p.TemplateID, p.Domain, p.Confidence, p.Frequency, p.Source, now, now,
	)
	return eris.Wrapf(err, "sqlite: replace pattern %s", p.Company)
}

func (s *SQLiteStore) ListPatterns(ctx context.Context) ([]model.CompanyPattern, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+patternColumns+` FROM company_patterns ORDER BY company`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list patterns")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.CompanyPattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan pattern")
		}
		out = append(out, *p)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list patterns iterate")
}

func (s *SQLiteStore) DeletePattern(ctx context.Context, company string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM company_patterns WHERE company = ?`, company)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: delete pattern %s", company)
	}
	n, err := res.RowsAffected()
	return n > 0, eris.Wrap(err, "sqlite: rows affected")
}

// --- Audits ---

func (s *SQLiteStore) CreateAudit(ctx context.Context, a *model.Audit) error {
	prepareAudit(a)
	evidence, err := marshalEvidence(a.PeerEvidence)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO email_audits (`+auditColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.LeadID, a.Company, a.TargetName, a.CandidateEmail, a.TemplateID, a.Domain,
		a.Confidence, a.Source, evidence, string(a.Status), a.Reason, a.ErrorMessage, a.ErrorType,
		a.CreatedAt, a.ProcessedAt,
	)
	return eris.Wrapf(err, "sqlite: insert audit for lead %s", a.LeadID)
}

func (s *SQLiteStore) GetAudit(ctx context.Context, id string) (*model.Audit, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+auditColumns+` FROM email_audits WHERE id = ?`, id)
	a, err := scanAuditSQL(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, eris.Wrapf(err, "sqlite: get audit %s", id)
}

func (s *SQLiteStore) ListAudits(ctx context.Context, filter AuditFilter) ([]model.Audit, error) {
	query := `SELECT ` + auditColumns + ` FROM email_audits WHERE 1=1`
	var args []any
	if filter.Company != "" {
		query += ` AND LOWER(TRIM(company)) = LOWER(?)`
		args = append(args, strings.TrimSpace(filter.Company))
	}
	if len(filter.Statuses) > 0 {
		query += ` AND status IN (` + placeholders(len(filter.Statuses)) + `)`
		for _, st := range filter.Statuses {
			args = append(args, string(st))
		}
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limitOr(filter.Limit, 1000))
	return s.queryAudits(ctx, "list audits", query, args...)
}

func (s *SQLiteStore) ListAuditsForApply(ctx context.Context, pendingMinConfidence float64, limit int) ([]model.Audit, error) {
	return s.queryAudits(ctx, "list audits for apply",
		`SELECT `+auditColumns+` FROM email_audits
		 WHERE status = 'approved' OR (status = 'pending_review' AND confidence >= ?)
		 ORDER BY confidence DESC, created_at ASC LIMIT ?`,
		pendingMinConfidence, limitOr(limit, 100),
	)
}

func (s *SQLiteStore) TransitionAudit(ctx context.Context, id string, t model.AuditTransition) error {
	if err := validateTransition(id, t); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE email_audits SET status = ?, reason = ?, error_message = ?, error_type = ?, processed_at = ?
		 WHERE id = ? AND status = ?`,
		string(t.To), t.Reason, t.ErrorMessage, t.ErrorType, time.Now().UTC(), id, string(t.From),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: transition audit %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrAuditConflict, "audit %s not in status %s", id, t.From)
	}
	return nil
}

func (s *SQLiteStore) DeleteAuditsBefore(ctx context.Context, status model.AuditStatus, before time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM email_audits WHERE status = ? AND COALESCE(processed_at, created_at) < ?`,
		string(status), before.UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete audits")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) queryAudits(ctx context.Context, op, query string, args ...any) ([]model.Audit, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: %s", op)
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Audit
	for rows.Next() {
		a, err := scanAuditSQL(rows)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: %s scan", op)
		}
		out = append(out, *a)
	}
	return out, eris.Wrapf(rows.Err(), "sqlite: %s iterate", op)
}

// --- Verification logs ---

func (s *SQLiteStore) InsertVerificationLog(ctx context.Context, l *model.VerificationLog) error {
	prepareVerificationLog(l)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO verification_logs (id, lead_id, email, company, outcome, reason, method, confidence, verified_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.LeadID, l.Email, l.Company, string(l.Outcome), l.Reason, l.Method, l.Confidence, l.VerifiedAt,
	)
	return eris.Wrapf(err, "sqlite: insert verification log for %s", l.Email)
}

func (s *SQLiteStore) ListVerificationLogs(ctx context.Context, email string, limit int) ([]model.VerificationLog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, lead_id, email, company, outcome, reason, method, confidence, verified_at
		 FROM verification_logs WHERE LOWER(email) = LOWER(?) ORDER BY verified_at DESC LIMIT ?`,
		strings.TrimSpace(email), limitOr(limit, 20),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list verification logs")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.VerificationLog
	for rows.Next() {
		var l model.VerificationLog
		if err := rows.Scan(&l.ID, &l.LeadID, &l.Email, &l.Company, &l.Outcome, &l.Reason, &l.Method, &l.Confidence, &l.VerifiedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan verification log")
		}
		out = append(out, l)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list verification logs iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanLeadSQL(row scannable) (*model.Lead, error) {
	var l model.Lead
	var email sql.NullString
	var emailConf, verConf sql.NullFloat64
	var verified sql.NullBool
	var verifiedAt sql.NullTime

	err := row.Scan(&l.ID, &l.Name, &l.Company, &l.Title, &email, &l.EmailSource, &emailConf,
		&l.EmailPattern, &verified, &l.VerificationMethod, &l.VerificationReason, &verConf,
		&verifiedAt, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	l.Email = email.String
	if emailConf.Valid {
		l.EmailConfidence = &emailConf.Float64
	}
	if verConf.Valid {
		l.VerificationConfidence = &verConf.Float64
	}
	if verified.Valid {
		l.EmailVerified = &verified.Bool
	}
	if verifiedAt.Valid {
		l.VerifiedAt = &verifiedAt.Time
	}
	return &l, nil
}

func scanPattern(row scannable) (*model.CompanyPattern, error) {
	var p model.CompanyPattern
	err := row.Scan(&p.Company, &p.NormalizedCompany, &p.TemplateID, &p.Domain, &p.Confidence,
		&p.Frequency, &p.Source, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanAuditSQL(row scannable) (*model.Audit, error) {
	var a model.Audit
	var evidence sql.NullString
	var processedAt sql.NullTime

	err := row.Scan(&a.ID, &a.LeadID, &a.Company, &a.TargetName, &a.CandidateEmail, &a.TemplateID,
		&a.Domain, &a.Confidence, &a.Source, &evidence, &a.Status, &a.Reason, &a.ErrorMessage,
		&a.ErrorType, &a.CreatedAt, &processedAt)
	if err != nil {
		return nil, err
	}
	if evidence.Valid && evidence.String != "" {
		if err := json.Unmarshal([]byte(evidence.String), &a.PeerEvidence); err != nil {
			return nil, eris.Wrap(err, "unmarshal peer evidence")
		}
	}
	if processedAt.Valid {
		a.ProcessedAt = &processedAt.Time
	}
	return &a, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
