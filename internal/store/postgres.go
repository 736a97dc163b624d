package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadmail/internal/db"
	"github.com/sells-group/leadmail/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. The caller owns its lifecycle.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id                      TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name                    TEXT NOT NULL,
	company                 TEXT NOT NULL DEFAULT '',
	title                   TEXT NOT NULL DEFAULT '',
	email                   TEXT,
	email_source            TEXT NOT NULL DEFAULT '',
	email_confidence        DOUBLE PRECISION,
	email_pattern           TEXT NOT NULL DEFAULT '',
	email_verified          BOOLEAN,
	verification_method     TEXT NOT NULL DEFAULT '',
	verification_reason     TEXT NOT NULL DEFAULT '',
	verification_confidence DOUBLE PRECISION,
	verified_at             TIMESTAMPTZ,
	created_at              TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at              TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS company_patterns (
	company            TEXT PRIMARY KEY,
	normalized_company TEXT NOT NULL,
	template_id        TEXT NOT NULL,
	domain             TEXT NOT NULL,
	confidence         DOUBLE PRECISION NOT NULL,
	frequency          INTEGER NOT NULL,
	source             TEXT NOT NULL,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS email_audits (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	lead_id         TEXT NOT NULL,
	company         TEXT NOT NULL,
	target_name     TEXT NOT NULL,
	candidate_email TEXT NOT NULL,
	template_id     TEXT NOT NULL,
	domain          TEXT NOT NULL,
	confidence      DOUBLE PRECISION NOT NULL,
	source          TEXT NOT NULL DEFAULT '',
	peer_evidence   JSONB,
	status          TEXT NOT NULL,
	reason          TEXT NOT NULL DEFAULT '',
	error_message   TEXT NOT NULL DEFAULT '',
	error_type      TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	processed_at    TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS verification_logs (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	lead_id     TEXT NOT NULL,
	email       TEXT NOT NULL,
	company     TEXT NOT NULL DEFAULT '',
	outcome     TEXT NOT NULL,
	reason      TEXT NOT NULL DEFAULT '',
	method      TEXT NOT NULL,
	confidence  DOUBLE PRECISION NOT NULL,
	verified_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_leads_company ON leads(LOWER(TRIM(company)));
CREATE INDEX IF NOT EXISTS idx_leads_email ON leads(LOWER(email));
CREATE INDEX IF NOT EXISTS idx_company_patterns_normalized ON company_patterns(normalized_company);
CREATE INDEX IF NOT EXISTS idx_email_audits_status ON email_audits(status);
CREATE INDEX IF NOT EXISTS idx_email_audits_lead_id ON email_audits(lead_id);
CREATE INDEX IF NOT EXISTS idx_verification_logs_email ON verification_logs(LOWER(email));
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// --- Leads ---

var leadCopyColumns = []string{"id", "name", "company", "title", "email", "email_source", "created_at", "updated_at"}

// InsertLeads bulk-loads leads with COPY.
func (s *PostgresStore) InsertLeads(ctx context.Context, leads []model.Lead) (int64, error) {
	if len(leads) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	rows := make([][]any, 0, len(leads))
	for i := range leads {
		l := &leads[i]
		prepareLead(l, now)
		rows = append(rows, []any{l.ID, l.Name, l.Company, l.Title, l.Email, l.EmailSource, l.CreatedAt, l.UpdatedAt})
	}
	n, err := db.CopyFrom(ctx, s.pool, "leads", leadCopyColumns, rows, db.DefaultCopyBatch)
	if err != nil {
		return n, eris.Wrap(err, "postgres: copy leads")
	}
	return n, nil
}

func (s *PostgresStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	l, err := scanLeadPG(s.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get lead %s", id)
	}
	return l, nil
}

func (s *PostgresStore) GetLeadByEmail(ctx context.Context, email string) (*model.Lead, error) {
	l, err := scanLeadPG(s.pool.QueryRow(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE LOWER(email) = LOWER($1) ORDER BY updated_at DESC LIMIT 1`,
		strings.TrimSpace(email),
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get lead by email")
	}
	return l, nil
}

func (s *PostgresStore) FindLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	name := strings.TrimSpace(filter.Name)
	company := strings.TrimSpace(filter.Company)

	query := `SELECT ` + leadColumns + ` FROM leads WHERE `
	switch filter.Match {
	case MatchExact:
		query += `TRIM(name) = $1 AND TRIM(company) = $2`
	case MatchFold:
		query += `LOWER(TRIM(name)) = LOWER($1) AND LOWER(TRIM(company)) = LOWER($2)`
	case MatchContains:
		query += `LOWER(name) LIKE $1 AND LOWER(TRIM(company)) = LOWER($2)`
		name = "%" + escapeLike(strings.ToLower(name)) + "%"
	default:
		return nil, eris.Errorf("postgres: unknown match mode %d", filter.Match)
	}
	query += ` ORDER BY created_at LIMIT $3`

	return s.queryLeads(ctx, "find leads", query, name, company, limitOr(filter.Limit, 10))
}

func (s *PostgresStore) ListLeadsNeedingEmail(ctx context.Context, limit int) ([]model.Lead, error) {
	return s.queryLeads(ctx, "list leads needing email",
		`SELECT `+leadColumns+` FROM leads
		 WHERE `+sentinelEmailSQL+`
		   AND NOT EXISTS (
		       SELECT 1 FROM email_audits a
		       WHERE a.lead_id = leads.id AND a.status IN ('pending_review', 'approved')
		   )
		 ORDER BY created_at LIMIT $1`,
		limitOr(limit, 100),
	)
}

func (s *PostgresStore) ListPeerLeads(ctx context.Context, company string, limit int) ([]model.Lead, error) {
	return s.queryLeads(ctx, "list peer leads",
		`SELECT `+leadColumns+` FROM leads
		 WHERE LOWER(TRIM(company)) = LOWER($1)
		   AND NOT `+unknownEmailSQL+`
		   AND email_source != $2
		 ORDER BY updated_at DESC LIMIT $3`,
		strings.TrimSpace(company), model.EmailSourcePatternInference, limitOr(limit, 10),
	)
}

func (s *PostgresStore) ListPeerCompanies(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT TRIM(company) FROM leads
		 WHERE TRIM(company) != ''
		   AND NOT `+unknownEmailSQL+`
		   AND email_source != $1
		 ORDER BY 1`,
		model.EmailSourcePatternInference,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list peer companies")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, eris.Wrap(err, "postgres: scan peer company")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list peer companies iterate")
}

func (s *PostgresStore) SetLeadEmail(ctx context.Context, leadID string, u EmailUpdate) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET email = $1, email_source = $2, email_confidence = $3, email_pattern = $4,
			email_verified = NULL, verification_method = '', verification_reason = '',
			verification_confidence = NULL, verified_at = NULL, updated_at = $5
		 WHERE id = $6 AND `+unknownEmailSQL,
		u.Email, u.Source, u.Confidence, u.Pattern, time.Now().UTC(), leadID,
	)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: set lead email %s", leadID)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) ListLeadsForVerification(ctx context.Context, invalidBefore time.Time, limit int) ([]model.Lead, error) {
	return s.queryLeads(ctx, "list leads for verification",
		`SELECT `+leadColumns+` FROM leads
		 WHERE NOT `+unknownEmailSQL+`
		   AND (email_verified IS NULL OR (email_verified = false AND verified_at < $1))
		 ORDER BY verified_at NULLS FIRST, created_at
		 LIMIT $2`,
		invalidBefore.UTC(), limitOr(limit, 100),
	)
}

func (s *PostgresStore) SetLeadVerification(ctx context.Context, leadID string, r model.VerificationResult) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET email_verified = $1, verification_method = $2, verification_reason = $3,
			verification_confidence = $4, verified_at = $5, updated_at = $6
		 WHERE id = $7`,
		r.Outcome.Verified(), r.Method, r.Reason, r.Confidence, r.VerifiedAt.UTC(), time.Now().UTC(), leadID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set lead verification %s", leadID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("lead not found: %s", leadID)
	}
	return nil
}

func (s *PostgresStore) queryLeads(ctx context.Context, op, query string, args ...any) ([]model.Lead, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: %s", op)
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		l, err := scanLeadPG(rows)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: %s scan", op)
		}
		leads = append(leads, *l)
	}
	return leads, eris.Wrapf(rows.Err(), "postgres: %s iterate", op)
}

// --- Company patterns ---

func (s *PostgresStore) GetPattern(ctx context.Context, company string) (*model.CompanyPattern, error) {
	p, err := scanPattern(s.pool.QueryRow(ctx,
		`SELECT `+patternColumns+` FROM company_patterns WHERE company = $1`, company))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get pattern")
	}
	return p, nil
}

func (s *PostgresStore) GetPatternByNormalized(ctx context.Context, normalized string) (*model.CompanyPattern, error) {
	p, err := scanPattern(s.pool.QueryRow(ctx,
		`SELECT `+patternColumns+` FROM company_patterns WHERE normalized_company = $1
		 ORDER BY frequency DESC, confidence DESC, updated_at DESC LIMIT 1`, normalized))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get pattern by normalized")
	}
	return p, nil
}

const upsertPatternSQL = `INSERT INTO company_patterns (` + patternColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	ON CONFLICT (company) DO UPDATE SET
		normalized_company = EXCLUDED.normalized_company,
		template_id = EXCLUDED.template_id,
		domain = EXCLUDED.domain,
		confidence = EXCLUDED.confidence,
		frequency = EXCLUDED.frequency,
		source = EXCLUDED.source,
		updated_at = EXCLUDED.updated_at`

func (s *PostgresStore) UpsertPattern(ctx context.Context, p *model.CompanyPattern) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		upsertPatternSQL+` WHERE company_patterns.frequency <= EXCLUDED.frequency`,
		p.Company, p.NormalizedCompany, p.TemplateID, p.Domain, p.Confidence, p.Frequency, p.Source, time.Now().UTC(),
	)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: upsert pattern %s", p.Company)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) ReplacePattern(ctx context.Context, p *model.CompanyPattern) error {
	_, err := s.pool.Exec(ctx, upsertPatternSQL,
		p.Company, p.NormalizedCompany, p.TemplateID, p.Domain, p.Confidence, p.Frequency, p.Source, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: replace pattern %s", p.Company)
}

func (s *PostgresStore) ListPatterns(ctx context.Context) ([]model.CompanyPattern, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+patternColumns+` FROM company_patterns ORDER BY company`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list patterns")
	}
	defer rows.Close()

	var out []model.CompanyPattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan pattern")
		}
		out = append(out, *p)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list patterns iterate")
}

func (s *PostgresStore) DeletePattern(ctx context.Context, company string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM company_patterns WHERE company = $1`, company)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: delete pattern %s", company)
	}
	return tag.RowsAffected() > 0, nil
}

// --- Audits ---

func (s *PostgresStore) CreateAudit(ctx context.Context, a *model.Audit) error {
	prepareAudit(a)
	var evidence []byte
	if len(a.PeerEvidence) > 0 {
		b, err := json.Marshal(a.PeerEvidence)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal peer evidence")
		}
		evidence = b
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO email_audits (`+auditColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		a.ID, a.LeadID, a.Company, a.TargetName, a.CandidateEmail, a.TemplateID, a.Domain,
		a.Confidence, a.Source, evidence, string(a.Status), a.Reason, a.ErrorMessage, a.ErrorType,
		a.CreatedAt, a.ProcessedAt,
	)
	return eris.Wrapf(err, "postgres: insert audit for lead %s", a.LeadID)
}

func (s *PostgresStore) GetAudit(ctx context.Context, id string) (*model.Audit, error) {
	a, err := scanAuditPG(s.pool.QueryRow(ctx, `SELECT `+auditColumns+` FROM email_audits WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get audit %s", id)
	}
	return a, nil
}

func (s *PostgresStore) ListAudits(ctx context.Context, filter AuditFilter) ([]model.Audit, error) {
	query := `SELECT ` + auditColumns + ` FROM email_audits WHERE 1=1`
	args := []any{}
	argIdx := 1

	if filter.Company != "" {
		query += fmt.Sprintf(` AND LOWER(TRIM(company)) = LOWER($%d)`, argIdx)
		args = append(args, strings.TrimSpace(filter.Company))
		argIdx++
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}
		query += fmt.Sprintf(` AND status = ANY($%d)`, argIdx)
		args = append(args, statuses)
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, argIdx)
	args = append(args, limitOr(filter.Limit, 1000))

	return s.queryAudits(ctx, "list audits", query, args...)
}

func (s *PostgresStore) ListAuditsForApply(ctx context.Context, pendingMinConfidence float64, limit int) ([]model.Audit, error) {
	return s.queryAudits(ctx, "list audits for apply",
		`SELECT `+auditColumns+` FROM email_audits
		 WHERE status = 'approved' OR (status = 'pending_review' AND confidence >= $1)
		 ORDER BY confidence DESC, created_at ASC LIMIT $2`,
		pendingMinConfidence, limitOr(limit, 100),
	)
}

func (s *PostgresStore) TransitionAudit(ctx context.Context, id string, t model.AuditTransition) error {
	if err := validateTransition(id, t); err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE email_audits SET status = $1, reason = $2, error_message = $3, error_type = $4, processed_at = $5
		 WHERE id = $6 AND status = $7`,
		string(t.To), t.Reason, t.ErrorMessage, t.ErrorType, time.Now().UTC(), id, string(t.From),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: transition audit %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrAuditConflict, "audit %s not in status %s", id, t.From)
	}
	return nil
}

func (s *PostgresStore) DeleteAuditsBefore(ctx context.Context, status model.AuditStatus, before time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM email_audits WHERE status = $1 AND COALESCE(processed_at, created_at) < $2`,
		string(status), before.UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete audits")
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) queryAudits(ctx context.Context, op, query string, args ...any) ([]model.Audit, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: %s", op)
	}
	defer rows.Close()

	var out []model.Audit
	for rows.Next() {
		a, err := scanAuditPG(rows)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: %s scan", op)
		}
		out = append(out, *a)
	}
	return out, eris.Wrapf(rows.Err(), "postgres: %s iterate", op)
}

// --- Verification logs ---

func (s *PostgresStore) InsertVerificationLog(ctx context.Context, l *model.VerificationLog) error {
	prepareVerificationLog(l)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO verification_logs (id, lead_id, email, company, outcome, reason, method, confidence, verified_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		l.ID, l.LeadID, l.Email, l.Company, string(l.Outcome), l.Reason, l.Method, l.Confidence, l.VerifiedAt,
	)
	return eris.Wrapf(err, "postgres: insert verification log for %s", l.Email)
}

func (s *PostgresStore) ListVerificationLogs(ctx context.Context, email string, limit int) ([]model.VerificationLog, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, lead_id, email, company, outcome, reason, method, confidence, verified_at
		 FROM verification_logs WHERE LOWER(email) = LOWER($1) ORDER BY verified_at DESC LIMIT $2`,
		strings.TrimSpace(email), limitOr(limit, 20),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list verification logs")
	}
	defer rows.Close()

	var out []model.VerificationLog
	for rows.Next() {
		var l model.VerificationLog
		var outcome string
		if err := rows.Scan(&l.ID, &l.LeadID, &l.Email, &l.Company, &outcome, &l.Reason, &l.Method, &l.Confidence, &l.VerifiedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan verification log")
		}
		l.Outcome = model.VerificationOutcome(outcome)
		out = append(out, l)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list verification logs iterate")
}

func scanLeadPG(row scannable) (*model.Lead, error) {
	var l model.Lead
	var email *string
	err := row.Scan(&l.ID, &l.Name, &l.Company, &l.Title, &email, &l.EmailSource, &l.EmailConfidence,
		&l.EmailPattern, &l.EmailVerified, &l.VerificationMethod, &l.VerificationReason,
		&l.VerificationConfidence, &l.VerifiedAt, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if email != nil {
		l.Email = *email
	}
	return &l, nil
}

func scanAuditPG(row scannable) (*model.Audit, error) {
	var a model.Audit
	var status string
	var evidence []byte
	err := row.Scan(&a.ID, &a.LeadID, &a.Company, &a.TargetName, &a.CandidateEmail, &a.TemplateID,
		&a.Domain, &a.Confidence, &a.Source, &evidence, &status, &a.Reason, &a.ErrorMessage,
		&a.ErrorType, &a.CreatedAt, &a.ProcessedAt)
	if err != nil {
		return nil, err
	}
	a.Status = model.AuditStatus(status)
	if len(evidence) > 0 {
		if err := json.Unmarshal(evidence, &a.PeerEvidence); err != nil {
			return nil, eris.Wrap(err, "unmarshal peer evidence")
		}
	}
	return &a, nil
}
