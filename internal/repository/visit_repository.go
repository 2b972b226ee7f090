package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SergeiKhy/ip-profiler/internal/models"
	"github.com/jackc/pgx/v5"
)

var (
	ErrVisitNotFound = errors.New("visitor log not found")
)

type VisitRepository interface {
	Create(ctx context.Context, visit *models.VisitorLog) error
	SetIdentity(ctx context.Context, deviceToken, linkID, email, phone, platformUser string) (*models.VisitorLog, error)
	List(ctx context.Context) ([]*models.VisitorLog, error)
	Search(ctx context.Context, term string) ([]*models.VisitorLog, error)
}

type visitRepository struct {
	db *PostgresDB
}

func NewVisitRepository(db *PostgresDB) VisitRepository {
	return &visitRepository{db: db}
}

const visitColumns = `
	id, device_token, link_id,
	ip, isp, org, asn, mobile, proxy, hosting,
	city, region, country, lat, lon, timezone,
	browser, os, cpu_arch, device_type, connection_type,
	platform, visitor_email, visitor_phone, platform_user, created_at
`

// Выборки для оператора несут резолвнутую ссылку; висячий link_id
// оставляет ассоциацию пустой (LEFT JOIN).
const visitJoinColumns = `
	v.id, v.device_token, v.link_id,
	v.ip, v.isp, v.org, v.asn, v.mobile, v.proxy, v.hosting,
	v.city, v.region, v.country, v.lat, v.lon, v.timezone,
	v.browser, v.os, v.cpu_arch, v.device_type, v.connection_type,
	v.platform, v.visitor_email, v.visitor_phone, v.platform_user, v.created_at,
	l.id, l.owner_email, l.created_at
`

func (r *visitRepository) Create(ctx context.Context, visit *models.VisitorLog) error {
	query := `
		INSERT INTO visitor_logs (
			id, device_token, link_id,
			ip, isp, org, asn, mobile, proxy, hosting,
			city, region, country, lat, lon, timezone,
			browser, os, cpu_arch, device_type, connection_type,
			platform, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
		RETURNING created_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		visit.ID,
		visit.DeviceToken,
		visit.LinkID,
		visit.IP,
		visit.ISP,
		visit.Org,
		visit.ASN,
		visit.Mobile,
		visit.Proxy,
		visit.Hosting,
		visit.City,
		visit.Region,
		visit.Country,
		visit.Lat,
		visit.Lon,
		visit.Timezone,
		visit.Browser,
		visit.OS,
		visit.CPUArch,
		visit.DeviceType,
		visit.ConnectionType,
		visit.Platform,
		visit.CreatedAt,
	).Scan(&visit.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create visitor log: %w", err)
	}

	return nil
}

// SetIdentity находит самую свежую запись для пары (device_token, link_id) и
// проставляет контакт одним UPDATE с подзапросом: поиск и запись не могут
// разъехаться между двумя конкурирующими раскрытиями, последний победил.
// Platform намеренно не входит в SET: метка канала вычисляется один раз при создании.
func (r *visitRepository) SetIdentity(ctx context.Context, deviceToken, linkID, email, phone, platformUser string) (*models.VisitorLog, error) {
	query := `
		UPDATE visitor_logs SET
			visitor_email = $3,
			visitor_phone = COALESCE(NULLIF($4, ''), visitor_phone),
			platform_user = COALESCE(NULLIF($5, ''), platform_user)
		WHERE id = (
			SELECT id FROM visitor_logs
			WHERE device_token = $1 AND link_id = $2
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		)
		RETURNING ` + visitColumns

	row := r.db.Pool.QueryRow(ctx, query, deviceToken, linkID, email, phone, platformUser)
	visit, err := scanVisit(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVisitNotFound
		}
		return nil, fmt.Errorf("failed to set visitor identity: %w", err)
	}

	return visit, nil
}

func (r *visitRepository) List(ctx context.Context) ([]*models.VisitorLog, error) {
	query := `
		SELECT ` + visitJoinColumns + `
		FROM visitor_logs v
		LEFT JOIN shared_links l ON l.id = v.link_id
		ORDER BY v.created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list visitor logs: %w", err)
	}
	defer rows.Close()

	return collectVisits(rows)
}

func (r *visitRepository) Search(ctx context.Context, term string) ([]*models.VisitorLog, error) {
	// OR-поиск по подстроке без учёта регистра
	query := `
		SELECT ` + visitJoinColumns + `
		FROM visitor_logs v
		LEFT JOIN shared_links l ON l.id = v.link_id
		WHERE v.ip ILIKE $1
			OR v.city ILIKE $1
			OR v.country ILIKE $1
			OR v.visitor_email ILIKE $1
			OR v.visitor_phone ILIKE $1
		ORDER BY v.created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, "%"+escapeLike(term)+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to search visitor logs: %w", err)
	}
	defer rows.Close()

	return collectVisits(rows)
}

func scanVisit(row pgx.Row) (*models.VisitorLog, error) {
	visit := &models.VisitorLog{}
	err := row.Scan(
		&visit.ID,
		&visit.DeviceToken,
		&visit.LinkID,
		&visit.IP,
		&visit.ISP,
		&visit.Org,
		&visit.ASN,
		&visit.Mobile,
		&visit.Proxy,
		&visit.Hosting,
		&visit.City,
		&visit.Region,
		&visit.Country,
		&visit.Lat,
		&visit.Lon,
		&visit.Timezone,
		&visit.Browser,
		&visit.OS,
		&visit.CPUArch,
		&visit.DeviceType,
		&visit.ConnectionType,
		&visit.Platform,
		&visit.VisitorEmail,
		&visit.VisitorPhone,
		&visit.PlatformUser,
		&visit.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return visit, nil
}

func scanVisitWithLink(row pgx.Row) (*models.VisitorLog, error) {
	visit := &models.VisitorLog{}
	var linkID, ownerEmail *string
	var linkCreatedAt *time.Time
	err := row.Scan(
		&visit.ID,
		&visit.DeviceToken,
		&visit.LinkID,
		&visit.IP,
		&visit.ISP,
		&visit.Org,
		&visit.ASN,
		&visit.Mobile,
		&visit.Proxy,
		&visit.Hosting,
		&visit.City,
		&visit.Region,
		&visit.Country,
		&visit.Lat,
		&visit.Lon,
		&visit.Timezone,
		&visit.Browser,
		&visit.OS,
		&visit.CPUArch,
		&visit.DeviceType,
		&visit.ConnectionType,
		&visit.Platform,
		&visit.VisitorEmail,
		&visit.VisitorPhone,
		&visit.PlatformUser,
		&visit.CreatedAt,
		&linkID,
		&ownerEmail,
		&linkCreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if linkID != nil {
		visit.Link = &models.SharedLink{
			ID:         *linkID,
			OwnerEmail: *ownerEmail,
			CreatedAt:  *linkCreatedAt,
		}
	}

	return visit, nil
}

func collectVisits(rows pgx.Rows) ([]*models.VisitorLog, error) {
	visits := []*models.VisitorLog{}
	for rows.Next() {
		visit, err := scanVisitWithLink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan visitor log: %w", err)
		}
		visits = append(visits, visit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating visitor logs: %w", err)
	}

	return visits, nil
}

// escapeLike экранирует спецсимволы LIKE, чтобы "%" в запросе не расширял поиск
func escapeLike(term string) string {
	out := make([]byte, 0, len(term))
	for i := 0; i < len(term); i++ {
		switch term[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, term[i])
	}
	return string(out)
}
