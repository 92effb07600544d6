package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/mercaline/mercabot/internal/models"
)

//go:embed migrations.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	UseInMemory bool
}

type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(config DatabaseConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	storage := &PostgresStorage{db: db}

	if err := storage.initializeSchema(); err != nil {
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}

	return storage, nil
}

func (s *PostgresStorage) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}

	if _, err := s.db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}

	return nil
}

func (s *PostgresStorage) RegisterUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (identification, full_name, phone, email, active)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING created_at`

	err := s.db.QueryRowContext(ctx, query,
		user.Identification,
		user.FullName,
		user.Phone,
		user.Email,
	).Scan(&user.CreatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicate
		}
		return fmt.Errorf("error registering user: %w", err)
	}

	user.Active = true
	return nil
}

func (s *PostgresStorage) GetUser(ctx context.Context, identification string) (*models.User, error) {
	query := `
		SELECT identification, full_name, phone, email, active, created_at
		FROM users
		WHERE identification = $1 AND active`

	user := &models.User{}
	err := s.db.QueryRowContext(ctx, query, identification).Scan(
		&user.Identification,
		&user.FullName,
		&user.Phone,
		&user.Email,
		&user.Active,
		&user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying user: %w", err)
	}

	return user, nil
}

func (s *PostgresStorage) UpdateUser(ctx context.Context, identification string, changes UserChanges) (*models.User, error) {
	assignments := make([]string, 0, 3)
	args := make([]any, 0, 4)

	appendChange := func(column string, value *string) {
		if value == nil {
			return
		}
		args = append(args, *value)
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	appendChange("full_name", changes.FullName)
	appendChange("phone", changes.Phone)
	appendChange("email", changes.Email)

	if len(assignments) == 0 {
		return s.GetUser(ctx, identification)
	}

	args = append(args, identification)
	query := fmt.Sprintf(`
		UPDATE users
		SET %s
		WHERE identification = $%d AND active`,
		strings.Join(assignments, ", "), len(args))

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error updating user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("error getting rows affected: %w", err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	return s.GetUser(ctx, identification)
}

func (s *PostgresStorage) DeactivateUser(ctx context.Context, identification string) error {
	query := `UPDATE users SET active = FALSE WHERE identification = $1`

	if _, err := s.db.ExecContext(ctx, query, identification); err != nil {
		return fmt.Errorf("error deactivating user: %w", err)
	}
	return nil
}

func (s *PostgresStorage) ListUsers(ctx context.Context, activeOnly bool) ([]*models.User, error) {
	query := `
		SELECT identification, full_name, phone, email, active, created_at
		FROM users`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		err := rows.Scan(
			&user.Identification,
			&user.FullName,
			&user.Phone,
			&user.Email,
			&user.Active,
			&user.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning user: %w", err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

func (s *PostgresStorage) CountUsers(ctx context.Context, activeOnly bool) (int, error) {
	query := `SELECT COUNT(*) FROM users`
	if activeOnly {
		query += ` WHERE active`
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting users: %w", err)
	}
	return count, nil
}

func (s *PostgresStorage) LogConversation(ctx context.Context, rec *models.ConversationRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	identification := sql.NullString{String: rec.Identification, Valid: rec.Identification != ""}
	category := sql.NullString{String: rec.Category, Valid: rec.Category != ""}

	query := `
		INSERT INTO conversations (identification, message, reply, category)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err = tx.QueryRowContext(ctx, query, identification, rec.Message, rec.Reply, category).
		Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("error logging conversation: %w", err)
	}

	for _, keyword := range extractKeywords(rec.Message) {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO keyword_frequencies (keyword, frequency, updated_at)
			VALUES ($1, 1, NOW())
			ON CONFLICT (keyword)
			DO UPDATE SET frequency = keyword_frequencies.frequency + 1, updated_at = NOW()`,
			keyword)
		if err != nil {
			return fmt.Errorf("error updating keyword frequency: %w", err)
		}
	}

	return tx.Commit()
}

func (s *PostgresStorage) GetStatistics(ctx context.Context, days int) (*models.Statistics, error) {
	if days <= 0 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)

	stats := &models.Statistics{}

	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE active`).
		Scan(&stats.TotalUsers)
	if err != nil {
		return nil, fmt.Errorf("error counting users: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversations WHERE created_at >= $1`, since).
		Scan(&stats.TotalConversations)
	if err != nil {
		return nil, fmt.Errorf("error counting conversations: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT TO_CHAR(created_at, 'YYYY-MM-DD') AS day, COUNT(*)
		FROM conversations
		WHERE created_at >= $1
		GROUP BY day
		ORDER BY day DESC`, since)
	if err != nil {
		return nil, fmt.Errorf("error querying daily counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var dc models.DailyCount
		if err := rows.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, fmt.Errorf("error scanning daily count: %w", err)
		}
		stats.PerDay = append(stats.PerDay, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT category, COUNT(*)
		FROM conversations
		WHERE created_at >= $1 AND category IS NOT NULL
		GROUP BY category
		ORDER BY COUNT(*) DESC`, since)
	if err != nil {
		return nil, fmt.Errorf("error querying category counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var cc models.CategoryCount
		if err := rows.Scan(&cc.Category, &cc.Count); err != nil {
			return nil, fmt.Errorf("error scanning category count: %w", err)
		}
		stats.Categories = append(stats.Categories, cc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT keyword, frequency
		FROM keyword_frequencies
		ORDER BY frequency DESC
		LIMIT 20`)
	if err != nil {
		return nil, fmt.Errorf("error querying keywords: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kc models.KeywordCount
		if err := rows.Scan(&kc.Keyword, &kc.Count); err != nil {
			return nil, fmt.Errorf("error scanning keyword count: %w", err)
		}
		stats.Keywords = append(stats.Keywords, kc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT u.full_name, COUNT(c.id) AS messages
		FROM users u
		JOIN conversations c ON c.identification = u.identification
		WHERE u.active AND c.created_at >= $1
		GROUP BY u.identification, u.full_name
		ORDER BY messages DESC
		LIMIT 10`, since)
	if err != nil {
		return nil, fmt.Errorf("error querying top users: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ua models.UserActivity
		if err := rows.Scan(&ua.FullName, &ua.Messages); err != nil {
			return nil, fmt.Errorf("error scanning user activity: %w", err)
		}
		stats.TopUsers = append(stats.TopUsers, ua)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
