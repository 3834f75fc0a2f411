package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/lib/pq"
	"github.com/tns-project/tns-server/models"
)

var (
	ErrRosterTeamNotFound = errors.New("roster team not found")
	ErrRosterUserNotFound = errors.New("roster user not found")
)

// TeamResult is the outcome of resolving one team key: either the full
// team with its members, or the error that prevented resolution.
type TeamResult struct {
	Team *models.ResolvedTeam
	Err  error
}

type RosterRepository interface {
	// Replace atomically swaps the stored roster for the given one.
	Replace(ctx context.Context, roster *models.Roster) error
	GetFull(ctx context.Context) (*models.Roster, error)
	GetTeams(ctx context.Context, keys []models.TeamKey) (map[models.TeamKey]TeamResult, error)
	GetUserEmailsForSchool(ctx context.Context, school string, roles []models.UserRole) ([]string, error)
	GetDivisionMemberEmails(ctx context.Context, division string) ([]string, error)
	ListDivisions(ctx context.Context) ([]string, error)
	Clear(ctx context.Context, exec SQLExecutor) error
}

type postgresRosterRepository struct {
	db *sql.DB
}

func NewPostgresRosterRepository(db *sql.DB) RosterRepository {
	return &postgresRosterRepository{db: db}
}

func (r *postgresRosterRepository) Replace(ctx context.Context, roster *models.Roster) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace roster: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := r.Clear(ctx, tx); err != nil {
		return err
	}

	// insertion in sorted order keeps the table contents reproducible
	schools := append([]string(nil), roster.Schools...)
	sort.Strings(schools)
	for _, school := range schools {
		_, err := tx.ExecContext(ctx, `INSERT INTO schools (name) VALUES ($1)`, school)
		if err != nil {
			return fmt.Errorf("replace roster: failed to insert school %q: %w", school, err)
		}
	}

	users := append([]models.User(nil), roster.Users...)
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	for _, user := range users {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO roster_users (first_name, last_name, email, role, school, email_valid)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			user.FirstName, user.LastName, user.Email, user.Role, user.School, user.EmailValid,
		)
		if err != nil {
			return fmt.Errorf("replace roster: failed to insert user %q: %w", user.Email, err)
		}
	}

	teams := append([]models.Team(nil), roster.Teams...)
	sort.Slice(teams, func(i, j int) bool { return teams[i].Key().Name() < teams[j].Key().Name() })
	for _, team := range teams {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO teams (school, division, number, light_email, middle_email, heavy_email, alternates)
			VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7)`,
			team.School, team.Division, team.Number,
			team.Light, team.Middle, team.Heavy, pq.Array(team.Alternates),
		)
		if err != nil {
			return fmt.Errorf("replace roster: failed to insert team %q: %w", team.Key().Name(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace roster: failed to commit: %w", err)
	}
	return nil
}

func (r *postgresRosterRepository) GetFull(ctx context.Context) (*models.Roster, error) {
	roster := &models.Roster{}

	rows, err := r.db.QueryContext(ctx, `SELECT name FROM schools ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list schools: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan school: %w", err)
		}
		roster.Schools = append(roster.Schools, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	userRows, err := r.db.QueryContext(ctx, `
		SELECT first_name, last_name, email, role, school, email_valid
		FROM roster_users ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("failed to list roster users: %w", err)
	}
	defer userRows.Close()
	for userRows.Next() {
		var user models.User
		if err := userRows.Scan(
			&user.FirstName, &user.LastName, &user.Email,
			&user.Role, &user.School, &user.EmailValid,
		); err != nil {
			return nil, fmt.Errorf("failed to scan roster user: %w", err)
		}
		roster.Users = append(roster.Users, user)
	}
	if err := userRows.Err(); err != nil {
		return nil, err
	}

	teamRows, err := r.db.QueryContext(ctx, `
		SELECT school, division, number,
		       COALESCE(light_email, ''), COALESCE(middle_email, ''), COALESCE(heavy_email, ''),
		       alternates
		FROM teams ORDER BY school, division, number`)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer teamRows.Close()
	for teamRows.Next() {
		var team models.Team
		if err := teamRows.Scan(
			&team.School, &team.Division, &team.Number,
			&team.Light, &team.Middle, &team.Heavy, pq.Array(&team.Alternates),
		); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		roster.Teams = append(roster.Teams, team)
	}
	return roster, teamRows.Err()
}

func (r *postgresRosterRepository) GetTeams(ctx context.Context, keys []models.TeamKey) (map[models.TeamKey]TeamResult, error) {
	results := make(map[models.TeamKey]TeamResult, len(keys))

	// collect all teams first, then resolve every member in one query
	teams := make(map[models.TeamKey]models.Team, len(keys))
	var memberEmails []string
	for _, key := range keys {
		if _, done := results[key]; done {
			continue
		}
		if _, done := teams[key]; done {
			continue
		}
		var team models.Team
		err := r.db.QueryRowContext(ctx, `
			SELECT school, division, number,
			       COALESCE(light_email, ''), COALESCE(middle_email, ''), COALESCE(heavy_email, ''),
			       alternates
			FROM teams WHERE school = $1 AND division = $2 AND number = $3`,
			key.School, key.Division, key.Number,
		).Scan(
			&team.School, &team.Division, &team.Number,
			&team.Light, &team.Middle, &team.Heavy, pq.Array(&team.Alternates),
		)
		if errors.Is(err, sql.ErrNoRows) {
			results[key] = TeamResult{Err: ErrRosterTeamNotFound}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get team %q: %w", key.Name(), err)
		}
		teams[key] = team
		for _, email := range []string{team.Light, team.Middle, team.Heavy} {
			if email != "" {
				memberEmails = append(memberEmails, email)
			}
		}
		memberEmails = append(memberEmails, team.Alternates...)
	}

	users, err := r.getUsersByEmail(ctx, memberEmails)
	if err != nil {
		return nil, err
	}

	for key, team := range teams {
		resolved := &models.ResolvedTeam{Key: key}
		resolved.Light = users[team.Light]
		resolved.Middle = users[team.Middle]
		resolved.Heavy = users[team.Heavy]
		for _, email := range team.Alternates {
			if user, ok := users[email]; ok {
				resolved.Alternates = append(resolved.Alternates, *user)
			}
		}
		results[key] = TeamResult{Team: resolved}
	}
	return results, nil
}

func (r *postgresRosterRepository) getUsersByEmail(ctx context.Context, emails []string) (map[string]*models.User, error) {
	users := make(map[string]*models.User, len(emails))
	if len(emails) == 0 {
		return users, nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT first_name, last_name, email, role, school, email_valid
		FROM roster_users WHERE email = ANY($1)`, pq.Array(emails))
	if err != nil {
		return nil, fmt.Errorf("failed to get roster users by email: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var user models.User
		if err := rows.Scan(
			&user.FirstName, &user.LastName, &user.Email,
			&user.Role, &user.School, &user.EmailValid,
		); err != nil {
			return nil, fmt.Errorf("failed to scan roster user: %w", err)
		}
		u := user
		users[user.Email] = &u
	}
	return users, rows.Err()
}

func (r *postgresRosterRepository) GetUserEmailsForSchool(ctx context.Context, school string, roles []models.UserRole) ([]string, error) {
	roleNames := make([]string, len(roles))
	for i, role := range roles {
		roleNames[i] = string(role)
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT email FROM roster_users
		WHERE school = $1 AND role = ANY($2) AND email_valid
		ORDER BY email`, school, pq.Array(roleNames))
	if err != nil {
		return nil, fmt.Errorf("failed to get emails for school %q: %w", school, err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("failed to scan email: %w", err)
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}

func (r *postgresRosterRepository) GetDivisionMemberEmails(ctx context.Context, division string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT COALESCE(light_email, ''), COALESCE(middle_email, ''), COALESCE(heavy_email, ''), alternates
		FROM teams WHERE division = $1`, division)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams for division %q: %w", division, err)
	}
	defer rows.Close()

	var memberEmails []string
	for rows.Next() {
		var light, middle, heavy string
		var alternates []string
		if err := rows.Scan(&light, &middle, &heavy, pq.Array(&alternates)); err != nil {
			return nil, fmt.Errorf("failed to scan team members: %w", err)
		}
		for _, email := range []string{light, middle, heavy} {
			if email != "" {
				memberEmails = append(memberEmails, email)
			}
		}
		memberEmails = append(memberEmails, alternates...)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(memberEmails) == 0 {
		return nil, nil
	}

	// keep only members whose emails are valid
	users, err := r.getUsersByEmail(ctx, memberEmails)
	if err != nil {
		return nil, err
	}
	var valid []string
	for _, email := range memberEmails {
		if user, ok := users[email]; ok && user.EmailValid {
			valid = append(valid, email)
		}
	}
	return valid, nil
}

func (r *postgresRosterRepository) ListDivisions(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT division FROM teams ORDER BY division`)
	if err != nil {
		return nil, fmt.Errorf("failed to list divisions: %w", err)
	}
	defer rows.Close()

	var divisions []string
	for rows.Next() {
		var division string
		if err := rows.Scan(&division); err != nil {
			return nil, fmt.Errorf("failed to scan division: %w", err)
		}
		divisions = append(divisions, division)
	}
	return divisions, rows.Err()
}

func (r *postgresRosterRepository) Clear(ctx context.Context, exec SQLExecutor) error {
	if exec == nil {
		exec = r.db
	}
	for _, table := range []string{"teams", "roster_users", "schools"} {
		if _, err := exec.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}
