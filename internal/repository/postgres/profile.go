package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Rrens/dietplan/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProfileRepository implements domain.ClientProfileRepository
type ProfileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository creates a new client profile repository
func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

func (r *ProfileRepository) Create(ctx context.Context, p *domain.ClientProfile) error {
	query := `
		INSERT INTO client_profiles (
			id, name, email, age, sex, height_cm, weight_kg, goal, activity_level, locale,
			restrictions, allergies, medical_conditions, current_diet, sleep_hours,
			stress_level, budget, cooking_time, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`
	_, err := r.pool.Exec(ctx, query,
		p.ID,
		p.Name,
		p.Email,
		p.Age,
		string(p.Sex),
		p.HeightCM,
		p.WeightKG,
		string(p.Goal),
		string(p.ActivityLevel),
		string(p.Locale),
		p.Restrictions,
		p.Allergies,
		p.MedicalConditions,
		p.CurrentDiet,
		p.SleepHours,
		p.StressLevel,
		p.Budget,
		p.CookingTime,
		p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create client profile: %w", err)
	}
	return nil
}

func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ClientProfile, error) {
	query := `
		SELECT id, name, email, age, sex, height_cm, weight_kg, goal, activity_level, locale,
			restrictions, allergies, medical_conditions, current_diet, sleep_hours,
			stress_level, budget, cooking_time, created_at
		FROM client_profiles
		WHERE id = $1
	`
	var p domain.ClientProfile
	var sex, goal, activity, locale string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Email,
		&p.Age,
		&sex,
		&p.HeightCM,
		&p.WeightKG,
		&goal,
		&activity,
		&locale,
		&p.Restrictions,
		&p.Allergies,
		&p.MedicalConditions,
		&p.CurrentDiet,
		&p.SleepHours,
		&p.StressLevel,
		&p.Budget,
		&p.CookingTime,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("client profile %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get client profile: %w", err)
	}
	p.Sex = domain.Sex(sex)
	p.Goal = domain.Goal(goal)
	p.ActivityLevel = domain.ActivityLevel(activity)
	p.Locale = domain.Locale(locale)
	return &p, nil
}
