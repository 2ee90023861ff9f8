package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Rrens/dietplan/internal/domain"
	"github.com/google/uuid"
)

// ProfileRepository implements domain.ClientProfileRepository
type ProfileRepository struct {
	db *sql.DB
}

func (r *ProfileRepository) Create(ctx context.Context, p *domain.ClientProfile) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO client_profiles (
			id, name, email, age, sex, height_cm, weight_kg, goal, activity_level, locale,
			restrictions, allergies, medical_conditions, current_diet, sleep_hours,
			stress_level, budget, cooking_time, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
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
		formatTime(p.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("create client profile: %w", err)
	}
	return nil
}

func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ClientProfile, error) {
	var p domain.ClientProfile
	var sex, goal, activity, locale, createdAt string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, age, sex, height_cm, weight_kg, goal, activity_level, locale,
			restrictions, allergies, medical_conditions, current_diet, sleep_hours,
			stress_level, budget, cooking_time, created_at
		FROM client_profiles
		WHERE id = ?
	`, id).Scan(
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
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("client profile %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get client profile: %w", err)
	}
	p.Sex = domain.Sex(sex)
	p.Goal = domain.Goal(goal)
	p.ActivityLevel = domain.ActivityLevel(activity)
	p.Locale = domain.Locale(locale)
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &p, nil
}
