package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// NutritionTargets contains the computed daily energy and macro targets
type NutritionTargets struct {
	BMR           int `json:"bmr"`
	TotalCalories int `json:"total_calories"`
	ProteinG      int `json:"protein_g"`
	CarbsG        int `json:"carbs_g"`
	FatsG         int `json:"fats_g"`
	ProteinKcal   int `json:"protein_kcal"`
	CarbsKcal     int `json:"carbs_kcal"`
	FatsKcal      int `json:"fats_kcal"`
}

// PlanStatus is the lifecycle state of a diet plan
type PlanStatus string

const (
	StatusDraft         PlanStatus = "draft"
	StatusPendingReview PlanStatus = "pending_review"
	StatusApproved      PlanStatus = "approved"
	StatusRejected      PlanStatus = "rejected"
	StatusPublished     PlanStatus = "published"
)

// MealType is one of the six fixed meal slots of a day
type MealType string

const (
	MealBreakfast      MealType = "breakfast"
	MealMorningSnack   MealType = "morning_snack"
	MealLunch          MealType = "lunch"
	MealAfternoonSnack MealType = "afternoon_snack"
	MealDinner         MealType = "dinner"
	MealEveningSnack   MealType = "evening_snack"
)

// MealSlots lists the meal slots in the order they occur in a day
var MealSlots = []MealType{
	MealBreakfast,
	MealMorningSnack,
	MealLunch,
	MealAfternoonSnack,
	MealDinner,
	MealEveningSnack,
}

// Macros is a gram breakdown of protein, carbohydrate and fat
type Macros struct {
	ProteinG int `json:"protein_g"`
	CarbsG   int `json:"carbs_g"`
	FatsG    int `json:"fats_g"`
}

// Ingredient is one itemized line of a meal
type Ingredient struct {
	Item     string `json:"item"`
	Quantity string `json:"quantity"`
	Calories int    `json:"calories"`
}

// Meal is a single meal slot within a day
type Meal struct {
	Type         MealType     `json:"type"`
	Name         string       `json:"name"`
	Ingredients  []Ingredient `json:"ingredients"`
	Instructions string       `json:"instructions"`
	Calories     int          `json:"calories"`
	Macros       Macros       `json:"macros"`
	Timing       string       `json:"timing"`
	Tips         []string     `json:"tips"`
}

// Day is one day of a plan
type Day struct {
	DayNumber     int    `json:"day_number"`
	Meals         []Meal `json:"meals"`
	TotalCalories int    `json:"total_calories"`
	WaterIntake   string `json:"water_intake"`
	Exercise      string `json:"exercise,omitempty"`
}

// Week groups days under a theme
type Week struct {
	WeekNumber int    `json:"week_number"`
	Theme      string `json:"theme"`
	Days       []Day  `json:"days"`
}

// PlanOverview summarizes a plan
type PlanOverview struct {
	Duration      string   `json:"duration"`
	TotalCalories int      `json:"total_calories"`
	Macros        Macros   `json:"macros"`
	Goals         []string `json:"goals"`
	ClientSummary string   `json:"client_summary"`
}

// Recommendations holds the plan-wide advice lists
type Recommendations struct {
	Supplements []string `json:"supplements"`
	Tips        []string `json:"tips"`
	Warnings    []string `json:"warnings"`
}

// ReviewNote is a reviewer comment appended on a change request
type ReviewNote struct {
	Author    uuid.UUID `json:"author"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

// DietPlan is a structured 30-day plan and its review state
type DietPlan struct {
	ID              uuid.UUID        `json:"id"`
	ClientID        uuid.UUID        `json:"client_id"`
	Status          PlanStatus       `json:"status"`
	Version         int              `json:"version"`
	Targets         NutritionTargets `json:"targets"`
	Overview        PlanOverview     `json:"overview"`
	Weeks           []Week           `json:"weeks"`
	Recommendations Recommendations  `json:"recommendations"`
	ReviewNotes     []ReviewNote     `json:"review_notes"`
	ApprovedBy      *uuid.UUID       `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time       `json:"approved_at,omitempty"`
	RejectedBy      *uuid.UUID       `json:"rejected_by,omitempty"`
	RejectedAt      *time.Time       `json:"rejected_at,omitempty"`
	GenerationLogID *uuid.UUID       `json:"generation_log_id,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// PlanCustomization is a reviewer-edited overlay on top of a generated plan.
// Nil fields fall through to the generated document.
type PlanCustomization struct {
	PlanID          uuid.UUID        `json:"plan_id"`
	Overview        *PlanOverview    `json:"overview,omitempty"`
	Weeks           []Week           `json:"weeks,omitempty"`
	Recommendations *Recommendations `json:"recommendations,omitempty"`
	EditedBy        uuid.UUID        `json:"edited_by"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// CustomizationInput is the request body for saving an overlay
type CustomizationInput struct {
	Overview        *PlanOverview    `json:"overview,omitempty"`
	Weeks           []Week           `json:"weeks,omitempty" validate:"omitempty,dive"`
	Recommendations *Recommendations `json:"recommendations,omitempty"`
}

// ReviewInput is the request body for review actions
type ReviewInput struct {
	Note string `json:"note" validate:"max=4000"`
}

// Apply returns a copy of plan with the overlay fields substituted
func (c *PlanCustomization) Apply(plan DietPlan) DietPlan {
	if c == nil {
		return plan
	}
	if c.Overview != nil {
		plan.Overview = *c.Overview
	}
	if c.Weeks != nil {
		plan.Weeks = c.Weeks
	}
	if c.Recommendations != nil {
		plan.Recommendations = *c.Recommendations
	}
	return plan
}

// StatusChange describes a conditional status update of one plan.
// The update applies only while the stored status and version still match From and Version.
type StatusChange struct {
	PlanID     uuid.UUID
	From       PlanStatus
	To         PlanStatus
	Version    int
	Note       *ReviewNote
	ApprovedBy *uuid.UUID
	ApprovedAt *time.Time
	RejectedBy *uuid.UUID
	RejectedAt *time.Time
	At         time.Time
}

// DietPlanRepository defines the interface for diet plan storage
type DietPlanRepository interface {
	Create(ctx context.Context, plan *DietPlan) error
	GetByID(ctx context.Context, id uuid.UUID) (*DietPlan, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]DietPlan, error)
	ApplyStatusChange(ctx context.Context, change StatusChange) error
	// Publish applies change, deactivates any active access of the plan and inserts access atomically
	Publish(ctx context.Context, change StatusChange, access *PublishedAccess) error
	// SaveCustomization upserts the overlay only while the plan is editable and still at planVersion
	SaveCustomization(ctx context.Context, c *PlanCustomization, planVersion int) error
	GetCustomization(ctx context.Context, planID uuid.UUID) (*PlanCustomization, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
