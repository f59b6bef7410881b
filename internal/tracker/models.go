// Package tracker provides typed access to the interview tracker REST API.
package tracker

// Interview is a job application and its scheduled interview.
type Interview struct {
	ID                int64   `json:"id"`
	CompanyName       string  `json:"company_name"`
	Position          string  `json:"position"`
	InterviewDate     *string `json:"interview_date"`
	InterviewType     string  `json:"interview_type,omitempty"`
	Status            string  `json:"status,omitempty"`
	Location          string  `json:"location,omitempty"`
	InterviewStage    string  `json:"interview_stage,omitempty"`
	ApplicationStatus string  `json:"application_status,omitempty"`
	ApplicationDate   *string `json:"application_date,omitempty"`
	Notes             *string `json:"notes,omitempty"`
	DaysInPipeline    *int    `json:"days_in_pipeline,omitempty"`
	IsUpcoming        bool    `json:"is_upcoming"`
	CreatedAt         string  `json:"created_at,omitempty"`
	UpdatedAt         string  `json:"updated_at,omitempty"`

	// Rounds is only populated by the detail endpoint.
	Rounds []Round `json:"rounds,omitempty"`
}

// InterviewInput is the writable subset of Interview. Zero values are
// omitted so the same type serves create (POST) and partial update (PATCH).
type InterviewInput struct {
	CompanyName       string `json:"company_name,omitempty"`
	Position          string `json:"position,omitempty"`
	InterviewDate     string `json:"interview_date,omitempty"`
	InterviewType     string `json:"interview_type,omitempty"`
	Status            string `json:"status,omitempty"`
	Location          string `json:"location,omitempty"`
	InterviewStage    string `json:"interview_stage,omitempty"`
	ApplicationStatus string `json:"application_status,omitempty"`
	ApplicationDate   string `json:"application_date,omitempty"`
	Notes             string `json:"notes,omitempty"`
}

// Round is one stage of an interview process.
type Round struct {
	ID              int64   `json:"id"`
	Interview       int64   `json:"interview"`
	Stage           string  `json:"stage"`
	StageDisplay    string  `json:"stage_display,omitempty"`
	ScheduledDate   *string `json:"scheduled_date"`
	CompletedDate   *string `json:"completed_date"`
	DurationMinutes *int    `json:"duration_minutes"`
	Notes           string  `json:"notes,omitempty"`
	Outcome         string  `json:"outcome,omitempty"`
	OutcomeDisplay  string  `json:"outcome_display,omitempty"`
	CreatedAt       string  `json:"created_at,omitempty"`
	UpdatedAt       string  `json:"updated_at,omitempty"`
}

// Stats is the dashboard aggregate.
type Stats struct {
	Total               int            `json:"total"`
	Active              int            `json:"active"`
	Offers              int            `json:"offers"`
	SuccessRate         float64        `json:"success_rate"`
	UpcomingCount       int            `json:"upcoming_count"`
	UpcomingInterviews  []StatsEntry   `json:"upcoming_interviews"`
	AwaitingCount       int            `json:"awaiting_count"`
	AwaitingResponse    []StatsEntry   `json:"awaiting_response"`
	NeedsReviewCount    int            `json:"needs_review_count"`
	NeedsReview         []StatsEntry   `json:"needs_review"`
	ByInterviewStage    map[string]int `json:"by_interview_stage"`
	ByApplicationStatus map[string]int `json:"by_application_status"`
}

// StatsEntry is an abbreviated interview inside a dashboard widget.
type StatsEntry struct {
	ID              int64   `json:"id"`
	CompanyName     string  `json:"company_name"`
	Position        string  `json:"position"`
	InterviewDate   *string `json:"interview_date,omitempty"`
	InterviewType   string  `json:"interview_type,omitempty"`
	InterviewStage  string  `json:"interview_stage,omitempty"`
	Location        string  `json:"location,omitempty"`
	ApplicationDate *string `json:"application_date,omitempty"`
	DaysWaiting     *int    `json:"days_waiting,omitempty"`
	DaysAgo         *int    `json:"days_ago,omitempty"`
}

// Profile holds notification preferences.
type Profile struct {
	Username                  string `json:"username"`
	Email                     string `json:"email"`
	EmailNotificationsEnabled bool   `json:"email_notifications_enabled"`
	ReminderDaysBefore        int    `json:"reminder_days_before"`
	ReminderTime              string `json:"reminder_time,omitempty"`
}

// ProfileUpdate is a partial profile update. Nil fields are left unchanged.
type ProfileUpdate struct {
	EmailNotificationsEnabled *bool   `json:"email_notifications_enabled,omitempty"`
	ReminderDaysBefore        *int    `json:"reminder_days_before,omitempty"`
	ReminderTime              *string `json:"reminder_time,omitempty"`
}
