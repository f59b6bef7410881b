package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/interview-tracker/tracker-cli/internal/api"
	"github.com/interview-tracker/tracker-cli/internal/auth"
)

// API paths.
const (
	InterviewsPath = "/api/interviews/"
	RoundsPath     = "/api/interviews/rounds/"
	StatsPath      = "/api/interviews/dashboard-stats/"
	ProfilePath    = "/api/profile/"
)

// Service wraps an api.Client with typed resource methods.
type Service struct {
	client *api.Client
}

// NewService creates a Service.
func NewService(client *api.Client) *Service {
	return &Service{client: client}
}

// ListInterviews returns every interview of the current user.
func (s *Service) ListInterviews(ctx context.Context) ([]Interview, error) {
	return list[Interview](ctx, s.client, InterviewsPath)
}

// GetInterview returns one interview including its rounds.
func (s *Service) GetInterview(ctx context.Context, id int64) (*Interview, error) {
	var iv Interview
	if err := s.get(ctx, interviewPath(id), &iv); err != nil {
		return nil, err
	}
	return &iv, nil
}

// CreateInterview creates an interview.
func (s *Service) CreateInterview(ctx context.Context, in InterviewInput) (*Interview, error) {
	resp, err := s.client.Post(ctx, InterviewsPath, in)
	if err != nil {
		return nil, err
	}
	var iv Interview
	if err := resp.UnmarshalData(&iv); err != nil {
		return nil, fmt.Errorf("failed to parse interview: %w", err)
	}
	return &iv, nil
}

// UpdateInterview applies a partial update.
func (s *Service) UpdateInterview(ctx context.Context, id int64, in InterviewInput) (*Interview, error) {
	resp, err := s.client.Patch(ctx, interviewPath(id), in)
	if err != nil {
		return nil, err
	}
	var iv Interview
	if err := resp.UnmarshalData(&iv); err != nil {
		return nil, fmt.Errorf("failed to parse interview: %w", err)
	}
	return &iv, nil
}

// DeleteInterview deletes an interview and its rounds.
func (s *Service) DeleteInterview(ctx context.Context, id int64) error {
	_, err := s.client.Delete(ctx, interviewPath(id))
	return err
}

// ListRounds returns rounds, optionally narrowed to one interview.
func (s *Service) ListRounds(ctx context.Context, interviewID int64) ([]Round, error) {
	rounds, err := list[Round](ctx, s.client, RoundsPath)
	if err != nil || interviewID == 0 {
		return rounds, err
	}
	filtered := rounds[:0]
	for _, r := range rounds {
		if r.Interview == interviewID {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// Stats returns the dashboard aggregate.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	if err := s.get(ctx, StatsPath, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Profile returns the notification preferences.
func (s *Service) Profile(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := s.get(ctx, ProfilePath, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile patches the notification preferences.
func (s *Service) UpdateProfile(ctx context.Context, upd ProfileUpdate) (*Profile, error) {
	resp, err := s.client.Patch(ctx, ProfilePath, upd)
	if err != nil {
		return nil, err
	}
	var p Profile
	if err := resp.UnmarshalData(&p); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	return &p, nil
}

// CurrentUser returns the authenticated account.
func (s *Service) CurrentUser(ctx context.Context) (*auth.User, error) {
	var u auth.User
	if err := s.get(ctx, auth.UserPath, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Service) get(ctx context.Context, path string, v any) error {
	resp, err := s.client.Get(ctx, path)
	if err != nil {
		return err
	}
	if err := resp.UnmarshalData(v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func list[T any](ctx context.Context, client *api.Client, path string) ([]T, error) {
	raw, err := client.GetAll(ctx, path)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raw))
	for _, item := range raw {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
		out = append(out, v)
	}
	return out, nil
}

func interviewPath(id int64) string {
	return InterviewsPath + strconv.FormatInt(id, 10) + "/"
}
