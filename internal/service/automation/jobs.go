package automation

import "context"

const (
	JobDaily   = "daily"
	JobWeekly  = "weekly"
	JobMonthly = "monthly"
)

// Job adapts one automation pass to the scheduler.
type Job struct {
	name string
	run  func(ctx context.Context) error
}

func (j Job) Name() string                  { return j.name }
func (j Job) Run(ctx context.Context) error { return j.run(ctx) }

// Jobs returns the daily, weekly and monthly passes in that order.
func (s *Service) Jobs() []Job {
	return []Job{
		{name: JobDaily, run: func(ctx context.Context) error {
			_, err := s.RunDaily(ctx)
			return err
		}},
		{name: JobWeekly, run: func(ctx context.Context) error {
			_, err := s.RunWeekly(ctx)
			return err
		}},
		{name: JobMonthly, run: func(ctx context.Context) error {
			_, err := s.RunMonthly(ctx)
			return err
		}},
	}
}
