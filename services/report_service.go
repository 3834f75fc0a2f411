package services

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/tns-project/tns-server/models"
	"github.com/tns-project/tns-server/repositories"
)

type ReportService interface {
	// GetSentEmails merges match and blast send records into one
	// report, newest first.
	GetSentEmails(ctx context.Context) ([]models.SentEmailReport, error)
	ClearSentEmails(ctx context.Context) error
}

type reportService struct {
	sentEmailRepo repositories.SentEmailRepository
}

func NewReportService(sentEmailRepo repositories.SentEmailRepository) ReportService {
	return &reportService{sentEmailRepo: sentEmailRepo}
}

func (s *reportService) GetSentEmails(ctx context.Context) ([]models.SentEmailReport, error) {
	var (
		matchEmails []*models.SentEmail
		blastEmails []*models.BlastSentEmail
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		matchEmails, err = s.sentEmailRepo.ListMatchEmails(gCtx)
		if err != nil {
			return fmt.Errorf("failed to list sent emails: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		blastEmails, err = s.sentEmailRepo.ListBlastEmails(gCtx)
		if err != nil {
			return fmt.Errorf("failed to list blast emails: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := make([]models.SentEmailReport, 0, len(matchEmails)+len(blastEmails))
	for _, email := range matchEmails {
		number := email.MatchNumber
		report = append(report, models.SentEmailReport{
			TemplateName: email.TemplateName,
			Subject:      email.Subject,
			TimeSent:     email.TimeSent,
			MatchNumber:  &number,
			Recipients:   email.Recipients,
		})
	}
	for _, email := range blastEmails {
		report = append(report, models.SentEmailReport{
			TemplateName: email.TemplateName,
			Subject:      email.Subject,
			TimeSent:     email.TimeSent,
			Blast:        true,
			Recipient:    email.Recipient,
		})
	}
	sort.SliceStable(report, func(i, j int) bool {
		return report[i].TimeSent.After(report[j].TimeSent)
	})
	return report, nil
}

func (s *reportService) ClearSentEmails(ctx context.Context) error {
	if err := s.sentEmailRepo.ClearAll(ctx); err != nil {
		return fmt.Errorf("failed to clear sent emails: %w", err)
	}
	return nil
}
